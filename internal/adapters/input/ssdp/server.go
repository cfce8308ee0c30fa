// Package ssdp announces the simulated controller on the local network and
// finds controllers announced by others.
package ssdp

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	multicastAddr = "239.255.255.250:1900"
	// SearchTarget identifies LED controllers.
	SearchTarget = "urn:led-effect-editor:device:controller:1"
)

type Server struct {
	ip     string
	port   int
	id     string
	logger *zap.SugaredLogger
}

func NewServer(ip string, port int, logger *zap.SugaredLogger) *Server {
	return &Server{ip: ip, port: port, id: uuid.NewString(), logger: logger}
}

// Start answers searches until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return err
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 1024)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		if matches(string(buf[:n])) {
			s.logger.Debugw("Answering search", "from", src.String())
			s.respond(src)
		}
	}
}

// matches reports whether msg is a search this server should answer.
func matches(msg string) bool {
	if !strings.HasPrefix(msg, "M-SEARCH") {
		return false
	}
	return strings.Contains(msg, SearchTarget) ||
		strings.Contains(msg, "upnp:rootdevice") ||
		strings.Contains(msg, "ssdp:all")
}

// Location is where the controller's API is served.
func (s *Server) Location() string {
	return fmt.Sprintf("http://%s:%d", s.ip, s.port)
}

func (s *Server) response() string {
	return fmt.Sprintf("HTTP/1.1 200 OK\r\n"+
		"CACHE-CONTROL: max-age=100\r\n"+
		"EXT:\r\n"+
		"LOCATION: %s\r\n"+
		"SERVER: led-effect-editor UPnP/1.1\r\n"+
		"ST: %s\r\n"+
		"USN: uuid:%s::%s\r\n\r\n", s.Location(), SearchTarget, s.id, SearchTarget)
}

func (s *Server) respond(dest *net.UDPAddr) {
	conn, err := net.DialUDP("udp4", nil, dest)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.Write([]byte(s.response()))
}

// LocalIP returns the first non-loopback IPv4 address.
func LocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return ""
}
