package ssdp

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

const searchRequest = "M-SEARCH * HTTP/1.1\r\n" +
	"HOST: " + multicastAddr + "\r\n" +
	"MAN: \"ssdp:discover\"\r\n" +
	"MX: 1\r\n" +
	"ST: " + SearchTarget + "\r\n\r\n"

// Discover searches the network for controllers and returns their
// locations. It listens until ctx is done or wait has elapsed.
func Discover(ctx context.Context, wait time.Duration) ([]string, error) {
	dst, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := conn.WriteToUDP([]byte(searchRequest), dst); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(wait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetReadDeadline(deadline)

	seen := map[string]bool{}
	var found []string
	buf := make([]byte, 2048)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			// deadline reached
			return found, nil
		}
		if loc, ok := parseLocation(string(buf[:n])); ok && !seen[loc] {
			seen[loc] = true
			found = append(found, loc)
		}
	}
}

// parseLocation extracts LOCATION from a search response for our target.
func parseLocation(resp string) (string, bool) {
	r, err := http.ReadResponse(bufio.NewReader(strings.NewReader(resp)), nil)
	if err != nil {
		return "", false
	}
	defer r.Body.Close()
	if r.Header.Get("ST") != SearchTarget {
		return "", false
	}
	loc := r.Header.Get("LOCATION")
	return loc, loc != ""
}
