package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"led-effect-editor/internal/adapters/output/controller"
	"led-effect-editor/internal/adapters/output/hue"
	"led-effect-editor/internal/config"
	"led-effect-editor/internal/domain/reconcile"
	"led-effect-editor/internal/domain/translator"
	"led-effect-editor/internal/logger"
	"led-effect-editor/internal/ports"
)

func newSource(cfg config.Config) ports.EffectSource {
	if cfg.Source == config.SourceHue {
		formulas := translator.Formulas{ToHue: cfg.Hue.BrightnessToHue, FromHue: cfg.Hue.BrightnessFromHue}
		return hue.Connect(cfg.Hue.Host, cfg.Hue.User, cfg.Hue.Group, formulas, logger.For(logger.ComponentHue))
	}
	return controller.NewClient(cfg.Controller.URL, cfg.Controller.Timeout, logger.For(logger.ComponentController))
}

// session is a running machine for one command.
type session struct {
	machine *reconcile.Machine
	source  ports.EffectSource
	cancel  context.CancelFunc
	done    chan error
}

func startSession(cfg config.Config) *session {
	source := newSource(cfg)
	m := reconcile.NewMachine(source, logger.For(logger.ComponentMachine),
		reconcile.WithRequestTimeout(cfg.Controller.Timeout))

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{machine: m, source: source, cancel: cancel, done: make(chan error, 1)}
	go func() { s.done <- m.Run(ctx) }()
	return s
}

func (s *session) Close() {
	s.cancel()
	<-s.done
}

// waitReady blocks until the initial load settled.
func (s *session) waitReady(ctx context.Context) (reconcile.Snapshot, error) {
	snap, err := s.machine.WaitFor(ctx, func(snap reconcile.Snapshot) bool {
		return snap.State != reconcile.StateLoading
	})
	if err != nil {
		return snap, err
	}
	if snap.State == reconcile.StateError {
		return snap, errors.New("could not load data from the controller")
	}
	return snap, nil
}

func commandContext(cfg config.Config) (context.Context, context.CancelFunc) {
	timeout := 3 * cfg.Controller.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func segmentArg(raw string) (int, error) {
	var idx int
	if _, err := fmt.Sscanf(raw, "%d", &idx); err != nil {
		return 0, fmt.Errorf("invalid segment %q", raw)
	}
	return idx, nil
}
