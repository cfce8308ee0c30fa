package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"led-effect-editor/internal/domain/model"
	"led-effect-editor/internal/ports"
)

// Lifecycle events of the UI state.
const (
	EventLoaded      = "loaded"
	EventFetchFailed = "fetch_failed"
	EventApplyFailed = "apply_failed"
	EventRetry       = "retry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	inboxSize             = 64
)

// Snapshot is a read-only view of the machine.
type Snapshot struct {
	State   State
	Context Context
}

// Machine runs Transition against an EffectSource. Messages are processed
// one at a time by Run; requests run in their own goroutines and report back
// through the inbox.
type Machine struct {
	source ports.EffectSource
	logger *zap.SugaredLogger

	requestTimeout time.Duration

	// mu guards ctx and lifecycle moves, so snapshots never see one
	// without the other
	mu        sync.RWMutex
	ctx       Context
	lifecycle *fsm.FSM
	initial   []Request

	inbox chan Message
	done  chan struct{}
	once  sync.Once

	subsMu sync.Mutex
	subs   []chan Snapshot

	inflight sync.WaitGroup
}

// Option configures a Machine.
type Option func(*Machine)

// WithRequestTimeout bounds every call to the source.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.requestTimeout = d
		}
	}
}

// NewMachine builds a machine in the loading state. Nothing is fetched until
// Run is called.
func NewMachine(source ports.EffectSource, logger *zap.SugaredLogger, opts ...Option) *Machine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	state, ctx, initial := Init()
	m := &Machine{
		source:         source,
		logger:         logger,
		requestTimeout: defaultRequestTimeout,
		ctx:            ctx,
		initial:        initial,
		inbox:          make(chan Message, inboxSize),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.lifecycle = fsm.NewFSM(
		string(state),
		fsm.Events{
			{Name: EventLoaded, Src: []string{string(StateLoading)}, Dst: string(StateReady)},
			{Name: EventFetchFailed, Src: []string{string(StateLoading)}, Dst: string(StateError)},
			{Name: EventApplyFailed, Src: []string{string(StateReady)}, Dst: string(StateError)},
			{Name: EventRetry, Src: []string{string(StateError)}, Dst: string(StateLoading)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				m.logger.Infof("Editor state %s -> %s (%s)", e.Src, e.Dst, e.Event)
			},
		},
	)
	return m
}

// State returns the current UI state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State(m.lifecycle.Current())
}

// Snapshot returns the current state and a copy of the context.
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{State: State(m.lifecycle.Current()), Context: m.ctx.Clone()}
}

// Send queues msg. It returns false once the machine has stopped.
func (m *Machine) Send(msg Message) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.inbox <- msg:
		return true
	case <-m.done:
		return false
	}
}

// Subscribe returns a channel receiving a snapshot after every processed
// message. Slow readers only see the latest one. The channel is closed when
// Run returns.
func (m *Machine) Subscribe() <-chan Snapshot {
	return m.subscribe()
}

func (m *Machine) subscribe() chan Snapshot {
	ch := make(chan Snapshot, 1)
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	select {
	case <-m.done:
		close(ch)
		return ch
	default:
	}
	m.subs = append(m.subs, ch)
	return ch
}

// unsubscribe stops publishing to ch. A channel already closed by stop is
// no longer listed and is left alone.
func (m *Machine) unsubscribe(ch chan Snapshot) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.subs = slices.DeleteFunc(m.subs, func(c chan Snapshot) bool { return c == ch })
}

// Subscribers is the number of open subscriptions.
func (m *Machine) Subscribers() int {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	return len(m.subs)
}

// Run issues the initial fetch and processes messages until ctx is done. It
// waits for in-flight requests before returning.
func (m *Machine) Run(ctx context.Context) error {
	m.mu.Lock()
	initial := m.initial
	m.initial = nil
	m.mu.Unlock()

	m.dispatch(ctx, initial)
	m.publish()

	for {
		select {
		case <-ctx.Done():
			m.stop()
			return ctx.Err()
		case msg := <-m.inbox:
			m.process(ctx, msg)
		}
	}
}

// WaitFor blocks until pred holds for a snapshot, ctx is done or the machine
// stops.
func (m *Machine) WaitFor(ctx context.Context, pred func(Snapshot) bool) (Snapshot, error) {
	updates := m.subscribe()
	defer m.unsubscribe(updates)
	if snap := m.Snapshot(); pred(snap) {
		return snap, nil
	}
	for {
		select {
		case <-ctx.Done():
			return m.Snapshot(), ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return m.Snapshot(), errors.New("editor stopped")
			}
			if pred(snap) {
				return snap, nil
			}
		}
	}
}

func (m *Machine) stop() {
	m.once.Do(func() {
		close(m.done)
		m.inflight.Wait()

		m.subsMu.Lock()
		for _, ch := range m.subs {
			close(ch)
		}
		m.subs = nil
		m.subsMu.Unlock()
	})
}

func (m *Machine) process(ctx context.Context, msg Message) {
	m.mu.Lock()
	prev := State(m.lifecycle.Current())
	next, nc, reqs := Transition(prev, m.ctx, msg)
	m.ctx = nc
	if next != prev {
		m.move(ctx, prev, next)
	}
	m.mu.Unlock()

	if f, ok := msg.(RequestFailed); ok && next == StateError && prev != StateError {
		m.logger.Warnf("Request %T failed: %v", f.Request, f.Err)
	}

	m.dispatch(ctx, reqs)
	m.publish()
}

// move advances the lifecycle FSM. Transition only ever produces the moves
// listed in NewMachine; anything else is a bug and is forced through so the
// FSM does not drift from the context.
func (m *Machine) move(ctx context.Context, prev, next State) {
	event := lifecycleEvent(prev, next)
	if err := m.lifecycle.Event(ctx, event); err != nil {
		m.logger.Errorf("Lifecycle event %q from %s to %s failed: %v", event, prev, next, err)
		m.lifecycle.SetState(string(next))
	}
}

func lifecycleEvent(prev, next State) string {
	switch {
	case prev == StateLoading && next == StateReady:
		return EventLoaded
	case prev == StateLoading && next == StateError:
		return EventFetchFailed
	case prev == StateReady && next == StateError:
		return EventApplyFailed
	case prev == StateError && next == StateLoading:
		return EventRetry
	}
	return fmt.Sprintf("%s_to_%s", prev, next)
}

func (m *Machine) dispatch(ctx context.Context, reqs []Request) {
	for _, r := range reqs {
		m.logger.Debugf("Dispatching %T (seq %d)", r, r.Sequence())
		m.inflight.Add(1)
		go func(r Request) {
			defer m.inflight.Done()
			rctx, cancel := context.WithTimeout(ctx, m.requestTimeout)
			defer cancel()
			m.deliver(m.execute(rctx, r))
		}(r)
	}
}

func (m *Machine) execute(ctx context.Context, r Request) Message {
	switch r := r.(type) {
	case FetchInitialData:
		data, err := m.source.FetchInitialData(ctx)
		if err == nil && data == nil {
			err = errors.New("source returned no data")
		}
		if err != nil {
			return RequestFailed{Request: r, Err: &model.FetchError{Err: err}}
		}
		return InitialDataLoaded{Seq: r.Seq, Data: *data}

	case ApplyPreset:
		state, err := m.source.ApplyPreset(ctx, r.Name)
		if err == nil && state == nil {
			err = errors.New("source returned no display state")
		}
		if err != nil {
			return RequestFailed{Request: r, Err: &model.ApplyError{Op: "preset " + r.Name, Err: err}}
		}
		return PresetApplied{Seq: r.Seq, Name: r.Name, State: *state}

	case ApplyEffectConfig:
		if err := m.source.ApplyEffectConfig(ctx, r.Effect, r.Config); err != nil {
			return RequestFailed{Request: r, Err: &model.ApplyError{Op: "config of " + r.Effect, Err: err}}
		}
		return EffectConfigApplied{Seq: r.Seq, Effect: r.Effect, Config: r.Config}
	}
	return RequestFailed{Request: r, Err: fmt.Errorf("unknown request %T", r)}
}

func (m *Machine) deliver(msg Message) {
	select {
	case m.inbox <- msg:
	case <-m.done:
	}
}

// publish is only called from Run's goroutine, so draining before sending
// cannot race with another publisher.
func (m *Machine) publish() {
	snap := m.Snapshot()
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
