package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zaptest"

	"led-effect-editor/internal/domain/model"
	"led-effect-editor/internal/domain/reconcile"
)

type applyCall struct {
	effect  string
	config  model.Config
	release chan error
}

// fakeSource answers fetches immediately and parks every effect config apply
// until the test releases it.
type fakeSource struct {
	mu       sync.Mutex
	fetchErr error
	fetches  int
	presets  []string

	applies chan applyCall
}

func newFakeSource() *fakeSource {
	return &fakeSource{applies: make(chan applyCall, 8)}
}

func (f *fakeSource) FetchInitialData(ctx context.Context) (*model.InitialData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	data := testData()
	return &data, nil
}

func (f *fakeSource) ApplyPreset(ctx context.Context, name string) (*model.DisplayState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presets = append(f.presets, name)
	if name == "broken" {
		return nil, errors.New("no such preset")
	}
	return &model.DisplayState{Effects: []model.SegmentEffectState{{SegmentIndex: 0, Effect: "police"}}}, nil
}

func (f *fakeSource) ApplyEffectConfig(ctx context.Context, effect string, cfg model.Config) error {
	call := applyCall{effect: effect, config: cfg, release: make(chan error, 1)}
	f.applies <- call
	select {
	case err := <-call.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSource) setFetchErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

var _ = Describe("Machine", func() {
	var (
		source  *fakeSource
		machine *reconcile.Machine
		cancel  context.CancelFunc
		stopped chan struct{}
	)

	start := func() {
		machine = reconcile.NewMachine(source, zaptest.NewLogger(GinkgoT()).Sugar(), reconcile.WithRequestTimeout(5*time.Second))
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		stopped = make(chan struct{})
		go func() {
			defer close(stopped)
			_ = machine.Run(ctx)
		}()
	}

	brightness := func() any {
		return configValue(machine.Snapshot().Context, "rainbow", "brightness")
	}

	BeforeEach(func() {
		source = newFakeSource()
	})

	AfterEach(func() {
		cancel()
		Eventually(stopped).Should(BeClosed())
	})

	It("starts loading and becomes ready", func() {
		start()
		Eventually(machine.State).Should(Equal(reconcile.StateReady))
		Expect(machine.Snapshot().Context.Effects).To(HaveKey("rainbow"))
	})

	It("recovers from a failed load only through retry", func() {
		source.setFetchErr(errors.New("controller unreachable"))
		start()
		Eventually(machine.State).Should(Equal(reconcile.StateError))

		source.setFetchErr(nil)
		Consistently(machine.State, 100*time.Millisecond).Should(Equal(reconcile.StateError))

		Expect(machine.Send(reconcile.Retry{})).To(BeTrue())
		Eventually(machine.State).Should(Equal(reconcile.StateReady))
		Expect(source.fetchCount()).To(Equal(2))
	})

	It("does not touch the context while in error", func() {
		source.setFetchErr(errors.New("controller unreachable"))
		start()
		Eventually(machine.State).Should(Equal(reconcile.StateError))
		before := machine.Snapshot().Context

		machine.Send(reconcile.SetEffectConfig{Index: 0, Effect: "rainbow", Config: model.NewConfig("brightness", 0.1)})
		Consistently(source.applies, 100*time.Millisecond).ShouldNot(Receive())
		Expect(machine.Snapshot().Context).To(Equal(before))
	})

	It("loads presets", func() {
		start()
		Eventually(machine.State).Should(Equal(reconcile.StateReady))

		machine.Send(reconcile.LoadPreset{Name: "calm"})
		Eventually(func() string {
			e, _ := machine.Snapshot().Context.State.EffectAt(0)
			return e
		}).Should(Equal("police"))
	})

	It("goes to error when a preset cannot be applied", func() {
		start()
		Eventually(machine.State).Should(Equal(reconcile.StateReady))

		machine.Send(reconcile.LoadPreset{Name: "broken"})
		Eventually(machine.State).Should(Equal(reconcile.StateError))
	})

	It("keeps the later edit when the earlier apply completes last", func() {
		start()
		Eventually(machine.State).Should(Equal(reconcile.StateReady))

		first, ok := reconcile.EditField(machine.Snapshot().Context, 0, "brightness", 0.2)
		Expect(ok).To(BeTrue())
		machine.Send(first)
		var call1 applyCall
		Eventually(source.applies).Should(Receive(&call1))

		second, _ := reconcile.EditField(machine.Snapshot().Context, 0, "brightness", 0.8)
		machine.Send(second)
		var call2 applyCall
		Eventually(source.applies).Should(Receive(&call2))

		call2.release <- nil
		Eventually(brightness).Should(Equal(0.8))

		call1.release <- nil
		Consistently(brightness, 200*time.Millisecond).Should(Equal(0.8))
		Expect(machine.State()).To(Equal(reconcile.StateReady))
	})

	It("goes to error when an apply fails", func() {
		start()
		Eventually(machine.State).Should(Equal(reconcile.StateReady))

		msg, _ := reconcile.EditField(machine.Snapshot().Context, 0, "on", false)
		machine.Send(msg)
		var call applyCall
		Eventually(source.applies).Should(Receive(&call))
		call.release <- errors.New("write failed")

		Eventually(machine.State).Should(Equal(reconcile.StateError))
		Expect(configValue(machine.Snapshot().Context, "rainbow", "on")).To(Equal(true))
	})

	It("publishes snapshots to subscribers and closes them on stop", func() {
		start()
		updates := machine.Subscribe()

		snap, err := machine.WaitFor(context.Background(), func(s reconcile.Snapshot) bool { return s.State == reconcile.StateReady })
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Context.Presets).To(HaveLen(1))

		cancel()
		Eventually(stopped).Should(BeClosed())
		Eventually(updates).Should(BeClosed())
		Expect(machine.Send(reconcile.Retry{})).To(BeFalse())
	})

	It("drops the subscriptions WaitFor opens", func() {
		start()
		for range 3 {
			_, err := machine.WaitFor(context.Background(), func(s reconcile.Snapshot) bool { return s.State == reconcile.StateReady })
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(machine.Subscribers()).To(Equal(0))

		updates := machine.Subscribe()
		Expect(machine.Subscribers()).To(Equal(1))
		cancel()
		Eventually(updates).Should(BeClosed())
		Expect(machine.Subscribers()).To(Equal(0))
	})

	It("hands out snapshots that do not alias its context", func() {
		start()
		Eventually(machine.State).Should(Equal(reconcile.StateReady))

		snap := machine.Snapshot()
		delete(snap.Context.Effects, "rainbow")
		snap.Context.State.Effects[0].Effect = "police"

		Expect(machine.Snapshot().Context.Effects).To(HaveKey("rainbow"))
		e, _ := machine.Snapshot().Context.State.EffectAt(0)
		Expect(e).To(Equal("rainbow"))
	})
})
