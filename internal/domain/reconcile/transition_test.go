package reconcile_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"led-effect-editor/internal/domain/model"
	"led-effect-editor/internal/domain/reconcile"
)

func rainbowSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"brightness": map[string]any{"type": "number"},
			"on":         map[string]any{"type": "boolean"},
		},
	}
}

func testData() model.InitialData {
	return model.InitialData{
		Config:   model.NewConfig("brightness", 1.0, "as_srgb", false),
		Segments: []model.Segment{{Strip: 0, Start: 0, Length: 149}, {Strip: 0, Start: 149, Length: 160}},
		Effects: map[string]model.EffectDescriptor{
			"rainbow": {Name: "rainbow", Schema: rainbowSchema(), Config: model.NewConfig("brightness", 0.5, "on", true)},
			"police":  {Name: "police", Schema: map[string]any{"type": "object"}, Config: model.NewConfig()},
		},
		Presets: []model.Preset{{Name: "calm"}},
		State: model.DisplayState{Effects: []model.SegmentEffectState{
			{SegmentIndex: 0, Effect: "rainbow"},
			{SegmentIndex: 1, Effect: "police"},
		}},
	}
}

// ready drives a fresh machine context to the ready state.
func ready() (reconcile.State, reconcile.Context) {
	s, c, reqs := reconcile.Init()
	seq := reqs[0].Sequence()
	s, c, _ = reconcile.Transition(s, c, reconcile.InitialDataLoaded{Seq: seq, Data: testData()})
	Expect(s).To(Equal(reconcile.StateReady))
	return s, c
}

func configValue(c reconcile.Context, effect, field string) any {
	v, _ := c.Effects[effect].Config.Get(field)
	return v
}

var _ = Describe("Transition", func() {
	Context("when starting", func() {
		It("is loading and requests the initial data", func() {
			s, _, reqs := reconcile.Init()
			Expect(s).To(Equal(reconcile.StateLoading))
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0]).To(BeAssignableToTypeOf(reconcile.FetchInitialData{}))
		})

		It("becomes ready with the fetched data", func() {
			_, c := ready()
			Expect(c.Effects).To(HaveKey("rainbow"))
			Expect(c.Segments).To(HaveLen(2))
			Expect(c.Presets).To(HaveLen(1))
			Expect(c.State.Effects).To(HaveLen(2))
		})

		It("goes to error when the fetch fails", func() {
			s, c, reqs := reconcile.Init()
			s, _, next := reconcile.Transition(s, c, reconcile.RequestFailed{Request: reqs[0], Err: errors.New("boom")})
			Expect(s).To(Equal(reconcile.StateError))
			Expect(next).To(BeEmpty())
		})

		It("ignores a load result that does not match the outstanding fetch", func() {
			s, c, reqs := reconcile.Init()
			s, c, _ = reconcile.Transition(s, c, reconcile.InitialDataLoaded{Seq: reqs[0].Sequence() + 7, Data: testData()})
			Expect(s).To(Equal(reconcile.StateLoading))
			Expect(c.Effects).To(BeEmpty())
		})
	})

	Context("when in error", func() {
		var (
			s reconcile.State
			c reconcile.Context
		)

		BeforeEach(func() {
			var reqs []reconcile.Request
			s, c, reqs = reconcile.Init()
			s, c, _ = reconcile.Transition(s, c, reconcile.RequestFailed{Request: reqs[0], Err: errors.New("boom")})
			Expect(s).To(Equal(reconcile.StateError))
		})

		It("reloads on retry", func() {
			next, _, reqs := reconcile.Transition(s, c, reconcile.Retry{})
			Expect(next).To(Equal(reconcile.StateLoading))
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0]).To(BeAssignableToTypeOf(reconcile.FetchInitialData{}))
		})

		It("ignores editing messages", func() {
			for _, msg := range []reconcile.Message{
				reconcile.LoadPreset{Name: "calm"},
				reconcile.SetEffectConfig{Index: 0, Effect: "rainbow", Config: model.NewConfig("brightness", 0.1)},
			} {
				next, nc, reqs := reconcile.Transition(s, c, msg)
				Expect(next).To(Equal(reconcile.StateError))
				Expect(nc).To(Equal(c))
				Expect(reqs).To(BeEmpty())
			}
		})

		It("drops results of requests from before the retry", func() {
			_, c2, reqs := reconcile.Transition(s, c, reconcile.Retry{})
			s2, c2, _ := reconcile.Transition(reconcile.StateLoading, c2, reconcile.InitialDataLoaded{Seq: reqs[0].Sequence(), Data: testData()})
			Expect(s2).To(Equal(reconcile.StateReady))

			stale := reconcile.EffectConfigApplied{Seq: 1, Effect: "rainbow", Config: model.NewConfig("brightness", 0.9, "on", true)}
			s3, c3, _ := reconcile.Transition(s2, c2, stale)
			Expect(s3).To(Equal(reconcile.StateReady))
			Expect(configValue(c3, "rainbow", "brightness")).To(Equal(0.5))

			s4, _, _ := reconcile.Transition(s2, c2, reconcile.RequestFailed{Request: reconcile.ApplyEffectConfig{Seq: 1, Effect: "rainbow"}, Err: errors.New("late")})
			Expect(s4).To(Equal(reconcile.StateReady))
		})
	})

	Context("when loading", func() {
		It("ignores editing messages and retry", func() {
			s, c, _ := reconcile.Init()
			for _, msg := range []reconcile.Message{
				reconcile.Retry{},
				reconcile.LoadPreset{Name: "calm"},
				reconcile.SetEffectConfig{Index: 0, Effect: "rainbow", Config: model.NewConfig()},
				reconcile.EffectConfigApplied{Seq: 1, Effect: "rainbow"},
			} {
				next, nc, reqs := reconcile.Transition(s, c, msg)
				Expect(next).To(Equal(reconcile.StateLoading))
				Expect(nc).To(Equal(c))
				Expect(reqs).To(BeEmpty())
			}
		})
	})

	Context("when ready", func() {
		var (
			s reconcile.State
			c reconcile.Context
		)

		BeforeEach(func() {
			s, c = ready()
		})

		It("ignores retry", func() {
			next, _, reqs := reconcile.Transition(s, c, reconcile.Retry{})
			Expect(next).To(Equal(reconcile.StateReady))
			Expect(reqs).To(BeEmpty())
		})

		It("requests a preset and replaces the display state when it is applied", func() {
			_, c1, reqs := reconcile.Transition(s, c, reconcile.LoadPreset{Name: "calm"})
			Expect(reqs).To(HaveLen(1))
			req := reqs[0].(reconcile.ApplyPreset)
			Expect(req.Name).To(Equal("calm"))

			applied := model.DisplayState{Effects: []model.SegmentEffectState{{SegmentIndex: 0, Effect: "police"}}}
			next, c2, _ := reconcile.Transition(s, c1, reconcile.PresetApplied{Seq: req.Seq, Name: "calm", State: applied})
			Expect(next).To(Equal(reconcile.StateReady))
			Expect(c2.State).To(Equal(applied))
			Expect(c.State.Effects).To(HaveLen(2), "previous context must not change")
		})

		It("goes to error when a preset fails", func() {
			_, c1, reqs := reconcile.Transition(s, c, reconcile.LoadPreset{Name: "calm"})
			next, _, _ := reconcile.Transition(s, c1, reconcile.RequestFailed{Request: reqs[0], Err: errors.New("nope")})
			Expect(next).To(Equal(reconcile.StateError))
		})

		It("keeps the newest preset when responses arrive out of order", func() {
			_, c1, r1 := reconcile.Transition(s, c, reconcile.LoadPreset{Name: "first"})
			_, c2, r2 := reconcile.Transition(s, c1, reconcile.LoadPreset{Name: "second"})

			second := model.DisplayState{Effects: []model.SegmentEffectState{{SegmentIndex: 0, Effect: "police"}}}
			first := model.DisplayState{Effects: []model.SegmentEffectState{{SegmentIndex: 0, Effect: "rainbow"}}}

			_, c3, _ := reconcile.Transition(s, c2, reconcile.PresetApplied{Seq: r2[0].Sequence(), State: second})
			_, c4, _ := reconcile.Transition(s, c3, reconcile.PresetApplied{Seq: r1[0].Sequence(), State: first})
			Expect(c4.State).To(Equal(second))

			next, _, _ := reconcile.Transition(s, c3, reconcile.RequestFailed{Request: r1[0], Err: errors.New("late")})
			Expect(next).To(Equal(reconcile.StateReady))
		})

		It("requests the proposed config and commits it on success", func() {
			msg, ok := reconcile.EditField(c, 0, "brightness", 0.25)
			Expect(ok).To(BeTrue())

			_, c1, reqs := reconcile.Transition(s, c, msg)
			Expect(reqs).To(HaveLen(1))
			req := reqs[0].(reconcile.ApplyEffectConfig)
			Expect(req.Effect).To(Equal("rainbow"))
			Expect(configValue(c1, "rainbow", "brightness")).To(Equal(0.5), "not committed before the ack")

			_, c2, _ := reconcile.Transition(s, c1, reconcile.EffectConfigApplied{Seq: req.Seq, Effect: req.Effect, Config: req.Config})
			Expect(configValue(c2, "rainbow", "brightness")).To(Equal(0.25))
			Expect(configValue(c2, "rainbow", "on")).To(Equal(true))
			Expect(configValue(c1, "rainbow", "brightness")).To(Equal(0.5), "previous context must not change")
		})

		It("goes to error when an effect config fails", func() {
			msg, _ := reconcile.EditField(c, 0, "on", false)
			_, c1, reqs := reconcile.Transition(s, c, msg)
			next, _, _ := reconcile.Transition(s, c1, reconcile.RequestFailed{Request: reqs[0], Err: errors.New("nope")})
			Expect(next).To(Equal(reconcile.StateError))
		})

		It("ignores edits for a segment that runs another effect", func() {
			next, nc, reqs := reconcile.Transition(s, c, reconcile.SetEffectConfig{Index: 1, Effect: "rainbow", Config: model.NewConfig("brightness", 0.1)})
			Expect(next).To(Equal(reconcile.StateReady))
			Expect(nc).To(Equal(c))
			Expect(reqs).To(BeEmpty())

			_, _, reqs = reconcile.Transition(s, c, reconcile.SetEffectConfig{Index: 9, Effect: "rainbow", Config: model.NewConfig()})
			Expect(reqs).To(BeEmpty())
		})

		It("keeps the later edit when its response arrives first", func() {
			m1, _ := reconcile.EditField(c, 0, "brightness", 0.2)
			_, c1, r1 := reconcile.Transition(s, c, m1)
			m2, _ := reconcile.EditField(c1, 0, "brightness", 0.8)
			_, c2, r2 := reconcile.Transition(s, c1, m2)

			a1 := r1[0].(reconcile.ApplyEffectConfig)
			a2 := r2[0].(reconcile.ApplyEffectConfig)
			Expect(a2.Seq).To(BeNumerically(">", a1.Seq))

			_, c3, _ := reconcile.Transition(s, c2, reconcile.EffectConfigApplied{Seq: a2.Seq, Effect: a2.Effect, Config: a2.Config})
			_, c4, _ := reconcile.Transition(s, c3, reconcile.EffectConfigApplied{Seq: a1.Seq, Effect: a1.Effect, Config: a1.Config})
			Expect(configValue(c4, "rainbow", "brightness")).To(Equal(0.8))

			next, _, _ := reconcile.Transition(s, c3, reconcile.RequestFailed{Request: a1, Err: errors.New("late")})
			Expect(next).To(Equal(reconcile.StateReady))
		})

		It("reports when a request has settled", func() {
			next := c.Issued() + 1
			_, c1, reqs := reconcile.Transition(s, c, reconcile.LoadPreset{Name: "calm"})
			Expect(reqs[0].Sequence()).To(Equal(next))
			Expect(c1.PresetSettled(next)).To(BeFalse())

			_, c2, _ := reconcile.Transition(s, c1, reconcile.PresetApplied{Seq: next, State: c.State})
			Expect(c2.PresetSettled(next)).To(BeTrue())

			m, _ := reconcile.EditField(c2, 0, "on", false)
			_, c3, reqs := reconcile.Transition(s, c2, m)
			a := reqs[0].(reconcile.ApplyEffectConfig)
			Expect(c3.EffectSettled("rainbow", a.Seq)).To(BeFalse())
			_, c4, _ := reconcile.Transition(s, c3, reconcile.EffectConfigApplied{Seq: a.Seq, Effect: a.Effect, Config: a.Config})
			Expect(c4.EffectSettled("rainbow", a.Seq)).To(BeTrue())
		})

		It("commits edits in arrival order when they arrive in issue order", func() {
			m1, _ := reconcile.EditField(c, 0, "brightness", 0.2)
			_, c1, r1 := reconcile.Transition(s, c, m1)
			m2, _ := reconcile.EditField(c1, 0, "brightness", 0.8)
			_, c2, r2 := reconcile.Transition(s, c1, m2)

			a1 := r1[0].(reconcile.ApplyEffectConfig)
			a2 := r2[0].(reconcile.ApplyEffectConfig)
			_, c3, _ := reconcile.Transition(s, c2, reconcile.EffectConfigApplied{Seq: a1.Seq, Effect: a1.Effect, Config: a1.Config})
			Expect(configValue(c3, "rainbow", "brightness")).To(Equal(0.2))
			_, c4, _ := reconcile.Transition(s, c3, reconcile.EffectConfigApplied{Seq: a2.Seq, Effect: a2.Effect, Config: a2.Config})
			Expect(configValue(c4, "rainbow", "brightness")).To(Equal(0.8))
		})
	})
})

var _ = Describe("EditField", func() {
	It("patches only the named field", func() {
		_, c := ready()
		msg, ok := reconcile.EditField(c, 0, "on", false)
		Expect(ok).To(BeTrue())
		Expect(msg.Effect).To(Equal("rainbow"))
		Expect(msg.Config.Keys()).To(Equal([]string{"brightness", "on"}))
		v, _ := msg.Config.Get("brightness")
		Expect(v).To(Equal(0.5))
	})

	It("refuses unknown fields and segments", func() {
		_, c := ready()
		_, ok := reconcile.EditField(c, 0, "nope", 1)
		Expect(ok).To(BeFalse())
		_, ok = reconcile.EditField(c, 5, "on", true)
		Expect(ok).To(BeFalse())
	})
})
