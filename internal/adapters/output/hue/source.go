// Package hue uses a Philips Hue bridge as the editor's source of truth.
// Lights become segments each running their own effect, scenes become
// presets.
package hue

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/amimof/huego"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"led-effect-editor/internal/domain/model"
	"led-effect-editor/internal/domain/translator"
	"led-effect-editor/internal/ports"
)

// Bridge is the part of *huego.Bridge the source uses.
type Bridge interface {
	GetLightsContext(ctx context.Context) ([]huego.Light, error)
	SetLightStateContext(ctx context.Context, id int, state huego.State) (*huego.Response, error)
	GetScenesContext(ctx context.Context) ([]huego.Scene, error)
	RecallSceneContext(ctx context.Context, id string, gid int) (*huego.Response, error)
}

const effectPrefix = "light_"

type Source struct {
	bridge      Bridge
	group       int
	translators *translator.Factory
	logger      *zap.SugaredLogger

	mu     sync.RWMutex
	types  map[int]string
	scenes map[string]huego.Scene
	lights []int
}

var _ ports.EffectSource = (*Source)(nil)

// NewSource wraps bridge. Scenes are recalled on group.
func NewSource(bridge Bridge, group int, brightness translator.Formulas, logger *zap.SugaredLogger) *Source {
	return &Source{
		bridge:      bridge,
		group:       group,
		translators: translator.NewFactory(brightness),
		logger:      logger,
		types:       map[int]string{},
		scenes:      map[string]huego.Scene{},
	}
}

// Connect builds a Source for the bridge at host.
func Connect(host, user string, group int, brightness translator.Formulas, logger *zap.SugaredLogger) *Source {
	return NewSource(huego.New(host, user), group, brightness, logger)
}

// EffectName is the effect controlling the light with the given id.
func EffectName(lightID int) string {
	return effectPrefix + strconv.Itoa(lightID)
}

func lightID(effect string) (int, bool) {
	if !strings.HasPrefix(effect, effectPrefix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(effect, effectPrefix))
	return id, err == nil
}

func (s *Source) FetchInitialData(ctx context.Context) (*model.InitialData, error) {
	var (
		lights []huego.Light
		scenes []huego.Scene
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lights, err = s.bridge.GetLightsContext(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		scenes, err = s.bridge.GetScenesContext(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reading hue bridge: %w", err)
	}

	sort.Slice(lights, func(i, j int) bool { return lights[i].ID < lights[j].ID })

	data := &model.InitialData{
		Config:  model.NewConfig("group", s.group),
		Effects: make(map[string]model.EffectDescriptor, len(lights)),
	}
	segmentOf := make(map[int]int, len(lights))
	types := make(map[int]string, len(lights))
	ids := make([]int, 0, len(lights))
	for i, l := range lights {
		t := s.translators.GetTranslator(l.Type)
		name := EffectName(l.ID)
		data.Effects[name] = model.EffectDescriptor{
			Name:   name,
			Schema: t.Schema(),
			Config: t.ToConfig(l.State),
		}
		data.Segments = append(data.Segments, model.Segment{Strip: l.ID, Length: 1})
		data.State.Effects = append(data.State.Effects, model.SegmentEffectState{SegmentIndex: i, Effect: name})
		segmentOf[l.ID] = i
		types[l.ID] = l.Type
		ids = append(ids, l.ID)
	}

	sceneByName := make(map[string]huego.Scene, len(scenes))
	for _, sc := range scenes {
		preset := model.Preset{Name: sc.Name}
		for _, raw := range sc.Lights {
			id, err := strconv.Atoi(raw)
			if err != nil {
				continue
			}
			if idx, ok := segmentOf[id]; ok {
				preset.State.Effects = append(preset.State.Effects,
					model.SegmentEffectState{SegmentIndex: idx, Effect: EffectName(id)})
			}
		}
		data.Presets = append(data.Presets, preset)
		sceneByName[sc.Name] = sc
	}

	s.mu.Lock()
	s.types = types
	s.scenes = sceneByName
	s.lights = ids
	s.mu.Unlock()

	s.logger.Infow("Read hue bridge", "lights", len(lights), "scenes", len(scenes))
	return data, nil
}

// ApplyPreset recalls the scene called name. Every light keeps running its
// own effect, so the display state itself does not change.
func (s *Source) ApplyPreset(ctx context.Context, name string) (*model.DisplayState, error) {
	s.mu.RLock()
	scene, ok := s.scenes[name]
	ids := append([]int(nil), s.lights...)
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("scene %s: %w", name, model.ErrNotFound)
	}
	if _, err := s.bridge.RecallSceneContext(ctx, scene.ID, s.group); err != nil {
		return nil, fmt.Errorf("recalling scene %s: %w", name, err)
	}
	state := &model.DisplayState{}
	for i, id := range ids {
		state.Effects = append(state.Effects, model.SegmentEffectState{SegmentIndex: i, Effect: EffectName(id)})
	}
	return state, nil
}

func (s *Source) ApplyEffectConfig(ctx context.Context, effect string, config model.Config) error {
	id, ok := lightID(effect)
	if !ok {
		return fmt.Errorf("effect %s: %w", effect, model.ErrNotFound)
	}
	s.mu.RLock()
	lightType, known := s.types[id]
	s.mu.RUnlock()
	if !known {
		return fmt.Errorf("light %d: %w", id, model.ErrNotFound)
	}

	state := s.translators.GetTranslator(lightType).ToHue(config)
	if _, err := s.bridge.SetLightStateContext(ctx, id, *state); err != nil {
		return fmt.Errorf("setting light %d: %w", id, err)
	}
	return nil
}
