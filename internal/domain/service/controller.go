// Package service implements the simulated controller.
package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"led-effect-editor/internal/domain/catalog"
	"led-effect-editor/internal/domain/model"
	"led-effect-editor/internal/ports"
)

// ControllerService is the simulated controller's source of truth. State is
// held in memory and written through to the store.
type ControllerService struct {
	store   ports.ControllerStore
	logger  *zap.SugaredLogger
	catalog map[string]catalog.Effect

	mu      sync.RWMutex
	configs map[string]model.Config
	presets []model.Preset
	state   model.DisplayState
	global  model.Config
}

var _ ports.ControllerPort = (*ControllerService)(nil)

// NewControllerService loads persisted state, falling back to the built-in
// catalog's defaults for anything never stored.
func NewControllerService(ctx context.Context, store ports.ControllerStore, logger *zap.SugaredLogger) (*ControllerService, error) {
	s := &ControllerService{
		store:   store,
		logger:  logger,
		catalog: catalog.Effects(),
		configs: make(map[string]model.Config),
	}
	for name, e := range s.catalog {
		cfg, found, err := store.LoadEffectConfig(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("loading config of %s: %w", name, err)
		}
		if !found {
			cfg = e.Defaults
		}
		s.configs[name] = cfg
	}

	presets, err := store.ListPresets(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading presets: %w", err)
	}
	s.presets = mergePresets(catalog.DefaultPresets(), presets)

	state, found, err := store.LoadDisplayState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading display state: %w", err)
	}
	if !found {
		state = catalog.DefaultState()
	}
	s.state = state

	global, found, err := store.LoadGlobalConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading controller config: %w", err)
	}
	if !found {
		global = catalog.DefaultGlobalConfig()
	}
	s.global = global

	logger.Infow("Controller ready", "effects", len(s.catalog), "presets", len(s.presets))
	return s, nil
}

// mergePresets overlays stored presets on the defaults by name.
func mergePresets(defaults, stored []model.Preset) []model.Preset {
	out := append([]model.Preset(nil), defaults...)
	for _, p := range stored {
		out = upsertPreset(out, p)
	}
	return out
}

func upsertPreset(presets []model.Preset, p model.Preset) []model.Preset {
	for i := range presets {
		if presets[i].Name == p.Name {
			presets[i] = p
			return presets
		}
	}
	return append(presets, p)
}

func (s *ControllerService) Effects(ctx context.Context) (map[string]model.EffectDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.EffectDescriptor, len(s.catalog))
	for name, e := range s.catalog {
		out[name] = e.Descriptor(s.configs[name])
	}
	return out, nil
}

func (s *ControllerService) Segments(ctx context.Context) ([]model.Segment, error) {
	return catalog.Segments(), nil
}

func (s *ControllerService) Presets(ctx context.Context) ([]model.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Preset, len(s.presets))
	for i, p := range s.presets {
		out[i] = model.Preset{Name: p.Name, State: p.State.Clone()}
	}
	return out, nil
}

func (s *ControllerService) DisplayState(ctx context.Context) (model.DisplayState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), nil
}

func (s *ControllerService) GlobalConfig(ctx context.Context) (model.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.global, nil
}

func (s *ControllerService) SetGlobalConfig(ctx context.Context, config model.Config) error {
	for _, k := range config.Keys() {
		if !catalog.DefaultGlobalConfig().Has(k) {
			return fmt.Errorf("%w: unknown controller setting %q", model.ErrInvalidConfig, k)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveGlobalConfig(ctx, config); err != nil {
		return err
	}
	s.global = config
	return nil
}

// SetEffectConfig replaces an effect's parameters. Keys the effect's schema
// does not declare are rejected.
func (s *ControllerService) SetEffectConfig(ctx context.Context, effect string, config model.Config) error {
	e, ok := s.catalog[effect]
	if !ok {
		return fmt.Errorf("effect %s: %w", effect, model.ErrNotFound)
	}
	for _, k := range config.Keys() {
		if !e.Has(k) {
			return fmt.Errorf("%w: %s has no parameter %q", model.ErrInvalidConfig, effect, k)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveEffectConfig(ctx, effect, config); err != nil {
		return err
	}
	s.configs[effect] = config
	s.logger.Debugw("Effect config updated", "effect", effect, "keys", config.Keys())
	return nil
}

func (s *ControllerService) AssignEffect(ctx context.Context, segment int, effect string) (model.DisplayState, error) {
	if _, ok := s.catalog[effect]; !ok {
		return model.DisplayState{}, fmt.Errorf("effect %s: %w", effect, model.ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Clone()
	found := false
	for i := range next.Effects {
		if next.Effects[i].SegmentIndex == segment {
			next.Effects[i].Effect = effect
			found = true
		}
	}
	if !found {
		return model.DisplayState{}, fmt.Errorf("segment %d: %w", segment, model.ErrNotFound)
	}
	if err := s.store.SaveDisplayState(ctx, next); err != nil {
		return model.DisplayState{}, err
	}
	s.state = next
	return next.Clone(), nil
}

func (s *ControllerService) LoadPreset(ctx context.Context, name string) (model.DisplayState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.presets {
		if p.Name != name {
			continue
		}
		next := p.State.Clone()
		for _, e := range next.Effects {
			if _, ok := s.catalog[e.Effect]; !ok {
				return model.DisplayState{}, fmt.Errorf("%w: preset %s runs unknown effect %s", model.ErrInvalidConfig, name, e.Effect)
			}
		}
		if err := s.store.SaveDisplayState(ctx, next); err != nil {
			return model.DisplayState{}, err
		}
		s.state = next
		s.logger.Infow("Preset loaded", "preset", name)
		return next.Clone(), nil
	}
	return model.DisplayState{}, fmt.Errorf("preset %s: %w", name, model.ErrNotFound)
}

// SavePreset stores the running display state under name, replacing any
// preset of the same name.
func (s *ControllerService) SavePreset(ctx context.Context, name string) (model.Preset, error) {
	if name == "" {
		return model.Preset{}, fmt.Errorf("%w: preset name is empty", model.ErrInvalidConfig)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := model.Preset{Name: name, State: s.state.Clone()}
	if err := s.store.SavePreset(ctx, p); err != nil {
		return model.Preset{}, err
	}
	s.presets = upsertPreset(s.presets, p)
	s.logger.Infow("Preset saved", "preset", name)
	return model.Preset{Name: name, State: p.State.Clone()}, nil
}
