package ports

import (
	"context"
	"led-effect-editor/internal/domain/model"
)

// ControllerPort is what the controller exposes to its API.
type ControllerPort interface {
	Effects(ctx context.Context) (map[string]model.EffectDescriptor, error)
	Segments(ctx context.Context) ([]model.Segment, error)
	Presets(ctx context.Context) ([]model.Preset, error)
	DisplayState(ctx context.Context) (model.DisplayState, error)
	GlobalConfig(ctx context.Context) (model.Config, error)

	SetGlobalConfig(ctx context.Context, config model.Config) error
	SetEffectConfig(ctx context.Context, effect string, config model.Config) error
	AssignEffect(ctx context.Context, segment int, effect string) (model.DisplayState, error)

	LoadPreset(ctx context.Context, name string) (model.DisplayState, error)
	SavePreset(ctx context.Context, name string) (model.Preset, error)
}
