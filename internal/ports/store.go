package ports

import (
	"context"
	"led-effect-editor/internal/domain/model"
)

// ControllerStore persists the controller's state. Load methods report
// found=false rather than an error when nothing was stored yet.
type ControllerStore interface {
	LoadEffectConfig(ctx context.Context, effect string) (config model.Config, found bool, err error)
	SaveEffectConfig(ctx context.Context, effect string, config model.Config) error

	ListPresets(ctx context.Context) ([]model.Preset, error)
	SavePreset(ctx context.Context, preset model.Preset) error

	LoadDisplayState(ctx context.Context) (state model.DisplayState, found bool, err error)
	SaveDisplayState(ctx context.Context, state model.DisplayState) error

	LoadGlobalConfig(ctx context.Context) (config model.Config, found bool, err error)
	SaveGlobalConfig(ctx context.Context, config model.Config) error
}
