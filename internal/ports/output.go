package ports

import (
	"context"
	"led-effect-editor/internal/domain/model"
)

// EffectSource is the remote source of truth the editor reconciles against.
// Every call is a network round-trip and may fail.
type EffectSource interface {
	FetchInitialData(ctx context.Context) (*model.InitialData, error)
	ApplyPreset(ctx context.Context, name string) (*model.DisplayState, error)
	ApplyEffectConfig(ctx context.Context, effect string, config model.Config) error
}

// PresetSaver is implemented by sources that can snapshot the running state
// under a new preset name.
type PresetSaver interface {
	SavePreset(ctx context.Context, name string) error
}
