// Package settings persists the per-client feature toggles a session reads.
package settings

import (
	"context"
	"errors"
)

// Settings are the user-facing toggles consumed by a session at construction.
type Settings struct {
	SpeakerEnabled     bool `json:"speakerEnabled"`
	AutoAdvanceEnabled bool `json:"autoAdvanceEnabled"`
	AutoMicEnabled     bool `json:"autoMicEnabled"`
}

// Patch updates a subset of toggles. Nil fields are left unchanged.
type Patch struct {
	SpeakerEnabled     *bool `json:"speakerEnabled,omitempty"`
	AutoAdvanceEnabled *bool `json:"autoAdvanceEnabled,omitempty"`
	AutoMicEnabled     *bool `json:"autoMicEnabled,omitempty"`
}

// Defaults are used for clients that never saved settings.
func Defaults() Settings {
	return Settings{
		SpeakerEnabled:     true,
		AutoAdvanceEnabled: true,
		AutoMicEnabled:     false,
	}
}

// Apply returns s with the patch's non-nil fields applied.
func (s Settings) Apply(p Patch) Settings {
	if p.SpeakerEnabled != nil {
		s.SpeakerEnabled = *p.SpeakerEnabled
	}
	if p.AutoAdvanceEnabled != nil {
		s.AutoAdvanceEnabled = *p.AutoAdvanceEnabled
	}
	if p.AutoMicEnabled != nil {
		s.AutoMicEnabled = *p.AutoMicEnabled
	}
	return s
}

var ErrEmptyClientID = errors.New("client id is required")

// Store reads and writes settings keyed by client id.
type Store interface {
	Load(ctx context.Context, clientID string) (Settings, error)
	Save(ctx context.Context, clientID string, s Settings) error
}

// Update loads, patches and saves settings for a client.
func Update(ctx context.Context, store Store, clientID string, p Patch) (Settings, error) {
	current, err := store.Load(ctx, clientID)
	if err != nil {
		return Settings{}, err
	}
	next := current.Apply(p)
	if err := store.Save(ctx, clientID, next); err != nil {
		return Settings{}, err
	}
	return next, nil
}
