package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	fieldSpeaker     = "speaker"
	fieldAutoAdvance = "auto_advance"
	fieldAutoMic     = "auto_mic"
)

// RedisStore keeps settings in one hash per client. Settings do not expire.
type RedisStore struct {
	client   *redis.Client
	defaults Settings
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, defaults Settings) *RedisStore {
	return &RedisStore{client: client, defaults: defaults}
}

func (s *RedisStore) key(clientID string) string {
	return "settings:" + clientID
}

// Load returns stored settings, falling back to defaults field by field.
func (s *RedisStore) Load(ctx context.Context, clientID string) (Settings, error) {
	if clientID == "" {
		return Settings{}, ErrEmptyClientID
	}
	fields, err := s.client.HGetAll(ctx, s.key(clientID)).Result()
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}

	out := s.defaults
	if err := readBool(fields, fieldSpeaker, &out.SpeakerEnabled); err != nil {
		return Settings{}, err
	}
	if err := readBool(fields, fieldAutoAdvance, &out.AutoAdvanceEnabled); err != nil {
		return Settings{}, err
	}
	if err := readBool(fields, fieldAutoMic, &out.AutoMicEnabled); err != nil {
		return Settings{}, err
	}
	return out, nil
}

func (s *RedisStore) Save(ctx context.Context, clientID string, settings Settings) error {
	if clientID == "" {
		return ErrEmptyClientID
	}
	err := s.client.HSet(ctx, s.key(clientID),
		fieldSpeaker, strconv.FormatBool(settings.SpeakerEnabled),
		fieldAutoAdvance, strconv.FormatBool(settings.AutoAdvanceEnabled),
		fieldAutoMic, strconv.FormatBool(settings.AutoMicEnabled),
	).Err()
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func readBool(fields map[string]string, name string, dst *bool) error {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("settings field %s: %w", name, err)
	}
	*dst = v
	return nil
}
