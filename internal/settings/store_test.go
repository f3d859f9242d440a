package settings

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, Defaults()), mr
}

func boolPtr(v bool) *bool { return &v }

func TestRedisStoreDefaultsAndRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	got, err := store.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)

	want := Settings{SpeakerEnabled: false, AutoAdvanceEnabled: false, AutoMicEnabled: true}
	require.NoError(t, store.Save(ctx, "client-1", want))
	assert.True(t, mr.Exists("settings:client-1"))
	assert.Equal(t, "true", mr.HGet("settings:client-1", "auto_mic"))

	got, err = store.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisStorePartialHashUsesDefaults(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.HSet("settings:client-2", "auto_mic", "true")

	got, err := store.Load(context.Background(), "client-2")
	require.NoError(t, err)
	assert.True(t, got.SpeakerEnabled)
	assert.True(t, got.AutoAdvanceEnabled)
	assert.True(t, got.AutoMicEnabled)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.HSet("settings:client-3", "speaker", "maybe")

	_, err := store.Load(context.Background(), "client-3")
	assert.Error(t, err)
}

func TestStoresRejectEmptyClient(t *testing.T) {
	store, _ := newRedisStore(t)
	_, err := store.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyClientID)

	mem := NewMemoryStore(Defaults())
	assert.ErrorIs(t, mem.Save(context.Background(), "", Defaults()), ErrEmptyClientID)
}

func TestUpdateAppliesPatch(t *testing.T) {
	mem := NewMemoryStore(Defaults())
	ctx := context.Background()

	got, err := Update(ctx, mem, "c", Patch{AutoMicEnabled: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, Settings{SpeakerEnabled: true, AutoAdvanceEnabled: true, AutoMicEnabled: true}, got)

	got, err = Update(ctx, mem, "c", Patch{SpeakerEnabled: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, got.SpeakerEnabled)
	assert.True(t, got.AutoMicEnabled)

	loaded, err := mem.Load(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, got, loaded)
}
