package ws

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestHubReplacesClientConnection(t *testing.T) {
	hub := NewHub(zerolog.New(io.Discard))
	first := NewConnection(nil, zerolog.New(io.Discard))
	second := NewConnection(nil, zerolog.New(io.Discard))

	hub.RegisterConnection("c1", first)
	hub.RegisterConnection("c1", second)
	assert.Equal(t, 1, hub.Count())
	assert.ErrorIs(t, first.Send(Message{Type: TypeNotice}), ErrConnectionClosed)
	assert.NoError(t, second.Send(Message{Type: TypeNotice}))

	// Unregistering the replaced connection leaves the current one in place.
	hub.UnregisterConnection("c1", first)
	assert.Equal(t, 1, hub.Count())

	hub.UnregisterConnection("c1", second)
	assert.Equal(t, 0, hub.Count())
	assert.ErrorIs(t, second.Send(Message{Type: TypeNotice}), ErrConnectionClosed)
}

func TestConnectionSendQueueFull(t *testing.T) {
	conn := NewConnection(nil, zerolog.New(io.Discard))
	for i := 0; i < cap(conn.sendCh); i++ {
		assert.NoError(t, conn.Send(Message{Type: TypeNotice}))
	}
	assert.ErrorIs(t, conn.Send(Message{Type: TypeNotice}), ErrSendQueueFull)

	conn.Close()
	conn.Close()
}
