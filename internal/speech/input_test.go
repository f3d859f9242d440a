package speech

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEngine struct {
	supported bool
	startErr  error
	started   []uint64
	stopped   []uint64
	aborted   []uint64
}

func (e *recordingEngine) Supported() bool { return e.supported }

func (e *recordingEngine) Start(id uint64, _ Mode) error {
	e.started = append(e.started, id)
	return e.startErr
}

func (e *recordingEngine) Stop(id uint64) error {
	e.stopped = append(e.stopped, id)
	return nil
}

func (e *recordingEngine) Abort(id uint64) error {
	e.aborted = append(e.aborted, id)
	return nil
}

func TestInputSingleActiveSession(t *testing.T) {
	engine := &recordingEngine{supported: true}
	in := NewInput(engine)

	id, err := in.Start(ModeMatch)
	require.NoError(t, err)
	assert.Equal(t, StatusListening, in.Status())

	again, err := in.Start(ModeDictation)
	assert.ErrorIs(t, err, ErrAlreadyListening)
	assert.Equal(t, id, again)
	assert.Len(t, engine.started, 1)

	active, mode, ok := in.Active()
	require.True(t, ok)
	assert.Equal(t, id, active)
	assert.Equal(t, ModeMatch, mode)
}

func TestInputUnsupported(t *testing.T) {
	in := NewInput(nil)
	assert.False(t, in.Supported())
	_, err := in.Start(ModeMatch)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestInputAlreadyStartedIsListening(t *testing.T) {
	in := NewInput(&recordingEngine{supported: true, startErr: ErrAlreadyStarted})
	_, err := in.Start(ModeMatch)
	require.NoError(t, err)
	assert.Equal(t, StatusListening, in.Status())
}

func TestInputStartFailureResetsToIdle(t *testing.T) {
	in := NewInput(&recordingEngine{supported: true, startErr: errors.New("permission denied")})
	_, err := in.Start(ModeMatch)
	require.Error(t, err)
	assert.Equal(t, StatusIdle, in.Status())
	_, _, ok := in.Active()
	assert.False(t, ok)
}

func TestInputErrorClassification(t *testing.T) {
	in := NewInput(&recordingEngine{supported: true})

	id, _ := in.Start(ModeMatch)
	require.True(t, in.Observe(Event{SessionID: id, Kind: EventError, Error: ErrorNoSpeech}))
	assert.Equal(t, StatusIdle, in.Status())
	require.True(t, in.Observe(Event{SessionID: id, Kind: EventEnd}))
	assert.Equal(t, StatusIdle, in.Status())

	id, _ = in.Start(ModeMatch)
	require.True(t, in.Observe(Event{SessionID: id, Kind: EventError, Error: ErrorNotAllowed}))
	assert.Equal(t, StatusError, in.Status())
	require.True(t, in.Observe(Event{SessionID: id, Kind: EventEnd}))
	assert.Equal(t, StatusIdle, in.Status())
}

func TestInputStaleEventsRejected(t *testing.T) {
	engine := &recordingEngine{supported: true}
	in := NewInput(engine)

	first, _ := in.Start(ModeMatch)
	in.Abort()
	assert.Equal(t, []uint64{first}, engine.aborted)
	assert.False(t, in.Observe(Event{SessionID: first, Kind: EventResult, Transcript: "late", Final: true}))

	second, _ := in.Start(ModeMatch)
	assert.NotEqual(t, first, second)
	assert.False(t, in.Observe(Event{SessionID: first, Kind: EventEnd}))
	assert.Equal(t, StatusListening, in.Status())
}

func TestInputStopAcceptsTrailingResult(t *testing.T) {
	engine := &recordingEngine{supported: true}
	in := NewInput(engine)

	id, _ := in.Start(ModeDictation)
	in.Stop()
	assert.Equal(t, []uint64{id}, engine.stopped)
	assert.Equal(t, StatusIdle, in.Status())

	assert.True(t, in.Observe(Event{SessionID: id, Kind: EventResult, Transcript: "tail", Final: true}))
	assert.True(t, in.Observe(Event{SessionID: id, Kind: EventEnd}))
	assert.False(t, in.Observe(Event{SessionID: id, Kind: EventResult, Transcript: "after end", Final: true}))
}

func TestBenignErrors(t *testing.T) {
	assert.True(t, ErrorNoSpeech.Benign())
	assert.True(t, ErrorAborted.Benign())
	assert.False(t, ErrorNetwork.Benign())
	assert.False(t, ErrorKind("audio-capture").Benign())
}

func TestInputDrainingErrorKeepsNewSessionStatus(t *testing.T) {
	in := NewInput(&recordingEngine{supported: true})

	first, _ := in.Start(ModeMatch)
	in.Stop()
	second, err := in.Start(ModeMatch)
	require.NoError(t, err)

	assert.True(t, in.Observe(Event{SessionID: first, Kind: EventError, Error: ErrorNetwork}))
	assert.True(t, in.Observe(Event{SessionID: first, Kind: EventEnd}))

	active, _, ok := in.Active()
	require.True(t, ok)
	assert.Equal(t, second, active)
	assert.Equal(t, StatusListening, in.Status())
}
