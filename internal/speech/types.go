// Package speech adapts speech recognition and synthesis capabilities for a
// quiz session.
package speech

import "errors"

// Mode selects how transcripts are used.
type Mode string

const (
	// ModeMatch stops at the first final transcript and matches it to an option.
	ModeMatch Mode = "match"
	// ModeDictation keeps listening and appends each final segment to the answer text.
	ModeDictation Mode = "dictation"
)

// Status is the recognition lifecycle state shown to the user.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusListening Status = "listening"
	StatusError     Status = "error"
)

// EventKind is a recognition lifecycle signal.
type EventKind string

const (
	EventStart  EventKind = "start"
	EventResult EventKind = "result"
	EventError  EventKind = "error"
	EventEnd    EventKind = "end"
)

// ErrorKind names a recognition failure as reported by the engine.
type ErrorKind string

const (
	ErrorNoSpeech     ErrorKind = "no-speech"
	ErrorAborted      ErrorKind = "aborted"
	ErrorNotAllowed   ErrorKind = "not-allowed"
	ErrorAudioCapture ErrorKind = "audio-capture"
	ErrorNetwork      ErrorKind = "network"
)

// Benign errors are expected during normal use and are not shown to the user.
func (k ErrorKind) Benign() bool {
	return k == ErrorNoSpeech || k == ErrorAborted
}

// Event is reported by an engine for a recognition session.
type Event struct {
	SessionID  uint64
	Kind       EventKind
	Transcript string
	Final      bool
	Error      ErrorKind
}

var (
	ErrUnsupported      = errors.New("speech capability not supported")
	ErrAlreadyListening = errors.New("a recognition session is already active")
	// ErrAlreadyStarted is returned by engines that were started twice. Input
	// treats it as a successful start.
	ErrAlreadyStarted = errors.New("recognition has already started")
)
