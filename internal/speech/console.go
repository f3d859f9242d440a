package speech

import (
	"fmt"
	"io"
	"sync"
)

// LineEngine treats typed lines as transcripts while a session is listening.
// It backs the console player.
type LineEngine struct {
	mu     sync.Mutex
	active uint64
	mode   Mode
	emit   func(Event)
}

func NewLineEngine(emit func(Event)) *LineEngine {
	return &LineEngine{emit: emit}
}

func (e *LineEngine) Supported() bool { return true }

func (e *LineEngine) Start(id uint64, mode Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != 0 {
		return ErrAlreadyStarted
	}
	e.active = id
	e.mode = mode
	return nil
}

func (e *LineEngine) Stop(id uint64) error {
	e.finish(id, "")
	return nil
}

func (e *LineEngine) Abort(id uint64) error {
	e.finish(id, ErrorAborted)
	return nil
}

func (e *LineEngine) finish(id uint64, kind ErrorKind) {
	e.mu.Lock()
	if e.active != id {
		e.mu.Unlock()
		return
	}
	e.active = 0
	e.mu.Unlock()

	go func() {
		if kind != "" {
			e.emit(Event{SessionID: id, Kind: EventError, Error: kind})
		}
		e.emit(Event{SessionID: id, Kind: EventEnd})
	}()
}

// Listening reports whether a line would be consumed as a transcript.
func (e *LineEngine) Listening() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != 0
}

// Deliver feeds a line as a final transcript. It returns false when no
// session is listening. Must not be called from the session event loop.
func (e *LineEngine) Deliver(line string) bool {
	e.mu.Lock()
	id, mode := e.active, e.mode
	if id == 0 {
		e.mu.Unlock()
		return false
	}
	if mode == ModeMatch {
		e.active = 0
	}
	e.mu.Unlock()

	e.emit(Event{SessionID: id, Kind: EventResult, Transcript: line, Final: true})
	if mode == ModeMatch {
		e.emit(Event{SessionID: id, Kind: EventEnd})
	}
	return true
}

// WriterSynthesizer prints utterances instead of speaking them.
type WriterSynthesizer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriterSynthesizer(out io.Writer) *WriterSynthesizer {
	return &WriterSynthesizer{out: out}
}

func (s *WriterSynthesizer) Supported() bool { return true }

func (s *WriterSynthesizer) Speak(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "[speaker] %s\n", text)
	return err
}

func (s *WriterSynthesizer) Cancel() error { return nil }
