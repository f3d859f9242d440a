package speech

import "errors"

// Engine is a raw speech recognition capability. Implementations must deliver
// events asynchronously; calling back into the session from Start, Stop or
// Abort would block its event loop.
type Engine interface {
	Supported() bool
	Start(id uint64, mode Mode) error
	Stop(id uint64) error
	Abort(id uint64) error
}

// Input tracks the single active recognition session on top of an Engine.
// It is not safe for concurrent use; the session event loop owns it.
type Input struct {
	engine Engine

	nextID   uint64
	active   uint64
	mode     Mode
	draining uint64
	status   Status
}

func NewInput(engine Engine) *Input {
	if engine == nil {
		engine = Unsupported{}
	}
	return &Input{engine: engine, status: StatusIdle}
}

func (in *Input) Supported() bool {
	return in.engine.Supported()
}

func (in *Input) Status() Status {
	return in.status
}

// Active returns the running session id and mode.
func (in *Input) Active() (uint64, Mode, bool) {
	return in.active, in.mode, in.active != 0
}

// Start opens a new recognition session. Starting while a session is active
// is rejected and leaves the active session running.
func (in *Input) Start(mode Mode) (uint64, error) {
	if !in.engine.Supported() {
		return 0, ErrUnsupported
	}
	if in.active != 0 {
		return in.active, ErrAlreadyListening
	}

	in.nextID++
	id := in.nextID
	if err := in.engine.Start(id, mode); err != nil && !errors.Is(err, ErrAlreadyStarted) {
		in.status = StatusIdle
		return 0, err
	}
	in.active = id
	in.mode = mode
	in.status = StatusListening
	return id, nil
}

// Stop ends the active session gracefully. A trailing final result for it is
// still accepted until the engine reports the end.
func (in *Input) Stop() {
	if in.active == 0 {
		return
	}
	_ = in.engine.Stop(in.active)
	in.draining = in.active
	in.active = 0
	in.status = StatusIdle
}

// Abort ends the active session and discards anything it reports afterwards.
func (in *Input) Abort() {
	if in.active != 0 {
		_ = in.engine.Abort(in.active)
	}
	in.active = 0
	in.draining = 0
	in.status = StatusIdle
}

// Observe applies an engine event and reports whether it belongs to a live
// session. Events from aborted or superseded sessions are rejected.
func (in *Input) Observe(ev Event) bool {
	if ev.SessionID == 0 {
		return false
	}
	isActive := ev.SessionID == in.active
	isDraining := ev.SessionID == in.draining
	if !isActive && !isDraining {
		return false
	}

	switch ev.Kind {
	case EventStart:
		if !isActive {
			return false
		}
		in.status = StatusListening
	case EventResult:
	case EventError:
		if isActive {
			in.active = 0
			in.draining = ev.SessionID
		}
		// A draining session must not clobber the status of a newer one.
		if in.active != 0 {
			break
		}
		if ev.Error.Benign() {
			in.status = StatusIdle
		} else {
			in.status = StatusError
		}
	case EventEnd:
		if isActive {
			in.active = 0
		}
		in.draining = 0
		if in.active == 0 {
			in.status = StatusIdle
		}
	default:
		return false
	}
	return true
}
