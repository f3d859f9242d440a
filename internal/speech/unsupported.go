package speech

// Unsupported stands in for a client without speech capabilities.
type Unsupported struct{}

var (
	_ Engine      = Unsupported{}
	_ Synthesizer = Unsupported{}
)

func (Unsupported) Supported() bool { return false }
func (Unsupported) Start(uint64, Mode) error { return ErrUnsupported }
func (Unsupported) Stop(uint64) error { return nil }
func (Unsupported) Abort(uint64) error { return nil }
func (Unsupported) Speak(string) error { return ErrUnsupported }
func (Unsupported) Cancel() error { return nil }
