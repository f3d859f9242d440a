package speech

// Synthesizer is a text-to-speech capability. Cancel must be safe when idle.
type Synthesizer interface {
	Supported() bool
	Speak(text string) error
	Cancel() error
}

// Output keeps at most one utterance audible by canceling before each new one.
type Output struct {
	synth Synthesizer
}

func NewOutput(synth Synthesizer) *Output {
	if synth == nil {
		synth = Unsupported{}
	}
	return &Output{synth: synth}
}

func (o *Output) Supported() bool {
	return o.synth.Supported()
}

// Say cancels any current utterance and speaks text.
func (o *Output) Say(text string) error {
	if !o.synth.Supported() {
		return ErrUnsupported
	}
	o.Cancel()
	return o.synth.Speak(text)
}

// Cancel silences the current utterance, if any.
func (o *Output) Cancel() {
	if !o.synth.Supported() {
		return
	}
	_ = o.synth.Cancel()
}
