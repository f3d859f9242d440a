package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gokatarajesh/quizwhiz/internal/matcher"
	"github.com/gokatarajesh/quizwhiz/internal/metrics"
	"github.com/gokatarajesh/quizwhiz/internal/quiz"
	"github.com/gokatarajesh/quizwhiz/internal/speech"
)

var (
	noticeMicUnavailable = Notice{
		Level:   NoticeError,
		Title:   "Speech Recognition Not Available",
		Message: "Cannot start microphone. This feature may not be supported by your browser.",
	}
	noticeTTSUnavailable = Notice{
		Level:   NoticeError,
		Title:   "Feature Not Supported",
		Message: "Text-to-speech is not supported in your browser.",
	}
)

// StartListening opens a manual recognition session for the current question.
// Manual sessions have no listening window.
func (c *Controller) StartListening() (View, error) {
	var err error
	v := c.do(func() {
		err = c.startListening(false)
	})
	return v, err
}

// StopListening ends the active recognition session.
func (c *Controller) StopListening() View {
	return c.do(c.stopListening)
}

// ToggleListening starts recognition when idle and stops it when listening.
func (c *Controller) ToggleListening() (View, error) {
	var err error
	v := c.do(func() {
		if _, _, active := c.input.Active(); active {
			c.stopListening()
			return
		}
		err = c.startListening(false)
	})
	return v, err
}

// ReadAloud speaks text, or the current question when text is empty.
func (c *Controller) ReadAloud(text string) (View, error) {
	var err error
	v := c.do(func() {
		if !c.output.Supported() {
			c.notify(noticeTTSUnavailable)
			err = speech.ErrUnsupported
			return
		}
		if strings.TrimSpace(text) == "" {
			_, q := c.current()
			text = spokenPrompt(q)
		}
		err = c.output.Say(text)
	})
	return v, err
}

// ReadQuestion speaks the current question and its options.
func (c *Controller) ReadQuestion() (View, error) {
	return c.ReadAloud("")
}

// HandleRecognition applies an event reported by the speech engine.
func (c *Controller) HandleRecognition(ev speech.Event) View {
	return c.do(func() {
		c.handleRecognition(ev)
	})
}

func (c *Controller) startListening(auto bool) error {
	if c.st.completed {
		return ErrSessionCompleted
	}
	if !c.input.Supported() {
		if !auto {
			c.notify(noticeMicUnavailable)
		}
		return speech.ErrUnsupported
	}
	rec, q := c.current()
	if rec.Finalized {
		return ErrAlreadyAnswered
	}
	if c.st.pending {
		return ErrSubmissionPending
	}

	mode := speech.ModeMatch
	if q.IsSubjective() {
		mode = speech.ModeDictation
	}
	id, err := c.input.Start(mode)
	if errors.Is(err, speech.ErrAlreadyListening) {
		return err
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("could not start recognition")
		c.notify(Notice{
			Level:   NoticeError,
			Title:   "Microphone Error",
			Message: fmt.Sprintf("Could not start microphone. %v. Please check permissions.", err),
		})
		return err
	}

	if auto {
		c.armNoSpeech(id)
	}
	return nil
}

func (c *Controller) stopListening() {
	c.stopNoSpeech()
	c.st.interim = ""
	c.input.Stop()
}

// armNoSpeech bounds an auto-started session. When it fires without a final
// result, recognition is aborted and control returns to the user.
func (c *Controller) armNoSpeech(id uint64) {
	c.stopNoSpeech()
	epoch := c.st.epoch
	c.st.noSpeechAt = c.clock.Now().Add(c.cfg.AutoMicWindow)
	c.st.noSpeech = c.clock.AfterFunc(c.cfg.AutoMicWindow, func() {
		c.post(func() {
			active, _, ok := c.input.Active()
			if epoch != c.st.epoch || !ok || active != id {
				return
			}
			c.st.noSpeech = nil
			c.st.noSpeechAt = time.Time{}
			c.st.interim = ""
			c.input.Abort()
			c.logger.Debug().Uint64("recognition_id", id).Msg("auto-mic window expired")
			c.publish()
		})
	})
}

func (c *Controller) handleRecognition(ev speech.Event) {
	if !c.input.Observe(ev) {
		return
	}

	switch ev.Kind {
	case speech.EventResult:
		if !ev.Final {
			if !c.superseded(ev.SessionID) {
				c.st.interim = ev.Transcript
			}
			return
		}
		if c.superseded(ev.SessionID) {
			c.applyTranscript(ev.Transcript)
			return
		}
		c.st.interim = ""
		c.stopNoSpeech()
		c.applyTranscript(ev.Transcript)
	case speech.EventError:
		metrics.ObserveRecognitionError(string(ev.Error))
		if c.superseded(ev.SessionID) {
			c.logger.Debug().Uint64("recognition_id", ev.SessionID).Str("error", string(ev.Error)).Msg("error from stopped recognition ignored")
			return
		}
		c.stopNoSpeech()
		c.st.interim = ""
		if !ev.Error.Benign() {
			c.notify(Notice{
				Level:   NoticeError,
				Title:   "Speech Error",
				Message: fmt.Sprintf("Error: %s", ev.Error),
			})
		}
	case speech.EventEnd:
		if _, _, active := c.input.Active(); !active {
			c.stopNoSpeech()
			c.st.interim = ""
		}
	}
}

// superseded reports whether id belongs to a stopped session while a newer
// one is listening.
func (c *Controller) superseded(id uint64) bool {
	active, _, ok := c.input.Active()
	return ok && active != id
}

func (c *Controller) applyTranscript(transcript string) {
	if c.st.completed {
		return
	}
	rec, q := c.current()
	if rec.Finalized || c.st.pending {
		return
	}

	if q.IsSubjective() {
		rec.SubjectiveText = appendSegment(rec.SubjectiveText, transcript)
		return
	}

	c.input.Stop()
	opt, ok := matcher.Match(transcript, q.Options)
	metrics.ObserveVoiceMatch(ok)
	if !ok {
		c.notify(Notice{
			Level:   NoticeWarning,
			Title:   "No Match Found",
			Message: fmt.Sprintf("Could not match: %q. Please try again or select manually.", strings.TrimSpace(transcript)),
		})
		return
	}
	if err := c.selectOption(opt.ID); err != nil {
		c.logger.Error().Err(err).Str("option_id", opt.ID).Msg("voice selection failed")
	}
}

func appendSegment(existing, segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return existing
	}
	existing = strings.TrimRight(existing, " ")
	if existing == "" {
		return segment
	}
	return existing + " " + segment
}

// spokenPrompt is the read-aloud text for a question.
func spokenPrompt(q quiz.Question) string {
	if q.IsSubjective() || len(q.Options) == 0 {
		return q.Text
	}
	parts := make([]string, 0, len(q.Options)+1)
	parts = append(parts, q.Text)
	for i, opt := range q.Options {
		parts = append(parts, fmt.Sprintf("Option %d: %s", i+1, opt.Text))
	}
	return strings.Join(parts, ". ")
}
