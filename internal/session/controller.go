package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quizwhiz/internal/grading"
	"github.com/gokatarajesh/quizwhiz/internal/metrics"
	"github.com/gokatarajesh/quizwhiz/internal/quiz"
	"github.com/gokatarajesh/quizwhiz/internal/session/scoring"
	"github.com/gokatarajesh/quizwhiz/internal/speech"
)

// Controller runs one quiz session. All state is owned by a single event-loop
// goroutine; public methods enqueue work and wait for the resulting View.
// Timer, grading and recognition callbacks are posted back to the loop and
// dropped if the session has moved on since they were scheduled.
type Controller struct {
	doc      quiz.Document
	cfg      Config
	grader   Grader
	input    *speech.Input
	output   *speech.Output
	observer Observer
	clock    Clock
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	events    chan func()
	closing   chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	last View

	st state
}

type state struct {
	index   int
	answers []scoring.AnswerRecord
	// epoch changes on every navigation, submission and completion. Async
	// callbacks carry the epoch they were scheduled in.
	epoch uint64

	pending     bool
	gradeCancel context.CancelFunc

	autoAdvance   Timer
	autoAdvanceAt time.Time
	noSpeech      Timer
	noSpeechAt    time.Time
	interim       string

	completed bool
	result    scoring.QuizResult
}

// New builds a controller for a validated document and starts its event loop.
// Call Start to present the first question.
func New(ctx context.Context, doc quiz.Document, cfg Config, deps Dependencies, logger zerolog.Logger) (*Controller, error) {
	if doc.Len() == 0 {
		return nil, ErrEmptyQuiz
	}
	if deps.Grader == nil {
		deps.Grader = grading.NewDispatcher(nil, logger)
	}
	if deps.Input == nil {
		deps.Input = speech.NewInput(nil)
	}
	if deps.Output == nil {
		deps.Output = speech.NewOutput(nil)
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Clock == nil {
		deps.Clock = RealClock()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c := &Controller{
		doc:      doc,
		cfg:      cfg.withDefaults(),
		grader:   deps.Grader,
		input:    deps.Input,
		output:   deps.Output,
		observer: deps.Observer,
		clock:    deps.Clock,
		logger:   logger.With().Str("component", "session").Str("quiz", doc.Title).Logger(),
		ctx:      loopCtx,
		cancel:   cancel,
		events:   make(chan func()),
		closing:  make(chan struct{}),
		stopped:  make(chan struct{}),
		st: state{
			answers: make([]scoring.AnswerRecord, doc.Len()),
		},
	}
	for i := range c.st.answers {
		c.st.answers[i].Outcome = scoring.OutcomeUnknown
	}
	c.last = c.snapshot()

	metrics.SessionStarted()
	go c.run()
	return c, nil
}

func (c *Controller) run() {
	defer close(c.stopped)
	for {
		select {
		case fn := <-c.events:
			fn()
		case <-c.closing:
			return
		}
	}
}

// post hands fn to the event loop. It reports false once the session is closed.
func (c *Controller) post(fn func()) bool {
	select {
	case c.events <- fn:
		return true
	case <-c.closing:
		return false
	}
}

// do runs fn on the event loop and returns the resulting snapshot.
func (c *Controller) do(fn func()) View {
	reply := make(chan View, 1)
	ok := c.post(func() {
		fn()
		reply <- c.publish()
	})
	if !ok {
		return c.View()
	}
	return <-reply
}

// View returns the latest published snapshot without touching the loop.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Result returns the final result once the session has completed.
func (c *Controller) Result() (scoring.QuizResult, bool) {
	v := c.View()
	if v.Result == nil {
		return scoring.QuizResult{}, false
	}
	return *v.Result, true
}

// Start presents the first question.
func (c *Controller) Start() View {
	return c.do(func() {
		if c.st.completed {
			return
		}
		c.present()
	})
}

// SelectOption answers the current multiple-choice question. Selecting on an
// already answered question is a no-op.
func (c *Controller) SelectOption(optionID string) (View, error) {
	var err error
	v := c.do(func() {
		err = c.selectOption(optionID)
	})
	return v, err
}

// SubmitSubjective sends free text for grading. The call returns once the
// submission is in flight; the verdict arrives asynchronously.
func (c *Controller) SubmitSubjective(text string) (View, error) {
	var err error
	v := c.do(func() {
		err = c.submitSubjective(text)
	})
	return v, err
}

// UpdateAnswerText records typed text for the current subjective question.
func (c *Controller) UpdateAnswerText(text string) View {
	return c.do(func() {
		rec, q := c.current()
		if c.st.completed || !q.IsSubjective() || rec.Finalized || c.st.pending {
			return
		}
		rec.SubjectiveText = text
	})
}

// GoNext moves forward, completing the session from the last question.
func (c *Controller) GoNext() View {
	return c.do(c.advance)
}

// GoPrevious moves back one question. It does nothing on the first question.
func (c *Controller) GoPrevious() View {
	return c.do(func() {
		if c.st.completed || c.st.index == 0 {
			return
		}
		c.cancelActivity()
		c.st.index--
		c.present()
	})
}

// EndSession completes the session from any question. Repeated calls return
// the same result.
func (c *Controller) EndSession() scoring.QuizResult {
	c.do(func() {
		if !c.st.completed {
			c.complete()
		}
	})
	result, _ := c.Result()
	return result
}

// Close stops timers, speech and grading and shuts the event loop down. It is
// safe to call more than once.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.do(func() {
			c.cancelActivity()
			metrics.SessionClosed(c.st.completed)
		})
		c.cancel()
		close(c.closing)
		<-c.stopped
	})
}

func (c *Controller) current() (*scoring.AnswerRecord, quiz.Question) {
	return &c.st.answers[c.st.index], c.doc.Questions[c.st.index]
}

func (c *Controller) selectOption(optionID string) error {
	if c.st.completed {
		return nil
	}
	rec, q := c.current()
	if rec.Finalized {
		return nil
	}
	if q.IsSubjective() {
		return ErrNotMultipleChoice
	}
	verdict, err := c.grader.GradeChoice(q, optionID)
	if err != nil {
		return err
	}

	c.cancelActivity()
	rec.SelectedOptionID = optionID
	c.finalize(verdict)
	return nil
}

func (c *Controller) submitSubjective(text string) error {
	if c.st.completed {
		return nil
	}
	rec, q := c.current()
	if !q.IsSubjective() {
		return ErrNotSubjective
	}
	if rec.Finalized || c.st.pending {
		return nil
	}

	c.cancelActivity()
	rec.SubjectiveText = text
	c.st.pending = true

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.cfg.GradingTimeout > 0 {
		ctx, cancel = context.WithTimeout(c.ctx, c.cfg.GradingTimeout)
	} else {
		ctx, cancel = context.WithCancel(c.ctx)
	}
	c.st.gradeCancel = cancel

	epoch := c.st.epoch
	go func() {
		defer cancel()
		verdict := c.grader.GradeSubjective(ctx, q, text)
		c.post(func() {
			c.resolveSubjective(epoch, verdict)
		})
	}()
	return nil
}

func (c *Controller) resolveSubjective(epoch uint64, verdict grading.Verdict) {
	if epoch != c.st.epoch || c.st.completed || !c.st.pending {
		c.logger.Debug().Uint64("epoch", epoch).Msg("discarding stale grading result")
		return
	}
	c.st.pending = false
	c.st.gradeCancel = nil
	c.finalize(verdict)
	c.publish()
}

// finalize records the verdict, then arms auto-advance or completes.
func (c *Controller) finalize(verdict grading.Verdict) {
	rec, _ := c.current()
	rec.Finalized = true
	rec.Feedback = verdict.Feedback
	if verdict.Correct {
		rec.Outcome = scoring.OutcomeCorrect
	} else {
		rec.Outcome = scoring.OutcomeIncorrect
	}

	if verdict.Err != nil {
		c.notify(Notice{Level: NoticeError, Title: "Grading Error", Message: grading.ServiceErrorFeedback})
	}

	if !c.cfg.Settings.AutoAdvanceEnabled {
		return
	}
	if c.st.index == c.doc.Len()-1 {
		c.complete()
		return
	}
	c.armAutoAdvance()
}

func (c *Controller) armAutoAdvance() {
	c.stopAutoAdvance()
	epoch := c.st.epoch
	c.st.autoAdvanceAt = c.clock.Now().Add(c.cfg.AutoAdvanceDelay)
	c.st.autoAdvance = c.clock.AfterFunc(c.cfg.AutoAdvanceDelay, func() {
		c.post(func() {
			if epoch != c.st.epoch || c.st.completed {
				return
			}
			c.st.autoAdvance = nil
			c.advance()
			c.publish()
		})
	})
}

func (c *Controller) advance() {
	if c.st.completed {
		return
	}
	c.cancelActivity()
	if c.st.index == c.doc.Len()-1 {
		c.complete()
		return
	}
	c.st.index++
	c.present()
}

func (c *Controller) complete() {
	if c.st.completed {
		return
	}
	c.cancelActivity()
	c.st.completed = true
	c.st.result = scoring.Aggregate(c.doc.Title, c.doc.Len(), c.st.answers)

	c.logger.Info().
		Int("score", c.st.result.Score).
		Int("total", c.st.result.TotalQuestions).
		Int("skipped", c.st.result.Skipped).
		Msg("session completed")
	c.observer.Completed(c.st.result)
}

// present shows the current question: read aloud and auto-mic if enabled.
func (c *Controller) present() {
	rec, q := c.current()
	if c.cfg.Settings.SpeakerEnabled && c.output.Supported() {
		if err := c.output.Say(spokenPrompt(q)); err != nil {
			c.logger.Warn().Err(err).Msg("read aloud failed")
		}
	}
	if c.cfg.Settings.AutoMicEnabled && c.input.Supported() && !rec.Finalized && !c.st.pending {
		_ = c.startListening(true)
	}
}

// cancelActivity stops everything scheduled for the current question and
// invalidates outstanding callbacks.
func (c *Controller) cancelActivity() {
	c.st.epoch++
	c.stopAutoAdvance()
	c.stopNoSpeech()
	c.input.Abort()
	c.output.Cancel()
	c.st.interim = ""
	if c.st.gradeCancel != nil {
		c.st.gradeCancel()
		c.st.gradeCancel = nil
	}
	c.st.pending = false
}

func (c *Controller) stopAutoAdvance() {
	if c.st.autoAdvance != nil {
		c.st.autoAdvance.Stop()
		c.st.autoAdvance = nil
	}
	c.st.autoAdvanceAt = time.Time{}
}

func (c *Controller) stopNoSpeech() {
	if c.st.noSpeech != nil {
		c.st.noSpeech.Stop()
		c.st.noSpeech = nil
	}
	c.st.noSpeechAt = time.Time{}
}

func (c *Controller) notify(n Notice) {
	c.observer.Notice(n)
}

// publish snapshots state and sends it to the observer.
func (c *Controller) publish() View {
	v := c.snapshot()
	c.mu.Lock()
	c.last = v
	c.mu.Unlock()
	c.observer.StateChanged(v)
	return v
}

func (c *Controller) snapshot() View {
	rec, q := c.current()
	agg := scoring.Aggregate(c.doc.Title, c.doc.Len(), c.st.answers)

	v := View{
		Title:                 c.doc.Title,
		Index:                 c.st.index,
		Total:                 c.doc.Len(),
		Question:              questionView(q, rec.Finalized),
		Answer:                *rec,
		Pending:               c.st.pending,
		Score:                 agg.Score,
		Answered:              agg.Attempted,
		SpeechStatus:          c.input.Status(),
		SpeechInputAvailable:  c.input.Supported(),
		SpeechOutputAvailable: c.output.Supported(),
		InterimTranscript:     c.st.interim,
		Settings:              c.cfg.Settings,
		Completed:             c.st.completed,
	}
	if !c.st.autoAdvanceAt.IsZero() {
		at := c.st.autoAdvanceAt
		v.AutoAdvanceAt = &at
	}
	if !c.st.noSpeechAt.IsZero() {
		at := c.st.noSpeechAt
		v.NoSpeechAt = &at
	}
	if c.st.completed {
		result := c.st.result
		v.Result = &result
	}
	return v
}

func questionView(q quiz.Question, reveal bool) QuestionView {
	qv := QuestionView{
		ID:       q.ID,
		Text:     q.Text,
		Kind:     q.Kind,
		Options:  make([]OptionView, 0, len(q.Options)),
		Category: q.Category,
	}
	for _, opt := range q.Options {
		ov := OptionView{ID: opt.ID, Text: opt.Text}
		if reveal {
			correct := opt.IsCorrect
			ov.IsCorrect = &correct
		}
		qv.Options = append(qv.Options, ov)
	}
	if reveal {
		qv.Explanation = q.Explanation
	}
	return qv
}

type nopObserver struct{}

func (nopObserver) StateChanged(View)            {}
func (nopObserver) Notice(Notice)                {}
func (nopObserver) Completed(scoring.QuizResult) {}
