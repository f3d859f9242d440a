package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/quizwhiz/internal/grading"
	"github.com/gokatarajesh/quizwhiz/internal/grading/ai"
	"github.com/gokatarajesh/quizwhiz/internal/quiz"
	"github.com/gokatarajesh/quizwhiz/internal/results"
	"github.com/gokatarajesh/quizwhiz/internal/session"
	"github.com/gokatarajesh/quizwhiz/internal/session/scoring"
	"github.com/gokatarajesh/quizwhiz/internal/settings"
	"github.com/gokatarajesh/quizwhiz/internal/speech"
)

const playHelp = `Commands:
  <n>        choose option n
  <text>     answer a subjective question, or speak while the mic is on
  mic        toggle the microphone
  submit     submit the dictated answer
  read       read the question aloud
  next, prev move between questions
  end        finish the quiz
  help       show this help
`

type playOptions struct {
	settings         settings.Settings
	autoAdvanceDelay time.Duration
	aiURL            string
	aiKey            string
	interests        string
	recommend        bool
	verbose          bool
	stderr           io.Writer
}

// NewPlayCmd plays a quiz file in the terminal. Typed lines stand in for
// speech while the microphone is on.
func NewPlayCmd() *cobra.Command {
	opts := playOptions{settings: settings.Defaults()}

	cmd := &cobra.Command{
		Use:   "play FILE",
		Short: "Play a quiz file in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := quiz.LoadFile(args[0])
			if err != nil {
				reportInvalid(cmd.OutOrStdout(), args[0], err)
				return errInvalidFiles
			}
			opts.stderr = cmd.ErrOrStderr()
			return runPlay(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), doc, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.settings.SpeakerEnabled, "speaker", opts.settings.SpeakerEnabled, "read each question aloud")
	f.BoolVar(&opts.settings.AutoAdvanceEnabled, "auto-advance", opts.settings.AutoAdvanceEnabled, "move on after any answered question")
	f.BoolVar(&opts.settings.AutoMicEnabled, "auto-mic", opts.settings.AutoMicEnabled, "turn the microphone on for each question")
	f.DurationVar(&opts.autoAdvanceDelay, "auto-advance-delay", session.DefaultAutoAdvanceDelay, "delay before auto-advancing")
	f.StringVar(&opts.aiURL, "ai-url", envOr("AI_GRADER_URL", ""), "grading and recommendation service URL")
	f.StringVar(&opts.aiKey, "ai-key", envOr("AI_API_KEY", ""), "grading service API key")
	f.BoolVar(&opts.recommend, "recommend", true, "ask for a next topic when the quiz ends")
	f.StringVar(&opts.interests, "interests", "", "interests passed to the recommendation service")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log session internals to stderr")
	return cmd
}

func runPlay(ctx context.Context, in io.Reader, out io.Writer, doc quiz.Document, opts playOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := zerolog.Nop()
	if opts.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: opts.stderr}).With().Timestamp().Logger()
	}

	var (
		remote      grading.Grader
		recommender results.Recommender
	)
	if opts.aiURL != "" {
		client := ai.NewClient(ai.Config{BaseURL: opts.aiURL, APIKey: opts.aiKey}, logger)
		remote, recommender = client, client
	}

	p := &printer{out: out, done: make(chan struct{})}
	var ctrl *session.Controller
	engine := speech.NewLineEngine(func(ev speech.Event) {
		ctrl.HandleRecognition(ev)
	})

	ctrl, err := session.New(ctx, doc, session.Config{
		Settings:         opts.settings,
		AutoAdvanceDelay: opts.autoAdvanceDelay,
	}, session.Dependencies{
		Grader:   grading.NewDispatcher(remote, logger),
		Input:    speech.NewInput(engine),
		Output:   speech.NewOutput(speech.NewWriterSynthesizer(out)),
		Observer: p,
	}, logger)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer ctrl.Close()

	p.printf("%s (%d questions)\n%s", doc.Title, doc.Len(), playHelp)
	ctrl.Start()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

loop:
	for {
		select {
		case <-p.done:
			break loop
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				ctrl.EndSession()
				break loop
			}
			handleLine(ctrl, engine, p, strings.TrimSpace(line))
		}
	}

	result, _ := ctrl.Result()
	summary := scoring.NewEngine(scoring.DefaultConfig()).Summarize(result)
	p.printf("\nQuiz complete: %s\nScore: %d/%d (%d%%)\nAttempted: %d, skipped: %d\n%s\n",
		result.Title, result.Score, result.TotalQuestions, summary.Percentage,
		result.Attempted, result.Skipped, summary.Feedback)

	if opts.recommend && recommender != nil {
		view := results.NewView(result, scoring.NewEngine(scoring.DefaultConfig()), recommender, logger)
		rec, err := view.Recommend(ctx, opts.interests)
		if err != nil {
			p.printf("%s\n", err)
		} else {
			p.printf("Next up: %s\n  %s\n", rec.NextTopic, rec.Reason)
		}
	}
	return nil
}

func handleLine(ctrl *session.Controller, engine *speech.LineEngine, p *printer, line string) {
	if line == "" {
		return
	}
	switch strings.ToLower(line) {
	case "help", "?":
		p.printf("%s", playHelp)
		return
	case "next", "n":
		ctrl.GoNext()
		return
	case "prev", "previous", "p":
		ctrl.GoPrevious()
		return
	case "end", "quit", "q":
		ctrl.EndSession()
		return
	case "mic":
		v, err := ctrl.ToggleListening()
		if err == nil {
			p.printf("[mic] %s\n", v.SpeechStatus)
		}
		return
	case "read":
		_, _ = ctrl.ReadQuestion()
		return
	case "submit":
		if _, err := ctrl.SubmitSubjective(ctrl.View().Answer.SubjectiveText); err != nil {
			p.printf("! %v\n", err)
		}
		return
	}

	if engine.Listening() {
		engine.Deliver(line)
		return
	}

	v := ctrl.View()
	if v.Question.Kind == quiz.KindSubjective {
		if _, err := ctrl.SubmitSubjective(line); err != nil {
			p.printf("! %v\n", err)
		}
		return
	}

	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(v.Question.Options) {
		p.printf("! choose an option between 1 and %d, or type help\n", len(v.Question.Options))
		return
	}
	if _, err := ctrl.SelectOption(v.Question.Options[n-1].ID); err != nil && !errors.Is(err, session.ErrAlreadyAnswered) {
		p.printf("! %v\n", err)
	}
}

// printer renders session output. Calls arrive on the session event loop.
type printer struct {
	mu       sync.Mutex
	out      io.Writer
	last     string
	done     chan struct{}
	doneOnce sync.Once
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *printer) StateChanged(v session.View) {
	if v.Completed {
		return
	}
	key := fmt.Sprintf("%d/%t/%t/%s", v.Index, v.Answer.Finalized, v.Pending, v.Answer.SubjectiveText)
	p.mu.Lock()
	if key == p.last {
		p.mu.Unlock()
		return
	}
	p.last = key
	p.mu.Unlock()

	switch {
	case v.Pending:
		p.printf("Grading...\n")
	case v.Answer.Finalized:
		p.printf("%s\n", verdictLine(v))
	default:
		p.printf("%s", questionBlock(v))
	}
}

func (p *printer) Notice(n session.Notice) {
	p.printf("[%s] %s: %s\n", n.Level, n.Title, n.Message)
}

func (p *printer) Completed(scoring.QuizResult) {
	p.doneOnce.Do(func() { close(p.done) })
}

func questionBlock(v session.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nQuestion %d of %d: %s\n", v.Index+1, v.Total, v.Question.Text)
	for i, opt := range v.Question.Options {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, opt.Text)
	}
	if v.Question.Kind == quiz.KindSubjective {
		b.WriteString("  (type your answer)\n")
	}
	if v.Answer.SubjectiveText != "" {
		fmt.Fprintf(&b, "  draft: %s\n", v.Answer.SubjectiveText)
	}
	return b.String()
}

func verdictLine(v session.View) string {
	var b strings.Builder
	switch v.Answer.Outcome {
	case scoring.OutcomeCorrect:
		b.WriteString("Correct!")
	case scoring.OutcomeIncorrect:
		b.WriteString("Incorrect.")
		for _, opt := range v.Question.Options {
			if opt.IsCorrect != nil && *opt.IsCorrect {
				fmt.Fprintf(&b, " The answer is %s.", opt.Text)
			}
		}
	}
	if v.Answer.Feedback != "" {
		fmt.Fprintf(&b, " %s", v.Answer.Feedback)
	}
	if v.Question.Explanation != "" {
		fmt.Fprintf(&b, "\n  %s", v.Question.Explanation)
	}
	return b.String()
}
