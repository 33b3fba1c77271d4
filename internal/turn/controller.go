package turn

import (
	"context"
	"errors"
	"strings"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/nubank/doc-ia/internal"
	"github.com/nubank/doc-ia/internal/prompt"
	"github.com/nubank/doc-ia/internal/speech"
)

var ErrBusy = errors.New("an exchange is already running for this session")

// Generator turns a prompt into reply text and never fails.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
	IsFallback(text string) bool
}

// Describer renders an attachment as transcript text.
type Describer interface {
	Describe(a *internal.Attachment) string
}

type Config struct {
	Persona         string
	NothingReceived string
}

// Controller runs exchanges: normalize the event, append the user turn, build
// the prompt from the full history, generate, append the reply.
// It keeps no conversation state of its own.
type Controller struct {
	generator Generator
	describer Describer
	speaker   speech.Speaker
	cfg       Config
	logger    *zap.Logger

	background conc.WaitGroup
}

func NewController(generator Generator, describer Describer, speaker speech.Speaker, cfg Config, logger *zap.Logger) *Controller {
	if speaker == nil {
		speaker = speech.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		generator: generator,
		describer: describer,
		speaker:   speaker,
		cfg:       cfg,
		logger:    logger,
	}
}

// Submit runs one exchange synchronously. It returns ErrBusy, without touching
// the history, when another exchange is running on s.
func (c *Controller) Submit(ctx context.Context, s *Session, ev internal.Event) (internal.Reply, error) {
	if !s.begin() {
		return internal.Reply{}, ErrBusy
	}
	return c.run(ctx, s, ev), nil
}

// Dispatch claims s immediately and runs the exchange in the background, so the
// caller's loop is never blocked. done receives the reply once s is idle again.
func (c *Controller) Dispatch(ctx context.Context, s *Session, ev internal.Event, done func(internal.Reply)) error {
	if !s.begin() {
		return ErrBusy
	}
	c.background.Go(func() {
		reply := c.run(ctx, s, ev)
		if done != nil {
			done(reply)
		}
	})
	return nil
}

// Wait blocks until every dispatched exchange and pending speech has finished.
func (c *Controller) Wait() {
	c.background.Wait()
}

func (c *Controller) run(ctx context.Context, s *Session, ev internal.Event) internal.Reply {
	defer s.setState(StateIdle)

	content := c.normalize(ev)
	if content == "" {
		return internal.Reply{Text: c.cfg.NothingReceived, Empty: true}
	}

	s.setState(StateBuilding)
	if err := s.History.Append(internal.Message{Role: internal.RoleUser, Content: content}); err != nil {
		c.logger.Error("could not record user turn", zap.Error(err))
		return internal.Reply{Text: c.cfg.NothingReceived, Empty: true}
	}
	p := prompt.Build(c.cfg.Persona, s.History.All())

	s.setState(StateGenerating)
	answer := c.generator.Generate(ctx, p)

	s.setState(StateCompleting)
	if err := s.History.Append(internal.Message{Role: internal.RoleAssistant, Content: answer}); err != nil {
		c.logger.Error("could not record assistant turn", zap.Error(err))
	}
	c.speak(ctx, answer)

	c.logger.Debug("exchange completed",
		zap.String("source", string(ev.Source)),
		zap.Bool("attachment", ev.Attachment != nil),
		zap.Int("history", s.History.Len()))

	return internal.Reply{Text: answer, Fallback: c.generator.IsFallback(answer)}
}

// normalize applies the input rules in order: trimmed text, then the
// attachment description on its own line.
func (c *Controller) normalize(ev internal.Event) string {
	content := strings.TrimSpace(ev.Text)
	if ev.Attachment != nil && c.describer != nil {
		if desc := c.describer.Describe(ev.Attachment); desc != "" {
			content += "\n" + desc
		}
	}
	return strings.TrimSpace(content)
}

// speak hands the reply to the audio sink without waiting for it.
func (c *Controller) speak(ctx context.Context, text string) {
	if _, ok := c.speaker.(speech.Nop); ok {
		return
	}
	speakCtx := context.WithoutCancel(ctx)
	c.background.Go(func() {
		var pc panics.Catcher
		pc.Try(func() {
			if err := c.speaker.Speak(speakCtx, text); err != nil {
				c.logger.Warn("speech output failed", zap.Error(err))
			}
		})
		if r := pc.Recovered(); r != nil {
			c.logger.Error("speech output panicked", zap.Error(r.AsError()))
		}
	})
}
