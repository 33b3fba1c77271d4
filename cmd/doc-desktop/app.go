package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"github.com/nubank/doc-ia/internal"
	"github.com/nubank/doc-ia/internal/bootstrap"
	"github.com/nubank/doc-ia/internal/turn"
)

const (
	eventState = "doc:state"
	eventReply = "doc:reply"
	eventError = "doc:error"
)

// Status summarizes the window's conversation for the UI.
type Status struct {
	State        turn.State `json:"state"`
	InputEnabled bool       `json:"inputEnabled"`
	Model        string     `json:"model,omitempty"`
	Message      string     `json:"message,omitempty"`
}

// App is the Wails application root. One window is one session.
type App struct {
	ctx context.Context

	controller *turn.Controller
	session    *turn.Session
	model      string
	logger     *zap.Logger
	bootErr    error

	emit func(ctx context.Context, name string, data ...interface{})
}

func NewApp() *App {
	return &App{logger: zap.NewNop(), emit: runtime.EventsEmit}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(true)
	if err != nil {
		a.bootErr = err
		a.emitError(err.Error())
		return
	}
	a.attach(services.Controller, services.Model, services.Logger)
}

// attach installs the runtime graph and starts a fresh conversation.
func (a *App) attach(controller *turn.Controller, model string, logger *zap.Logger) {
	a.controller = controller
	a.model = model
	a.logger = logger
	a.session = turn.NewSession(a)
	a.StateChanged(turn.StateIdle, true)
}

func (a *App) shutdown(_ context.Context) {
	if a.controller != nil {
		a.controller.Wait()
	}
	_ = a.logger.Sync()
}

// Send submits typed text.
func (a *App) Send(text string) error {
	return a.dispatch(internal.Event{Text: text, Source: internal.SourceTyped})
}

// SendSpeech submits a transcript produced by speech recognition.
func (a *App) SendSpeech(transcript string) error {
	return a.dispatch(internal.Event{Text: transcript, Source: internal.SourceSpeech})
}

// SendWithFile submits text together with the file at path.
func (a *App) SendWithFile(text string, path string) error {
	ev := internal.Event{Text: text, Source: internal.SourceTyped}
	if strings.TrimSpace(path) != "" {
		ev.Attachment = &internal.Attachment{Path: path}
	}
	return a.dispatch(ev)
}

// AttachFile opens the native file picker and returns the chosen path, or ""
// when the dialog was cancelled.
func (a *App) AttachFile() (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	return runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Attach a file for DOC",
		Filters: []runtime.FileFilter{
			{DisplayName: "Text files (*.txt;*.csv;*.md)", Pattern: "*.txt;*.csv;*.md"},
			{DisplayName: "All files", Pattern: "*"},
		},
	})
}

// History returns the conversation so far.
func (a *App) History() []internal.Message {
	if a.session == nil {
		return []internal.Message{}
	}
	return a.session.History.All()
}

// GetStatus returns the current exchange state.
func (a *App) GetStatus() Status {
	if a.session == nil {
		if a.bootErr != nil {
			return Status{State: turn.StateIdle, InputEnabled: false, Message: a.bootErr.Error()}
		}
		return Status{State: turn.StateIdle, InputEnabled: false}
	}
	state := a.session.State()
	return Status{State: state, InputEnabled: state.InputEnabled(), Model: a.model}
}

func (a *App) dispatch(ev internal.Event) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	err := a.controller.Dispatch(a.ctx, a.session, ev, a.deliver)
	if errors.Is(err, turn.ErrBusy) {
		a.emitError("DOC is still answering your previous message")
	}
	return err
}

func (a *App) deliver(reply internal.Reply) {
	if a.ctx == nil {
		return
	}
	a.emit(a.ctx, eventReply, map[string]interface{}{
		"text":     reply.Text,
		"fallback": reply.Fallback,
		"empty":    reply.Empty,
	})
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil || a.session == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// StateChanged drives the input surface: it is disabled while an exchange runs.
func (a *App) StateChanged(state turn.State, inputEnabled bool) {
	if a.ctx == nil {
		return
	}
	a.emit(a.ctx, eventState, map[string]interface{}{
		"state":        string(state),
		"inputEnabled": inputEnabled,
	})
}

func (a *App) emitError(message string) {
	if a.ctx == nil {
		return
	}
	a.emit(a.ctx, eventError, map[string]string{"message": message})
}
