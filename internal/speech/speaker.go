package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Speaker reads a reply out loud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Speak(context.Context, string) error { return nil }

// CommandSpeaker pipes text into an external text-to-speech program
// (espeak, say, piper ...) through stdin.
type CommandSpeaker struct {
	command string
	args    []string
}

// NewCommandSpeaker parses a command line such as "espeak -s 160".
// An empty line returns Nop.
func NewCommandSpeaker(commandLine string) Speaker {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return Nop{}
	}
	return &CommandSpeaker{command: fields[0], args: fields[1:]}
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return fmt.Errorf("%s failed: %w: %s", s.command, err, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("%s failed: %w", s.command, err)
	}
	return nil
}
