package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Speaker voices a single message. Say may block until playback ends.
type Speaker interface {
	Say(ctx context.Context, msg string) error
}

// LogSpeaker writes messages to the log instead of speaking them.
type LogSpeaker struct {
	Log *slog.Logger
}

func (s LogSpeaker) Say(_ context.Context, msg string) error {
	s.Log.Info("narration", "message", msg)
	return nil
}

// CommandSpeaker runs an external text-to-speech program with the message
// appended as its final argument, e.g. ["espeak", "-s", "160"].
type CommandSpeaker struct {
	Command []string
}

// ParseCommand splits a whitespace-separated command line.
func ParseCommand(s string) CommandSpeaker {
	return CommandSpeaker{Command: strings.Fields(s)}
}

func (s CommandSpeaker) Say(ctx context.Context, msg string) error {
	if len(s.Command) == 0 {
		return fmt.Errorf("no speech command configured")
	}
	args := append(append([]string{}, s.Command[1:]...), msg)
	out, err := exec.CommandContext(ctx, s.Command[0], args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("running %s: %w (%s)", s.Command[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
