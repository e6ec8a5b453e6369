package background

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// DefaultCommand is the external tool used to set the desktop background.
const DefaultCommand = "feh"

// DefaultArgs asks feh to scale the image to fit the screen, keeping its
// aspect ratio.
var DefaultArgs = []string{"--bg-max"}

// runFunc runs an external command and returns its error, if any.
type runFunc func(ctx context.Context, name string, args ...string) error

// Setter applies an image as the desktop background by running an external
// command with the image path as its last argument.
type Setter struct {
	command string
	args    []string
	strict  bool
	logger  *zap.Logger
	run     runFunc
}

// Config holds the settings for a Setter.
type Config struct {
	Command string
	Args    []string
	// Strict makes Set report a failed or missing command. By default the
	// result of the command is only logged.
	Strict bool
}

// NewSetter creates a setter. An empty command falls back to feh --bg-max.
func NewSetter(cfg Config, logger *zap.Logger) *Setter {
	command := cfg.Command
	args := cfg.Args
	if command == "" {
		command = DefaultCommand
		if args == nil {
			args = DefaultArgs
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Setter{
		command: command,
		args:    append([]string(nil), args...),
		strict:  cfg.Strict,
		logger:  logger,
		run:     runCommand,
	}
}

// Command returns the command line that Set would run for imagePath.
func (s *Setter) Command(imagePath string) []string {
	argv := make([]string, 0, len(s.args)+2)
	argv = append(argv, s.command)
	argv = append(argv, s.args...)
	return append(argv, imagePath)
}

// Set runs the background command for imagePath. Unless the setter is
// strict, failures are logged and nil is returned.
func (s *Setter) Set(ctx context.Context, imagePath string) error {
	argv := s.Command(imagePath)

	err := s.run(ctx, argv[0], argv[1:]...)
	if err == nil {
		s.logger.Info("background set", zap.String("path", imagePath), zap.String("command", s.command))
		return nil
	}

	if s.strict {
		return fmt.Errorf("failed to set background with %s: %w", s.command, err)
	}

	s.logger.Warn("background command failed",
		zap.String("path", imagePath),
		zap.String("command", s.command),
		zap.Error(err),
	)
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
