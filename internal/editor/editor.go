// Package editor opens files for the user in an external program.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/google/shlex"
	"go.uber.org/zap"
)

// ErrNoEditor is returned when no editor command is configured and the
// platform has no default opener.
var ErrNoEditor = errors.New("no editor configured (set $VISUAL or $EDITOR)")

// Launcher runs an editor command on a file. It implements
// store.Opener.
type Launcher struct {
	// Command is a shell-style command line such as "code --wait".
	// When empty, $VISUAL then $EDITOR are consulted, then the
	// platform opener.
	Command string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Log     *zap.Logger

	goos   string
	getenv func(string) string
	run    func(*exec.Cmd) error
}

// Argv returns the command and arguments that would open path.
func (l *Launcher) Argv(path string) ([]string, error) {
	line := l.Command
	getenv := l.getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if line == "" {
		line = getenv("VISUAL")
	}
	if line == "" {
		line = getenv("EDITOR")
	}
	if line != "" {
		args, err := shlex.Split(line)
		if err != nil {
			return nil, fmt.Errorf("parsing editor command %q: %w", line, err)
		}
		if len(args) == 0 {
			return nil, ErrNoEditor
		}
		return append(args, path), nil
	}

	goos := l.goos
	if goos == "" {
		goos = runtime.GOOS
	}
	switch goos {
	case "darwin":
		return []string{"open", "-t", path}, nil
	case "linux":
		return []string{"xdg-open", path}, nil
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", path}, nil
	}
	return nil, ErrNoEditor
}

// Open runs the editor on path and waits for it to exit.
func (l *Launcher) Open(ctx context.Context, path string) error {
	argv, err := l.Argv(path)
	if err != nil {
		return err
	}
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("opening settings file", zap.Strings("argv", argv))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	run := l.run
	if run == nil {
		run = (*exec.Cmd).Run
	}
	if err := run(cmd); err != nil {
		return fmt.Errorf("running %s: %w", argv[0], err)
	}
	return nil
}
