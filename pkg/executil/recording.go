package executil

import (
	"context"
	"strings"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Dir  string
	Cmd  string
	Args []string
}

// RecordingExecutor captures commands for testing.
// Configure Outputs and Errors maps to control return values. Keys are
// matched against the command name joined with its arguments, longest
// prefix first, so "git ls-remote" takes precedence over "git".
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	// Outputs maps command prefixes to their output.
	Outputs map[string][]byte

	// Errors maps command prefixes to their error.
	Errors map[string]error
}

// Run records the command and returns configured output/error.
func (e *RecordingExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	return e.record("", cmd, args...)
}

// RunDir records the command with directory and returns configured output/error.
func (e *RecordingExecutor) RunDir(ctx context.Context, dir, cmd string, args ...string) ([]byte, error) {
	return e.record(dir, cmd, args...)
}

func (e *RecordingExecutor) record(dir, cmd string, args ...string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, RecordedCommand{
		Dir:  dir,
		Cmd:  cmd,
		Args: args,
	})

	full := strings.Join(append([]string{cmd}, args...), " ")

	var out []byte
	var err error
	bestLen := -1
	for key, v := range e.Outputs {
		if strings.HasPrefix(full, key) && len(key) > bestLen {
			out = v
			bestLen = len(key)
		}
	}
	bestLen = -1
	for key, v := range e.Errors {
		if strings.HasPrefix(full, key) && len(key) > bestLen {
			err = v
			bestLen = len(key)
		}
	}

	return out, err
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}
