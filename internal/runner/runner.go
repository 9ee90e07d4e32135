// Package runner executes real command invocations and captures their
// standard output for training. It is the only place a child process is
// spawned.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// SpawnError reports that an invocation's binary could not be started.
// It is fatal to training: without real output there is nothing to record.
type SpawnError struct {
	// Invocation is the full invocation that failed to start.
	Invocation []string

	// Err is the underlying exec error (typically exec.ErrNotFound).
	Err error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot start %v: %v", e.Invocation, e.Err)
}

// Unwrap returns the underlying error.
func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Exec runs invocations as child processes, blocking until each exits and
// its standard output is fully read. No timeout is enforced; a mocked
// command that never terminates hangs the trainer.
type Exec struct {
	// Stderr receives the child's standard error so diagnostics stay
	// visible without ever entering the captured output. Nil discards it.
	Stderr io.Writer
}

// Run spawns the invocation and returns its captured standard output.
//
// A non-zero exit is not an error here: the vocabulary model keys on
// stdout content only and never inspects exit codes, so a failing command
// with stable output trains like any other. Only failure to start the
// process (or to read its output) is reported, as a *SpawnError.
func (e *Exec) Run(invocation []string) ([]byte, error) {
	cmd := exec.Command(invocation[0], invocation[1:]...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Invocation: append([]string(nil), invocation...), Err: err}
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &SpawnError{Invocation: append([]string(nil), invocation...), Err: err}
		}
	}

	return stdout.Bytes(), nil
}
