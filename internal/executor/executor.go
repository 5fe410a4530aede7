package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

var (
	ErrExecutionFailed = errors.New("execution failed")
	ErrTimeout         = errors.New("execution timed out")
	ErrSetupFailed     = errors.New("process setup failed")
)

// Runner runs one external program and returns its trimmed stdout.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error)
}

type ExecError struct {
	Kind     error
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	switch e.Kind {
	case ErrExecutionFailed:
		return fmt.Sprintf("%s: %v (exit code %d)", e.Command, e.Kind, e.ExitCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: %v", e.Command, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Command, e.Kind)
	}
}

func (e *ExecError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ExitCode extracts the exit status of a failed execution, or -1.
func ExitCode(err error) int {
	var ee *ExecError
	if errors.As(err, &ee) && ee.Kind == ErrExecutionFailed {
		return ee.ExitCode
	}
	return -1
}

type Executor struct {
	defaultTimeout time.Duration
}

func New(defaultTimeout time.Duration) *Executor {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	return &Executor{defaultTimeout: defaultTimeout}
}

// Run spawns exactly one process. stderr is captured and only surfaced
// through the returned error. The process is killed once timeout elapses or
// ctx is cancelled.
func (e *Executor) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	command := commandLine(name, args)
	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return "", &ExecError{Kind: ErrSetupFailed, Command: command, ExitCode: -1, Err: err}
	}

	err := cmd.Wait()
	zap.S().Debugw("process finished", "cmd", command, "elapsed", time.Since(started), "err", err)

	if ctxErr := runCtx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", &ExecError{Kind: ErrTimeout, Command: command, ExitCode: -1, Stderr: stderr.String(), Err: ctxErr}
		}
		return "", &ExecError{Kind: ErrExecutionFailed, Command: command, ExitCode: -1, Stderr: stderr.String(), Err: ctxErr}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExecError{
				Kind:     ErrExecutionFailed,
				Command:  command,
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return "", &ExecError{Kind: ErrExecutionFailed, Command: command, ExitCode: -1, Stderr: stderr.String(), Err: err}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Shell runs script through /bin/sh -c.
func Shell(ctx context.Context, r Runner, timeout time.Duration, script string) (string, error) {
	return r.Run(ctx, timeout, "/bin/sh", "-c", script)
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
