//go:generate mockgen -destination=./mocks/runner.go . Runner

// Package execute runs the external packaging tools (gpg, rpm, dpkg-sig,
// dpkg-scanpackages, createrepo) on behalf of the indexers and the signer.
// Every subprocess holds a slot of a bounded process pool for its lifetime.
package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/errutils"
)

// Command describes one subprocess invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries are appended to the runner environment.
	Env []string
	// AllowFailure turns a non-zero exit into a plain Result.
	AllowFailure bool
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the captured outcome of a finished subprocess.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Exchange is one expected prompt and the line sent in reply.
type Exchange struct {
	Prompt string
	Reply  string
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
	Interact(ctx context.Context, cmd Command, script []Exchange, timeout time.Duration) error
}

// ExecError reports a subprocess that failed to start, exited non-zero or
// was killed. It matches errutils.ErrExternalTool.
type ExecError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *ExecError) Unwrap() []error {
	return []error{errutils.ErrExternalTool, e.Err}
}

// Options configures an ExecRunner.
type Options struct {
	// Concurrency is the number of subprocesses allowed at once.
	Concurrency int
	// Timeout bounds every Run call. Zero disables the bound.
	Timeout time.Duration
	// Env is added to the inherited environment of every command.
	Env []string
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	pool    *semaphore.Weighted
	timeout time.Duration
	env     []string
}

// NewExecRunner creates a runner with a process pool of opts.Concurrency slots.
func NewExecRunner(opts Options) *ExecRunner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &ExecRunner{
		pool:    semaphore.NewWeighted(int64(opts.Concurrency)),
		timeout: opts.Timeout,
		env:     append([]string(nil), opts.Env...),
	}
}

func (r *ExecRunner) command(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = time.Second
	c.Env = append(os.Environ(), r.env...)
	c.Env = append(c.Env, cmd.Env...)
	return c
}

// Run executes cmd and captures its output.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if err := r.pool.Acquire(ctx, 1); err != nil {
		return nil, errutils.Wrapf(err, "waiting for a process slot for %s", cmd.Name)
	}
	defer r.pool.Release(1)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	c := r.command(ctx, cmd)
	c.Stdout = &stdout
	c.Stderr = &stderr

	logger.Debug("Running external tool", logger.Fields{"command": cmd.String(), "dir": cmd.Dir})
	start := time.Now()
	runErr := c.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}
	logger.Debug("External tool finished", logger.Fields{
		"command":  cmd.Name,
		"exitCode": res.ExitCode,
		"duration": time.Since(start).String(),
	})

	if runErr == nil {
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) && ctx.Err() == nil && cmd.AllowFailure {
		return res, nil
	}
	if ctx.Err() != nil {
		runErr = ctx.Err()
	}
	return res, &ExecError{Command: cmd.String(), ExitCode: res.ExitCode, Stderr: res.Stderr, Err: runErr}
}

// Available reports whether name resolves on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Missing returns the names that do not resolve on PATH, in input order.
func Missing(names ...string) []string {
	var missing []string
	for _, name := range names {
		if !Available(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
