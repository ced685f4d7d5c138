package execute

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creack/pty"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/errutils"
)

// Interact runs cmd on a pseudo terminal and plays script against it: each
// prompt must appear in the output before its reply is written. After the
// last exchange the command must exit zero. The whole dialogue is bounded by
// timeout.
func (r *ExecRunner) Interact(ctx context.Context, cmd Command, script []Exchange, timeout time.Duration) error {
	if err := r.pool.Acquire(ctx, 1); err != nil {
		return errutils.Wrapf(err, "waiting for a process slot for %s", cmd.Name)
	}
	defer r.pool.Release(1)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c := r.command(ctx, cmd)
	tty, err := pty.Start(c)
	if err != nil {
		return &ExecError{Command: cmd.String(), ExitCode: -1, Err: err}
	}
	defer tty.Close()

	done := make(chan struct{})
	defer close(done)

	chunks := make(chan string)
	go func() {
		defer close(chunks)
		buf := make([]byte, 4096)
		for {
			n, err := tty.Read(buf)
			if n > 0 {
				select {
				case chunks <- string(buf[:n]):
				case <-done:
					return
				}
			}
			if err != nil {
				// EIO once the child side of the terminal is gone.
				return
			}
		}
	}()

	var output strings.Builder
	consumed := 0
	fail := func(err error) error {
		_ = c.Wait()
		return &ExecError{Command: cmd.String(), ExitCode: -1, Stderr: output.String(), Err: err}
	}

	for _, step := range script {
		for !strings.Contains(output.String()[consumed:], step.Prompt) {
			select {
			case chunk, ok := <-chunks:
				if !ok {
					return fail(fmt.Errorf("%w: expected %q", errutils.ErrUnexpectedPrompt, step.Prompt))
				}
				output.WriteString(chunk)
			case <-ctx.Done():
				return fail(timeoutOr(ctx.Err()))
			}
		}
		consumed = strings.Index(output.String()[consumed:], step.Prompt) + consumed + len(step.Prompt)
		logger.Debug("Answering interactive prompt", logger.Fields{"command": cmd.Name, "prompt": step.Prompt})
		if _, err := tty.Write([]byte(step.Reply + "\n")); err != nil {
			return fail(err)
		}
	}

drain:
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				break drain
			}
			output.WriteString(chunk)
		case <-ctx.Done():
			return fail(timeoutOr(ctx.Err()))
		}
	}

	if err := c.Wait(); err != nil {
		if ctx.Err() != nil {
			err = timeoutOr(ctx.Err())
		}
		code := -1
		if c.ProcessState != nil {
			code = c.ProcessState.ExitCode()
		}
		return &ExecError{Command: cmd.String(), ExitCode: code, Stderr: output.String(), Err: err}
	}
	return nil
}

func timeoutOr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", errutils.ErrInteractionTimeout, err)
	}
	return err
}
