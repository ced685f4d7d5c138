package execute

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/apprepo/pkg/errutils"
)

func sh(script string) Command {
	return Command{Name: "sh", Args: []string{"-c", script}}
}

func TestRun_CapturesOutput(t *testing.T) {
	r := NewExecRunner(Options{Concurrency: 2})

	res, err := r.Run(context.Background(), sh("echo out; echo err >&2"))
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
}

func TestRun_NonZeroExit(t *testing.T) {
	r := NewExecRunner(Options{})

	res, err := r.Run(context.Background(), sh("echo broken >&2; exit 3"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errutils.ErrExternalTool)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, 3, res.ExitCode)
}

func TestRun_AllowFailure(t *testing.T) {
	r := NewExecRunner(Options{})
	cmd := sh("exit 4")
	cmd.AllowFailure = true

	res, err := r.Run(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 4, res.ExitCode)
}

func TestRun_MissingBinary(t *testing.T) {
	r := NewExecRunner(Options{})
	cmd := Command{Name: "apprepo-no-such-tool", AllowFailure: true}

	_, err := r.Run(context.Background(), cmd)
	assert.ErrorIs(t, err, errutils.ErrExternalTool)
}

func TestRun_Timeout(t *testing.T) {
	r := NewExecRunner(Options{Timeout: 50 * time.Millisecond})

	_, err := r.Run(context.Background(), sh("sleep 5"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, errutils.ErrExternalTool)
}

func TestRun_EnvAndDir(t *testing.T) {
	dir := t.TempDir()
	r := NewExecRunner(Options{Env: []string{"APPREPO_A=runner"}})
	cmd := sh(`echo "$APPREPO_A $APPREPO_B $(pwd)"`)
	cmd.Env = []string{"APPREPO_B=command"}
	cmd.Dir = dir

	res, err := r.Run(context.Background(), cmd)
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "runner command")
}

func requirePty(t *testing.T) {
	t.Helper()
	p, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pseudo terminals unavailable: %v", err)
	}
	p.Close()
	tty.Close()
}

func TestInteract_AnswersPrompt(t *testing.T) {
	requirePty(t)
	r := NewExecRunner(Options{})

	err := r.Interact(context.Background(),
		sh(`printf "Enter pass phrase: "; read answer; test -z "$answer"`),
		[]Exchange{{Prompt: "Enter pass phrase:", Reply: ""}},
		5*time.Second)
	assert.NoError(t, err)
}

func TestInteract_PromptNeverShown(t *testing.T) {
	requirePty(t)
	r := NewExecRunner(Options{})

	err := r.Interact(context.Background(),
		sh(`echo "something else"`),
		[]Exchange{{Prompt: "Enter pass phrase:"}},
		5*time.Second)
	assert.ErrorIs(t, err, errutils.ErrUnexpectedPrompt)
	assert.ErrorIs(t, err, errutils.ErrExternalTool)
}

func TestInteract_Timeout(t *testing.T) {
	requirePty(t)
	r := NewExecRunner(Options{})

	err := r.Interact(context.Background(),
		sh(`sleep 5`),
		[]Exchange{{Prompt: "Enter pass phrase:"}},
		100*time.Millisecond)
	assert.ErrorIs(t, err, errutils.ErrInteractionTimeout)
}

func TestInteract_FailingExit(t *testing.T) {
	requirePty(t)
	r := NewExecRunner(Options{})

	err := r.Interact(context.Background(),
		sh(`printf "Enter pass phrase: "; read answer; exit 1`),
		[]Exchange{{Prompt: "Enter pass phrase:"}},
		5*time.Second)
	assert.ErrorIs(t, err, errutils.ErrExternalTool)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "rpm --addsign a.rpm", Command{Name: "rpm", Args: []string{"--addsign", "a.rpm"}}.String())
	assert.Equal(t, "createrepo", Command{Name: "createrepo"}.String())
}

func TestMissing(t *testing.T) {
	assert.True(t, Available("sh"))
	assert.Equal(t, []string{"apprepo-no-such-tool"}, Missing("sh", "apprepo-no-such-tool"))
	assert.Empty(t, Missing("sh"))
}
