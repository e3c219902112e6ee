package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bustub-shell/pkg/bridge"
	"github.com/aretw0/bustub-shell/pkg/bridge/bridgetest"
	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/aretw0/bustub-shell/pkg/session"
)

func newSession(t *testing.T, script bridgetest.Script) (*session.Session, *bridgetest.Module) {
	t.Helper()
	mod := bridgetest.NewModule(1<<20, script)
	b := bridge.New(&bridgetest.Runtime{Module: mod})
	require.True(t, b.Initialize(context.Background()))
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return session.New(b), mod
}

func TestRunner_ExecutesStatements(t *testing.T) {
	s, mod := newSession(t, func(cmd string) bridgetest.Reply {
		return bridgetest.Reply{Output: "result of " + cmd + "\n"}
	})
	in := strings.NewReader("SELECT 1;\nSELECT a\nFROM t;\n")
	out := &bytes.Buffer{}

	r := NewRunner(WithInput(in), WithOutput(out))
	require.NoError(t, r.Run(context.Background(), s))

	assert.Equal(t, []string{"SELECT 1;", "SELECT a\nFROM t;"}, mod.Commands())
	got := out.String()
	assert.Contains(t, got, "bustub> ")
	assert.Contains(t, got, "... ")
	assert.Contains(t, got, "result of SELECT 1;")
	assert.NotContains(t, got, "bustub> SELECT 1;", "input echoes are hidden by default")
}

func TestRunner_EchoAndStyler(t *testing.T) {
	s, _ := newSession(t, nil)
	out := &bytes.Buffer{}

	r := NewRunner(
		WithInput(strings.NewReader("SELECT 1;\n")),
		WithOutput(out),
		WithEcho(true),
		WithStyler(func(kind domain.LineKind, text string) string {
			return "[" + string(kind) + "]" + text
		}),
	)
	require.NoError(t, r.Run(context.Background(), s))

	assert.Contains(t, out.String(), "[input]bustub> SELECT 1;\n")
	assert.Contains(t, out.String(), "[output]SELECT 1;\n")
}

func TestRunner_StopsOnExitWord(t *testing.T) {
	s, mod := newSession(t, nil)
	r := NewRunner(WithInput(strings.NewReader("exit\nSELECT 1;\n")), WithOutput(io.Discard))

	require.NoError(t, r.Run(context.Background(), s))
	assert.Empty(t, mod.Commands())
}

func TestRunner_ExitInsideStatementIsData(t *testing.T) {
	s, mod := newSession(t, nil)
	r := NewRunner(WithInput(strings.NewReader("SELECT\nexit;\n")), WithOutput(io.Discard))

	require.NoError(t, r.Run(context.Background(), s))
	assert.Equal(t, []string{"SELECT\nexit;"}, mod.Commands())
}

func TestRunner_RendersStructuredOutput(t *testing.T) {
	s, _ := newSession(t, func(string) bridgetest.Reply {
		return bridgetest.Reply{Output: "<table><tr><td>1</td></tr></table>"}
	})
	out := &bytes.Buffer{}
	r := NewRunner(
		WithInput(strings.NewReader("SELECT 1;\n")),
		WithOutput(out),
		WithRenderer(func(string) (string, error) { return "| 1 |\n", nil }),
	)

	require.NoError(t, r.Run(context.Background(), s))
	assert.Contains(t, out.String(), "| 1 |\n")
	assert.NotContains(t, out.String(), "<table>")
}

func TestRunner_RendererErrorFallsBackToRawText(t *testing.T) {
	s, _ := newSession(t, func(string) bridgetest.Reply {
		return bridgetest.Reply{Output: "a &lt; b"}
	})
	out := &bytes.Buffer{}
	r := NewRunner(
		WithInput(strings.NewReader("SELECT 1;\n")),
		WithOutput(out),
		WithRenderer(func(string) (string, error) { return "", errors.New("bad markup") }),
	)

	require.NoError(t, r.Run(context.Background(), s))
	assert.Contains(t, out.String(), "a &lt; b")
}

func TestRunner_ClearResetsPrinting(t *testing.T) {
	s, _ := newSession(t, func(cmd string) bridgetest.Reply {
		return bridgetest.Reply{Output: "out:" + cmd}
	})
	out := &bytes.Buffer{}
	r := NewRunner(WithInput(strings.NewReader("SELECT 1;\n\\clear\nSELECT 2;\n")), WithOutput(out))

	require.NoError(t, r.Run(context.Background(), s))
	assert.Equal(t, 1, strings.Count(out.String(), "out:SELECT 1;"))
	assert.Equal(t, 1, strings.Count(out.String(), "out:SELECT 2;"))
}

func TestRunner_PrintsExistingTranscript(t *testing.T) {
	mod := bridgetest.NewModule(1<<16, nil)
	b := bridge.New(&bridgetest.Runtime{Module: mod})
	defer b.Close(context.Background())
	s := session.New(b)
	require.True(t, s.Initialize(context.Background()))

	out := &bytes.Buffer{}
	require.NoError(t, NewRunner(WithInput(strings.NewReader("")), WithOutput(out)).Run(context.Background(), s))
	assert.Contains(t, out.String(), "Initializing BusTub database...")
}

func TestRunner_ContextCancel(t *testing.T) {
	s, _ := newSession(t, nil)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewRunner(WithInput(pr), WithOutput(io.Discard)).Run(ctx, s)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop on cancel")
	}
}

func TestTextHandler_Input(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewTextHandler(strings.NewReader("my user input\r\n"), out)

	val, err := h.Input(context.Background(), "> ")
	require.NoError(t, err)
	assert.Equal(t, "my user input", val)
	assert.Equal(t, "> ", out.String())

	_, err = h.Input(context.Background(), "> ")
	assert.ErrorIs(t, err, io.EOF)
}
