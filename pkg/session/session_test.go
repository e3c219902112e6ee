package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bustub-shell/pkg/bridge"
	"github.com/aretw0/bustub-shell/pkg/bridge/bridgetest"
	"github.com/aretw0/bustub-shell/pkg/domain"
)

// recordingEngine answers with a fixed result and records every statement.
type recordingEngine struct {
	mu      sync.Mutex
	calls   []string
	result  func(cmd string) domain.EngineResult
	block   chan struct{}
	ready   bool
	status  domain.Status
	cause   error
	entered chan struct{}
}

func (e *recordingEngine) Initialize(context.Context) bool { return e.ready }

func (e *recordingEngine) Status() domain.Status {
	if e.status == "" {
		return domain.StatusReady
	}
	return e.status
}

func (e *recordingEngine) Cause() error { return e.cause }

func (e *recordingEngine) Execute(_ context.Context, cmd string) domain.EngineResult {
	e.mu.Lock()
	e.calls = append(e.calls, cmd)
	e.mu.Unlock()
	if e.entered != nil {
		e.entered <- struct{}{}
	}
	if e.block != nil {
		<-e.block
	}
	if e.result != nil {
		return e.result(cmd)
	}
	return domain.DecodeResult(0, "", "ok\n")
}

func (e *recordingEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func texts(lines []domain.SessionLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestSubmit_SingleLineStatement(t *testing.T) {
	eng := &recordingEngine{}
	s := New(eng)

	out, err := s.Submit(context.Background(), "  SELECT 1;  ")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDispatched, out)
	assert.Equal(t, []string{"SELECT 1;"}, eng.Calls())

	lines := s.Transcript()
	require.Len(t, lines, 3)
	assert.Equal(t, domain.LineInput, lines[0].Kind)
	assert.Equal(t, "bustub>   SELECT 1;  ", lines[0].Text)
	assert.Equal(t, domain.LineOutput, lines[1].Kind)
	assert.Equal(t, "ok", lines[1].Text)
	assert.Equal(t, "", lines[2].Text, "trailing separator")
	assert.NotEmpty(t, lines[0].ID)
	assert.NotEqual(t, lines[0].ID, lines[1].ID)
}

func TestSubmit_MultiLineStatement(t *testing.T) {
	eng := &recordingEngine{}
	s := New(eng)
	ctx := context.Background()

	out, err := s.Submit(ctx, "SELECT 1\n")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccumulating, out)
	assert.Equal(t, Accumulating, s.Mode())
	assert.Equal(t, "SELECT 1\n", s.Pending())
	assert.Empty(t, eng.Calls())

	lines := s.Transcript()
	require.Len(t, lines, 1)
	assert.Equal(t, domain.LineInput, lines[0].Kind)
	assert.Equal(t, "... SELECT 1", lines[0].Text)

	out, err = s.Submit(ctx, "FROM x;")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDispatched, out)
	assert.Equal(t, []string{"SELECT 1\nFROM x;"}, eng.Calls())
	assert.Equal(t, "", s.Pending())
	assert.Equal(t, Idle, s.Mode())
	assert.Equal(t, "... FROM x;", s.Transcript()[1].Text)
}

func TestSubmit_LinesWithoutBreaksAreJoined(t *testing.T) {
	eng := &recordingEngine{}
	s := New(eng)
	ctx := context.Background()

	for _, l := range []string{"SELECT a,", "  b", "FROM t", ";"} {
		_, err := s.Submit(ctx, l)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"SELECT a,\n  b\nFROM t\n;"}, eng.Calls())
}

func TestSubmit_EscapeCommandDispatchesImmediately(t *testing.T) {
	eng := &recordingEngine{}
	s := New(eng)

	out, err := s.Submit(context.Background(), `\dt`)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDispatched, out)
	assert.Equal(t, []string{`\dt`}, eng.Calls())
}

func TestSubmit_ClearIsLocal(t *testing.T) {
	eng := &recordingEngine{}
	s := New(eng)
	ctx := context.Background()

	_, _ = s.Submit(ctx, "SELECT 1;")
	_, _ = s.Submit(ctx, "SELECT 2;")
	require.NotEmpty(t, s.Transcript())
	calls := len(eng.Calls())

	out, err := s.Submit(ctx, `\clear`)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCleared, out)
	assert.Empty(t, s.Transcript())
	assert.Len(t, eng.Calls(), calls, "engine must not see \\clear")
	assert.Equal(t, `\clear`, s.History()[2])
}

func TestSubmit_EmptyStatement(t *testing.T) {
	eng := &recordingEngine{}
	s := New(eng)
	s.SetInput("   ")

	out, err := s.Submit(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, out)
	assert.Empty(t, eng.Calls())
	assert.Empty(t, s.History())
	assert.Equal(t, "", s.Input())
	assert.Equal(t, Idle, s.Mode())
}

func TestSubmit_RejectsWhileBusy(t *testing.T) {
	eng := &recordingEngine{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := New(eng)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Submit(ctx, "SELECT 1;")
	}()

	<-eng.entered
	assert.True(t, s.IsBusy())

	out, err := s.Submit(ctx, "SELECT 2;")
	assert.ErrorIs(t, err, domain.ErrBusy)
	assert.Equal(t, OutcomeRejected, out)

	close(eng.block)
	<-done
	assert.False(t, s.IsBusy())
	assert.Equal(t, []string{"SELECT 1;"}, eng.Calls())
}

func TestSubmit_BusyClearedWhenEnginePanics(t *testing.T) {
	eng := &recordingEngine{result: func(string) domain.EngineResult { panic("boom") }}
	s := New(eng)

	assert.Panics(t, func() { _, _ = s.Submit(context.Background(), "SELECT 1;") })
	assert.False(t, s.IsBusy())

	eng.result = nil
	out, err := s.Submit(context.Background(), "SELECT 2;")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDispatched, out)
}

func TestSubmit_SanitizerRejection(t *testing.T) {
	eng := &recordingEngine{}
	s := New(eng, WithSanitizer(NewSanitizer(8)))

	out, err := s.Submit(context.Background(), "SELECT * FROM big;")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, out)
	assert.Empty(t, eng.Calls())

	lines := s.Transcript()
	require.Len(t, lines, 1)
	assert.Equal(t, domain.LineError, lines[0].Kind)
	assert.Contains(t, lines[0].Text, "exceeds maximum allowed size")
}

func TestSubmit_StatementLimitAppliesToAccumulatedLines(t *testing.T) {
	eng := &recordingEngine{}
	s := New(eng, WithSanitizer(NewSanitizer(15)), WithMaxStatementSize(15))
	ctx := context.Background()

	out, err := s.Submit(ctx, "DELETE FROM t")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccumulating, out)

	// Each line fits, the joined statement does not.
	out, err = s.Submit(ctx, "WHERE id = 7;")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, out)
	assert.Empty(t, eng.Calls())
	assert.Equal(t, Idle, s.Mode())
	assert.Empty(t, s.State().Pending)

	lines := s.Transcript()
	last := lines[len(lines)-1]
	assert.Equal(t, domain.LineError, last.Kind)
	assert.Equal(t, "Invalid input: input exceeds maximum allowed size: statement size=27 limit=15", last.Text)

	// The session recovers for the next statement.
	out, err = s.Submit(ctx, "SELECT 1;")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDispatched, out)
	assert.Equal(t, []string{"SELECT 1;"}, eng.Calls())
}

func TestApplyResult(t *testing.T) {
	tests := []struct {
		name      string
		result    domain.EngineResult
		wantKinds []domain.LineKind
		wantTexts []string
	}{
		{
			name:      "plain output",
			result:    domain.DecodeResult(0, "", "a\nb\n"),
			wantKinds: []domain.LineKind{domain.LineOutput, domain.LineOutput, domain.LineOutput},
			wantTexts: []string{"a", "b", ""},
		},
		{
			name:      "truncated output is not an error",
			result:    domain.DecodeResult(1, "", "row\n"),
			wantKinds: []domain.LineKind{domain.LineOutput, domain.LineSystem, domain.LineOutput},
			wantTexts: []string{"row", TruncationNotice, ""},
		},
		{
			name:      "engine failure with output",
			result:    domain.DecodeResult(2, "", "Parser error"),
			wantKinds: []domain.LineKind{domain.LineError, domain.LineOutput},
			wantTexts: []string{"Parser error", ""},
		},
		{
			name:      "failure without output",
			result:    domain.FailedResult(domain.ErrEngineUnavailable),
			wantKinds: []domain.LineKind{domain.LineError, domain.LineOutput},
			wantTexts: []string{"engine unavailable", ""},
		},
		{
			name:   "no output at all",
			result: domain.DecodeResult(0, "", ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &recordingEngine{result: func(string) domain.EngineResult { return tt.result }}
			s := New(eng)
			_, err := s.Submit(context.Background(), "SELECT 1;")
			require.NoError(t, err)

			lines := s.Transcript()[1:]
			kinds := make([]domain.LineKind, len(lines))
			for i, l := range lines {
				kinds[i] = l.Kind
			}
			if tt.wantKinds == nil {
				assert.Empty(t, lines)
				return
			}
			assert.Equal(t, tt.wantKinds, kinds)
			assert.Equal(t, tt.wantTexts, texts(lines))
		})
	}
}

func TestApplyResult_StructuredOutputIsOneLine(t *testing.T) {
	table := "<table>\n<tr><td>1</td></tr>\n</table>\n"
	eng := &recordingEngine{result: func(string) domain.EngineResult { return domain.DecodeResult(0, "", table) }}
	s := New(eng)

	_, err := s.Submit(context.Background(), "SELECT 1;")
	require.NoError(t, err)

	lines := s.Transcript()
	require.Len(t, lines, 3)
	assert.True(t, lines[1].IsStructured)
	assert.Equal(t, table, lines[1].Text)
}

func TestApplyResult_PromptReplaced(t *testing.T) {
	eng := &recordingEngine{result: func(cmd string) domain.EngineResult {
		if cmd == "BEGIN;" {
			return domain.DecodeResult(0, "bustub(txn)> ", "")
		}
		return domain.DecodeResult(0, "", "")
	}}
	s := New(eng)
	ctx := context.Background()

	_, _ = s.Submit(ctx, "BEGIN;")
	assert.Equal(t, "bustub(txn)> ", s.Prompt())

	_, _ = s.Submit(ctx, "SELECT 1;")
	assert.Equal(t, "bustub(txn)> ", s.Prompt(), "empty prompt keeps the current one")
	assert.Equal(t, "bustub(txn)> SELECT 1;", s.Transcript()[1].Text)
}

func TestHistoryNavigation(t *testing.T) {
	s := New(&recordingEngine{})
	ctx := context.Background()
	_, _ = s.Submit(ctx, "A;")
	_, _ = s.Submit(ctx, "B;")

	assert.Equal(t, "B;", s.HistoryUp())
	assert.Equal(t, "A;", s.HistoryUp())
	assert.Equal(t, "A;", s.HistoryUp(), "up at the oldest entry is a no-op")
	assert.Equal(t, "A;", s.Input())

	assert.Equal(t, "B;", s.HistoryDown())
	assert.Equal(t, "B;", s.Input())
	assert.Equal(t, []string{"A;", "B;"}, s.History())
}

func TestHistoryNavigation_RestoresDraft(t *testing.T) {
	s := New(&recordingEngine{})
	ctx := context.Background()
	_, _ = s.Submit(ctx, "A;")

	s.SetInput("SEL")
	assert.Equal(t, "A;", s.HistoryUp())
	assert.Equal(t, "SEL", s.HistoryDown())
	assert.Equal(t, "SEL", s.HistoryDown(), "down while not browsing is a no-op")
	assert.Equal(t, -1, s.State().HistoryCursor)
}

func TestHistoryNavigation_Empty(t *testing.T) {
	s := New(&recordingEngine{})
	s.SetInput("x")
	assert.Equal(t, "x", s.HistoryUp())
	assert.Equal(t, "x", s.HistoryDown())
}

func TestHistory_DuplicatesAndSubmitResetsCursor(t *testing.T) {
	s := New(&recordingEngine{})
	ctx := context.Background()
	_, _ = s.Submit(ctx, "A;")
	_, _ = s.Submit(ctx, "A;")
	s.HistoryUp()

	_, _ = s.Submit(ctx, "B;")
	assert.Equal(t, []string{"A;", "A;", "B;"}, s.History())
	assert.Equal(t, -1, s.State().HistoryCursor)
}

func TestInitialize(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := New(&recordingEngine{ready: true})
		assert.True(t, s.Initialize(context.Background()))

		lines := texts(s.Transcript())
		assert.Equal(t, "Initializing BusTub database...", lines[0])
		assert.Regexp(t, `^Database initialized successfully in \d+ ms$`, lines[1])
		assert.Contains(t, lines, `Use \help to learn about the usage. Use \clear to clear the terminal.`)
		assert.False(t, s.IsBusy())
	})

	t.Run("failure reports cause", func(t *testing.T) {
		s := New(&recordingEngine{status: domain.StatusFallback, cause: errors.New("artifact not found")})
		assert.False(t, s.Initialize(context.Background()))

		lines := s.Transcript()
		last := lines[len(lines)-1]
		assert.Equal(t, domain.LineError, last.Kind)
		assert.Equal(t, "Failed to initialize database: artifact not found", last.Text)
	})
}

func TestSession_WithBridge(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("fallback never reaches the engine", func(t *testing.T) {
		b := bridge.New(&bridgetest.Runtime{Err: errors.New("fetch failed")})
		s := New(b, WithClock(func() time.Time { return fixed }))
		require.False(t, s.Initialize(context.Background()))

		out, err := s.Submit(context.Background(), "SELECT 1;")
		require.NoError(t, err)
		assert.Equal(t, OutcomeDispatched, out)

		lines := s.Transcript()
		errLine := lines[len(lines)-2]
		assert.Equal(t, domain.LineError, errLine.Kind)
		assert.Equal(t, "engine unavailable", errLine.Text)
		assert.Equal(t, fixed, errLine.Timestamp)
	})

	t.Run("truncated output", func(t *testing.T) {
		mod := bridgetest.NewModule(1<<16, func(string) bridgetest.Reply {
			return bridgetest.Reply{Output: "0123456789abcdef0123456789"}
		})
		b := bridge.New(&bridgetest.Runtime{Module: mod}, bridge.WithBufferCapacity(16))
		defer b.Close(context.Background())

		s := New(b)
		require.True(t, s.Initialize(context.Background()))
		s.Clear()

		_, err := s.Submit(context.Background(), "SELECT * FROM t;")
		require.NoError(t, err)

		lines := s.Transcript()
		require.Len(t, lines, 4)
		assert.Equal(t, domain.LineOutput, lines[1].Kind)
		assert.Equal(t, "0123456789abcde", lines[1].Text)
		assert.Equal(t, domain.LineSystem, lines[2].Kind)
		assert.Equal(t, TruncationNotice, lines[2].Text)
	})
}

func TestIsExitCommand(t *testing.T) {
	for _, line := range []string{"exit", "quit", "  EXIT  ", "Quit\n"} {
		assert.True(t, IsExitCommand(line), line)
	}
	for _, line := range []string{"", "exit;", "quit now", `\quit`, "SELECT exit FROM t;"} {
		assert.False(t, IsExitCommand(line), line)
	}
}

func TestOutcomeAndModeStrings(t *testing.T) {
	assert.Equal(t, "dispatched", OutcomeDispatched.String())
	assert.Equal(t, "empty", OutcomeEmpty.String())
	assert.Equal(t, "accumulating", Accumulating.String())
	assert.Equal(t, "idle", Idle.String())
}
