package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/bustub-shell/internal/logging"
	"github.com/aretw0/bustub-shell/pkg/classify"
	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/aretw0/bustub-shell/pkg/ports"
)

const (
	// DefaultPrompt is shown until the engine supplies its own.
	DefaultPrompt = "bustub> "
	// ContinuationMarker prefixes echoed lines of an unfinished statement.
	ContinuationMarker = "... "
	// ClearCommand empties the transcript locally.
	ClearCommand = `\clear`
	// EscapePrefix marks single-line meta commands.
	EscapePrefix = `\`
	// TruncationNotice follows output cut at the buffer capacity.
	TruncationNotice = "(output truncated)"
)

// Mode is the accumulation state of the session.
type Mode int

const (
	Idle Mode = iota
	Accumulating
)

func (m Mode) String() string {
	if m == Accumulating {
		return "accumulating"
	}
	return "idle"
}

// Outcome tells the caller what Submit did with a line.
type Outcome int

const (
	// OutcomeEmpty: nothing to run, the input line was cleared.
	OutcomeEmpty Outcome = iota
	// OutcomeAccumulating: the line was buffered, waiting for a terminator.
	OutcomeAccumulating
	// OutcomeDispatched: a statement was sent to the engine and its result applied.
	OutcomeDispatched
	// OutcomeCleared: the transcript was emptied locally.
	OutcomeCleared
	// OutcomeRejected: the line failed sanitization, or the statement grew too
	// large, and was dropped.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccumulating:
		return "accumulating"
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeCleared:
		return "cleared"
	case OutcomeRejected:
		return "rejected"
	default:
		return "empty"
	}
}

// State is a snapshot of the session for front-ends.
type State struct {
	Prompt        string
	Pending       string
	Input         string
	Mode          Mode
	Busy          bool
	HistoryCursor int
	Lines         int
}

// Option configures the Session.
type Option func(*Session)

// WithPrompt sets the initial prompt.
func WithPrompt(prompt string) Option {
	return func(s *Session) {
		if prompt != "" {
			s.prompt = prompt
		}
	}
}

// WithHistorySize caps the history.
func WithHistorySize(n int) Option {
	return func(s *Session) {
		s.history = NewHistory(n)
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithSanitizer replaces the input sanitizer.
func WithSanitizer(fn Sanitizer) Option {
	return func(s *Session) {
		s.sanitize = fn
	}
}

// WithMaxStatementSize caps the size in bytes of an accumulated statement.
// A statement that grows past it is dropped with an error line instead of
// reaching the engine. Zero means no limit.
func WithMaxStatementSize(n int) Option {
	return func(s *Session) {
		s.maxStatement = max(n, 0)
	}
}

// WithClock sets the time source used to stamp transcript lines.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// Session is one interactive shell session. Methods are safe for concurrent
// use; the lock is not held while the engine runs.
type Session struct {
	engine       ports.Engine
	logger       *slog.Logger
	sanitize     Sanitizer
	maxStatement int
	now          func() time.Time

	mu         sync.Mutex
	prompt     string
	pending    string
	input      string
	draft      string
	history    *History
	cursor     int
	busy       bool
	transcript []domain.SessionLine
}

// New creates an idle session talking to engine.
func New(engine ports.Engine, opts ...Option) *Session {
	s := &Session{
		engine:   engine,
		logger:   logging.NewNop(),
		sanitize: NewSanitizer(0),
		now:      time.Now,
		prompt:   DefaultPrompt,
		history:  NewHistory(DefaultHistorySize),
		cursor:   -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the engine and records the outcome in the transcript.
func (s *Session) Initialize(ctx context.Context) bool {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return false
	}
	s.busy = true
	s.appendLocked(domain.LineSystem, "Initializing BusTub database...")
	s.mu.Unlock()

	defer s.release()

	start := time.Now()
	ok := s.engine.Initialize(ctx)
	elapsed := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.appendLocked(domain.LineSystem, fmt.Sprintf("Database initialized successfully in %d ms", elapsed.Milliseconds()))
		s.appendLocked(domain.LineSystem, "")
		s.appendLocked(domain.LineSystem, "BusTub is a relational database management system built at Carnegie Mellon University")
		s.appendLocked(domain.LineSystem, "for the Introduction to Database Systems (15-445/645) course.")
		s.appendLocked(domain.LineSystem, "")
		s.appendLocked(domain.LineSystem, `Use \help to learn about the usage. Use \clear to clear the terminal.`)
		s.appendLocked(domain.LineSystem, "")
		return true
	}

	cause := errors.New(s.engine.Status().Label())
	if r, ok := s.engine.(ports.CauseReporter); ok && r.Cause() != nil {
		cause = r.Cause()
	}
	s.appendLocked(domain.LineError, "Failed to initialize database: "+cause.Error())
	return false
}

// Submit feeds one input line to the session. It returns domain.ErrBusy if a
// statement is still in flight. Engine failures are recorded in the
// transcript, not returned.
func (s *Session) Submit(ctx context.Context, line string) (Outcome, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return OutcomeRejected, domain.ErrBusy
	}

	clean, err := s.sanitize(line)
	if err != nil {
		s.input = ""
		s.appendLocked(domain.LineError, "Invalid input: "+err.Error())
		s.mu.Unlock()
		s.logger.Warn("input rejected", "error", err)
		return OutcomeRejected, nil
	}

	first := s.pending == ""
	combined := join(s.pending, clean)
	stmt := strings.TrimSpace(combined)
	echo := strings.TrimRight(clean, "\r\n")
	s.input = ""

	if stmt == "" {
		s.pending = ""
		s.appendLocked(domain.LineInput, s.prompt+echo)
		s.mu.Unlock()
		return OutcomeEmpty, nil
	}

	if s.maxStatement > 0 && len(stmt) > s.maxStatement {
		s.pending = ""
		err := fmt.Errorf("%w: statement size=%d limit=%d", ErrInputTooLarge, len(stmt), s.maxStatement)
		s.appendLocked(domain.LineError, "Invalid input: "+err.Error())
		s.mu.Unlock()
		s.logger.Warn("statement rejected", "error", err)
		return OutcomeRejected, nil
	}

	if !isComplete(stmt) {
		s.pending = combined
		s.appendLocked(domain.LineInput, ContinuationMarker+echo)
		s.mu.Unlock()
		return OutcomeAccumulating, nil
	}

	marker := ContinuationMarker
	if first {
		marker = s.prompt
	}
	s.appendLocked(domain.LineInput, marker+echo)
	s.pending = ""
	s.history.Add(stmt)
	s.cursor = -1
	s.draft = ""

	if stmt == ClearCommand {
		s.transcript = nil
		s.mu.Unlock()
		return OutcomeCleared, nil
	}

	s.busy = true
	s.mu.Unlock()

	s.dispatch(ctx, stmt)
	return OutcomeDispatched, nil
}

func (s *Session) dispatch(ctx context.Context, stmt string) {
	defer s.release()

	s.logger.Debug("dispatching statement", "statement", stmt)
	res := s.engine.Execute(ctx, stmt)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(res)
}

func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// applyLocked renders an engine result into the transcript.
func (s *Session) applyLocked(res domain.EngineResult) {
	if res.Prompt != "" {
		s.prompt = res.Prompt
	}

	kind := domain.LineOutput
	if !res.Success {
		kind = domain.LineError
	}

	if res.Output != "" {
		if classify.Classify(res.Output) == classify.Structured {
			s.transcript = append(s.transcript, s.newLine(kind, res.Output, true))
		} else {
			for _, l := range classify.ToLines(res.Output) {
				s.appendLocked(kind, l)
			}
		}
	}
	if res.Truncated() {
		s.appendLocked(domain.LineSystem, TruncationNotice)
	}
	if res.Error != "" && res.Output == "" {
		s.appendLocked(domain.LineError, res.Error)
	}
	if res.Output != "" || res.Error != "" {
		s.appendLocked(domain.LineOutput, "")
	}
}

// HistoryUp moves toward older entries and returns the new input.
func (s *Session) HistoryUp() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.history.Len()
	if n == 0 {
		return s.input
	}
	switch {
	case s.cursor == -1:
		s.draft = s.input
		s.cursor = 0
	case s.cursor < n-1:
		s.cursor++
	default:
		return s.input
	}
	s.input = s.history.Get(s.cursor)
	return s.input
}

// HistoryDown moves toward newer entries and returns the new input. Leaving
// the newest entry restores what was typed before browsing started.
func (s *Session) HistoryDown() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == -1 {
		return s.input
	}
	s.cursor--
	if s.cursor == -1 {
		s.input = s.draft
		s.draft = ""
	} else {
		s.input = s.history.Get(s.cursor)
	}
	return s.input
}

// Input returns the current input line.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// SetInput replaces the current input line, e.g. on every keystroke.
func (s *Session) SetInput(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = v
}

// Prompt returns the live prompt.
func (s *Session) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// Pending returns the unfinished statement buffer.
func (s *Session) Pending() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Mode reports whether a statement is being accumulated.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modeLocked()
}

// IsBusy reports whether a statement is in flight.
func (s *Session) IsBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Prompt:        s.prompt,
		Pending:       s.pending,
		Input:         s.input,
		Mode:          s.modeLocked(),
		Busy:          s.busy,
		HistoryCursor: s.cursor,
		Lines:         len(s.transcript),
	}
}

// Transcript returns a copy of the transcript.
func (s *Session) Transcript() []domain.SessionLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SessionLine(nil), s.transcript...)
}

// History returns the submitted statements, oldest first.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// Clear empties the transcript.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = nil
}

// Engine returns the engine the session dispatches to.
func (s *Session) Engine() ports.Engine {
	return s.engine
}

func (s *Session) modeLocked() Mode {
	if s.pending != "" {
		return Accumulating
	}
	return Idle
}

func (s *Session) appendLocked(kind domain.LineKind, text string) {
	s.transcript = append(s.transcript, s.newLine(kind, text, false))
}

func (s *Session) newLine(kind domain.LineKind, text string, structured bool) domain.SessionLine {
	return domain.SessionLine{
		ID:           uuid.NewString(),
		Kind:         kind,
		Text:         text,
		IsStructured: structured,
		Timestamp:    s.now(),
	}
}

// join appends line to the pending buffer, separated by a line break unless
// the buffer already ends with one.
func join(pending, line string) string {
	if pending == "" {
		return line
	}
	if strings.HasSuffix(pending, "\n") {
		return pending + line
	}
	return pending + "\n" + line
}

// IsExitCommand reports whether line is one of the words that leave the shell.
// Front-ends only honour it while the session is idle.
func IsExitCommand(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return true
	}
	return false
}

func isComplete(stmt string) bool {
	return strings.HasSuffix(stmt, ";") || strings.HasPrefix(stmt, EscapePrefix)
}
