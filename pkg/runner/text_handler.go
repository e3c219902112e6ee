package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/bustub-shell/pkg/domain"
)

// TextHandler reads input lines and prints transcript lines.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Styler   LineStyler
	Echo     bool

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerStyler configures line styling.
func WithTextHandlerStyler(styler LineStyler) TextHandlerOption {
	return func(h *TextHandler) {
		h.Styler = styler
	}
}

// WithTextHandlerEcho prints input echoes.
func WithTextHandlerEcho(echo bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.Echo = echo
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump feeds lines to Input so that a blocked read never blocks cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')

		if text != "" {
			h.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff for persistent read failures.
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// Input writes prompt and waits for one line. The trailing line break is
// removed. It returns io.EOF once the reader is exhausted.
func (h *TextHandler) Input(ctx context.Context, prompt string) (string, error) {
	h.initPump()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		fmt.Fprint(h.Writer, prompt)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-h.inputChan:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimRight(res.text, "\r\n"), nil
	}
}

// Print writes transcript lines. Input echoes are skipped unless Echo is set.
func (h *TextHandler) Print(lines []domain.SessionLine) {
	for _, l := range lines {
		if l.Kind == domain.LineInput && !h.Echo {
			continue
		}
		text := l.Text
		if l.IsStructured && h.Renderer != nil {
			if rendered, err := h.Renderer(text); err == nil {
				text = strings.TrimRight(rendered, "\n")
			}
		}
		if h.Styler != nil {
			text = h.Styler(l.Kind, text)
		}
		fmt.Fprintln(h.Writer, text)
	}
}
