package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/loanflow/pkg/domain"
)

// JSON-lines record types.
const (
	RecordMessage = "message"
	RecordTurn    = "turn"
	RecordSystem  = "system"
)

// Record is one line written by the JSONHandler.
type Record struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message,omitempty"`
	Turn    *domain.Turn    `json:"turn,omitempty"`
	Text    string          `json:"text,omitempty"`
}

// JSONHandler implements IOHandler over JSON lines, for driving the
// conversation from another process.
type JSONHandler struct {
	Reader    *bufio.Reader
	Sanitizer Sanitizer

	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:    bufio.NewReader(r),
		Sanitizer: NewSanitizer(),
		encoder:   json.NewEncoder(w),
	}
}

func (h *JSONHandler) write(rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(rec)
}

func (h *JSONHandler) Message(_ context.Context, msg domain.Message) error {
	return h.write(Record{Type: RecordMessage, Message: &msg})
}

func (h *JSONHandler) Output(_ context.Context, turn *domain.Turn) error {
	return h.write(Record{Type: RecordTurn, Turn: turn})
}

// Input reads one line. A JSON string is unquoted; anything else is taken as
// raw text.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if json.Unmarshal([]byte(text), &val) == nil {
		text = val
	}
	return h.Sanitizer.Clean(text)
}

func (h *JSONHandler) SystemOutput(_ context.Context, msg string) error {
	return h.write(Record{Type: RecordSystem, Text: msg})
}
