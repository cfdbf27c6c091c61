// Package stream implements the Event Stream Encoder (C9): newline-
// delimited JSON frames over an http.ResponseWriter, flushed after
// every write so callers see progress in real time.
//
// Grounded on pkg/server/http.go's "don't wrap ResponseWriter - it
// breaks http.Flusher for SSE" discipline: the encoder holds the raw
// http.ResponseWriter and its http.Flusher directly rather than
// introducing a buffering layer in front of them.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/brandloom/agentforge/pkg/media"
)

// FrameType is one of the recognised NDJSON frame kinds (spec §4.9).
type FrameType string

const (
	FrameLog           FrameType = "log"
	FrameThought       FrameType = "thought"
	FrameToolCall      FrameType = "tool_call"
	FrameToolResult    FrameType = "tool_result"
	FrameTextDelta     FrameType = "text_delta"
	FrameContextUpdate FrameType = "context_update"
	FrameFinalResponse FrameType = "final_response"
	FrameError         FrameType = "error"
)

// Frame is one NDJSON line. Fields beyond Type are populated
// according to FrameType; omitempty keeps each line minimal.
type Frame struct {
	Type FrameType `json:"type"`

	Content string `json:"content,omitempty"`

	Name string         `json:"name,omitempty"`
	Args map[string]any `json:"args,omitempty"`

	Status string         `json:"status,omitempty"`
	Result map[string]any `json:"result,omitempty"`

	Delta string `json:"delta,omitempty"`

	TokenUsage  int            `json:"tokenUsage,omitempty"`
	ActiveMedia []media.Handle `json:"activeMedia,omitempty"`

	ImageURLs []string `json:"imageUrls,omitempty"`
	VideoURLs []string `json:"videoUrls,omitempty"`
	MusicURLs []string `json:"musicUrls,omitempty"`

	Message string `json:"message,omitempty"`
}

// Emitter is what the Agent Loop (C8) depends on to publish frames —
// kept as a narrow interface so C8 never imports net/http directly
// and can be driven by tests with a slice-backed fake.
type Emitter interface {
	Emit(f Frame) error
}

// Encoder writes Frames as NDJSON to an http.ResponseWriter, flushing
// after every line.
type Encoder struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	enc     *json.Encoder
}

// NewEncoder wraps w directly — never pass a wrapped ResponseWriter,
// or Flush will silently stop working (see package doc).
func NewEncoder(w http.ResponseWriter) *Encoder {
	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)
	return &Encoder{w: w, flusher: flusher, enc: json.NewEncoder(w)}
}

func (e *Encoder) Emit(f Frame) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.enc.Encode(f); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}

// Recorder is an in-memory Emitter for tests and for the job-poller's
// detached continuation, which has no live HTTP response to write to.
type Recorder struct {
	mu     sync.Mutex
	Frames []Frame
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Frames = append(r.Frames, f)
	return nil
}

var _ Emitter = (*Encoder)(nil)
var _ Emitter = (*Recorder)(nil)
