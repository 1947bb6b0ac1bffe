package worker

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/agbru/peuler/internal/euler"
)

// MaxMessageSize is the maximum allowed frame payload (16 MiB).
const MaxMessageSize = 16 << 20

// Kind names a request the unit understands.
type Kind string

const (
	KindProblems  Kind = "problems"
	KindSolve     Kind = "solve"
	KindBenchmark Kind = "benchmark"
)

// Valid reports whether k is one of the known request kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindProblems, KindSolve, KindBenchmark:
		return true
	}
	return false
}

// NeedsProblem reports whether requests of kind k must carry a problem id.
func (k Kind) NeedsProblem() bool {
	return k == KindSolve || k == KindBenchmark
}

// Request is the host to unit payload.
type Request struct {
	ID        string `json:"id"`
	Epoch     uint64 `json:"epoch"`
	Kind      Kind   `json:"kind"`
	ProblemID *int   `json:"problemId,omitempty"`
}

// Unit to host message types.
const (
	MsgReady  = "ready"
	MsgResult = "result"
	MsgError  = "error"
)

// Error classes carried by MsgError frames.
const (
	ErrorKindComputation = "computation"
	ErrorKindProtocol    = "protocol"
)

// WireError describes a failed request.
type WireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Message is the envelope for all unit to host frames. The unit sends one
// MsgReady frame, then exactly one MsgResult or MsgError frame per request,
// echoing the request's ID and Epoch.
type Message struct {
	Type          string       `json:"type"`
	ID            string       `json:"id,omitempty"`
	Epoch         uint64       `json:"epoch,omitempty"`
	Problems      []euler.Info `json:"problems,omitempty"`
	Answer        string       `json:"answer,omitempty"`
	DurationNanos int64        `json:"durationNanos,omitempty"`
	Error         *WireError   `json:"error,omitempty"`
}

// WriteMessage writes a length-prefixed JSON message to w.
// The frame format is: 4-byte big-endian length prefix followed by the JSON payload.
func WriteMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if len(data) > MaxMessageSize {
		return fmt.Errorf("message size %d exceeds maximum %d", len(data), MaxMessageSize)
	}

	// One write per frame keeps frames intact on pipes shared with nothing else.
	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadMessage reads a length-prefixed JSON message from r and decodes it into v.
// A clean end of stream before a length prefix is returned as io.EOF.
func ReadMessage(r io.Reader, v any) error {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("read length prefix: %w", err)
	}

	length := binary.BigEndian.Uint32(prefix[:])
	if length > MaxMessageSize {
		return fmt.Errorf("message size %d exceeds maximum %d", length, MaxMessageSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	return nil
}
