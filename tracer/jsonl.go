package tracer

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/colorfulnotion/cairotrace/casm"
)

// Step is one executed trace entry joined with the instruction it ran.
type Step struct {
	Step        int               `json:"step"`
	PC          uint64            `json:"pc"`
	AP          uint64            `json:"ap"`
	FP          uint64            `json:"fp"`
	InstIndex   *uint64           `json:"inst_index,omitempty"`
	Instruction *casm.Instruction `json:"instruction,omitempty"`
}

// StepWriter writes Step records as JSON Lines (one JSON object per line).
// It is safe for concurrent use by multiple goroutines.
type StepWriter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	buf    *bufio.Writer
	closer io.Closer // only set when we own the underlying writer
	closed bool
}

// ErrStepWriterClosed is returned when WriteStep is called after Close.
var ErrStepWriterClosed = errors.New("jsonl step writer is closed")

// NewStepWriter creates a StepWriter using the provided io.Writer. The writer
// passed in is NOT closed by StepWriter; Close only flushes.
func NewStepWriter(w io.Writer) *StepWriter {
	buf := bufio.NewWriterSize(w, 64*1024)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &StepWriter{enc: enc, buf: buf}
}

// NewStepWriterFile creates (or truncates) path and returns a StepWriter that
// owns the file.
func NewStepWriterFile(path string) (*StepWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := NewStepWriter(f)
	w.closer = f
	return w, nil
}

func (w *StepWriter) WriteStep(step *Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrStepWriterClosed
	}
	return w.enc.Encode(step)
}

// WriteTrace writes one Step per entry of data.Trace, in execution order.
func (w *StepWriter) WriteTrace(data *TracerData) error {
	for i, e := range data.Trace {
		step := &Step{Step: i, PC: e.PC, AP: e.AP, FP: e.FP}
		if idx, ok := data.PcToInstIndexesMap[e.PC]; ok {
			step.InstIndex = &idx
		}
		if inst, ok := data.PcInstMap[e.PC]; ok {
			step.Instruction = &inst
		}
		if err := w.WriteStep(step); err != nil {
			return err
		}
	}
	return nil
}

// Flush forces buffered data to be written to the underlying writer.
func (w *StepWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrStepWriterClosed
	}
	return w.buf.Flush()
}

// Close flushes any buffered data and closes the file when the writer owns it.
func (w *StepWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.buf.Flush(); err != nil {
		if w.closer != nil {
			_ = w.closer.Close()
		}
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
