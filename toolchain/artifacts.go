package toolchain

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/colorfulnotion/cairotrace/debuginfo"
	"github.com/colorfulnotion/cairotrace/tracer"
	"github.com/colorfulnotion/cairotrace/tracererrors"
)

type SierraFormattedProgram struct {
	TypeDeclarations    []string `json:"type_declarations"`
	LibfuncDeclarations []string `json:"libfunc_declarations"`
	Statements          []string `json:"statements"`
	Funcs               []string `json:"funcs"`
}

// Artifacts is the JSON document the toolchain writes next to the trace and
// memory files.
type Artifacts struct {
	SierraProgram          string                     `json:"sierra_program"`
	SierraFormattedProgram SierraFormattedProgram     `json:"sierra_formatted_program"`
	CasmInstructions       []string                   `json:"casm_instructions"`
	SerializedOutput       *string                    `json:"serialized_output"`
	HeadersLen             uint64                     `json:"headers_len"`
	DebugInfo              debuginfo.ProgramDebugInfo `json:"debug_info"`
	Diagnostics            []string                   `json:"diagnostics"`
}

// RunResult is everything one toolchain run produced.
type RunResult struct {
	Artifacts
	Trace  []tracer.TraceEntry
	Memory tracer.Memory
}

func ReadArtifacts(path string) (*Artifacts, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tracererrors.ErrMalformedArtifacts, err)
	}
	var a Artifacts
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", tracererrors.ErrMalformedArtifacts, path, err)
	}
	return &a, nil
}

// LoadRun reads the three files of a finished run.
func LoadRun(tracePath, memoryPath, artifactsPath string) (*RunResult, error) {
	a, err := ReadArtifacts(artifactsPath)
	if err != nil {
		return nil, err
	}
	trace, err := readFile(tracePath, ReadTrace)
	if err != nil {
		return nil, err
	}
	mem, err := readFile(memoryPath, ReadMemory)
	if err != nil {
		return nil, err
	}
	return &RunResult{Artifacts: *a, Trace: trace, Memory: mem}, nil
}

// ReadTraceFile and ReadMemoryFile open path and decode it.
func ReadTraceFile(path string) ([]tracer.TraceEntry, error) { return readFile(path, ReadTrace) }

func ReadMemoryFile(path string) (tracer.Memory, error) { return readFile(path, ReadMemory) }

func readFile[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", tracererrors.ErrMalformedArtifacts, err)
	}
	defer f.Close()
	return decode(f)
}
