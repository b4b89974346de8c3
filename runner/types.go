package runner

import (
	"github.com/colorfulnotion/cairotrace/toolchain"
	"github.com/colorfulnotion/cairotrace/tracer"
)

// RunnerPayload is the body of POST /run and of every websocket message.
type RunnerPayload struct {
	CairoProgramCode string  `json:"cairo_program_code"`
	ProgramArguments *string `json:"program_arguments,omitempty"`
}

func (p RunnerPayload) Arguments() string {
	if p.ProgramArguments == nil {
		return ""
	}
	return *p.ProgramArguments
}

type RunnerResult struct {
	SierraProgramCode         string                           `json:"sierra_program_code"`
	CasmProgramCode           string                           `json:"casm_program_code"`
	CairoLangCompilerVersion  string                           `json:"cairo_lang_compiler_version"`
	SerializedOutput          *string                          `json:"serialized_output"`
	TracerData                *tracer.TracerData               `json:"tracer_data"`
	CasmFormattedInstructions []string                         `json:"casm_formatted_instructions"`
	CasmToSierraMap           map[uint64][]uint64              `json:"casm_to_sierra_map"`
	SierraFormattedProgram    toolchain.SierraFormattedProgram `json:"sierra_formatted_program"`
	Logs                      []LogEntry                       `json:"logs"`
}

// VersionInfo is served on GET /version.
type VersionInfo struct {
	CairoLangCompilerVersion string `json:"cairo_lang_compiler_version"`
	ServiceVersion           string `json:"service_version"`
	GitCommit                string `json:"git_commit"`
}
