package runner

import (
	"context"
	"sync/atomic"

	"github.com/colorfulnotion/cairotrace/debuginfo"
	"github.com/colorfulnotion/cairotrace/toolchain"
	"github.com/colorfulnotion/cairotrace/tracer"
	"github.com/holiman/uint256"
)

const (
	assertEqImm = 0x480680017fff8000 // [ap] = imm; ap++
	ret         = 0x208b7fff7fff7ffe
	testVersion = "2.6.3"
)

type fakeRunner struct {
	calls atomic.Int32
	run   func(source, args string) (*toolchain.RunResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, source string, args string) (*toolchain.RunResult, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.run(source, args)
}

func sampleRun() *toolchain.RunResult {
	out := "[5]"
	return &toolchain.RunResult{
		Artifacts: toolchain.Artifacts{
			SierraProgram: "type felt252 = felt252;\nreturn([0]);",
			SierraFormattedProgram: toolchain.SierraFormattedProgram{
				TypeDeclarations:    []string{"type felt252 = felt252;"},
				LibfuncDeclarations: []string{},
				Statements:          []string{"felt252_const<5>() -> ([0]);", "store_temp<felt252>([0]) -> ([0]);", "return([0]);"},
				Funcs:               []string{"main@0() -> (felt252);"},
			},
			CasmInstructions: []string{"[ap + 0] = 5, ap++;", "ret;"},
			SerializedOutput: &out,
			HeadersLen:       1,
			DebugInfo: debuginfo.ProgramDebugInfo{SierraStatementInfo: []debuginfo.StatementInfo{
				{InstructionIdx: 0}, {InstructionIdx: 0}, {InstructionIdx: 2},
			}},
			Diagnostics: []string{"warning: Unused variable.", "note: compiled"},
		},
		Trace: []tracer.TraceEntry{{PC: 1, AP: 10, FP: 10}, {PC: 3, AP: 11, FP: 10}},
		Memory: tracer.Memory{
			nil,
			uint256.NewInt(assertEqImm),
			uint256.NewInt(5),
			uint256.NewInt(ret),
		},
	}
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{run: func(string, string) (*toolchain.RunResult, error) {
		return sampleRun(), nil
	}}
}
