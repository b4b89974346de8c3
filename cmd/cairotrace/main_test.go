package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/colorfulnotion/cairotrace/debuginfo"
	"github.com/colorfulnotion/cairotrace/toolchain"
	"github.com/colorfulnotion/cairotrace/tracer"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	assertEqImm = 0x480680017fff8000
	ret         = 0x208b7fff7fff7ffe
)

func writeRun(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, toolchain.WriteTrace(&buf, []tracer.TraceEntry{{PC: 1, AP: 8, FP: 8}, {PC: 3, AP: 9, FP: 8}}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trace.bin"), buf.Bytes(), 0o600))

	buf.Reset()
	mem := tracer.Memory{nil, uint256.NewInt(assertEqImm), uint256.NewInt(7), uint256.NewInt(ret)}
	require.NoError(t, toolchain.WriteMemory(&buf, mem))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "memory.bin"), buf.Bytes(), 0o600))

	artifacts := toolchain.Artifacts{
		SierraProgram: "return([0]);",
		SierraFormattedProgram: toolchain.SierraFormattedProgram{
			Statements: []string{"felt252_const<7>() -> ([0]);", "store_temp<felt252>([0]) -> ([0]);", "return([0]);"},
		},
		CasmInstructions: []string{"[ap + 0] = 7, ap++;", "ret;"},
		HeadersLen:       0,
		DebugInfo: debuginfo.ProgramDebugInfo{SierraStatementInfo: []debuginfo.StatementInfo{
			{InstructionIdx: 0}, {InstructionIdx: 1}, {InstructionIdx: 1},
		}},
	}
	raw, err := json.Marshal(artifacts)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "artifacts.json"), raw, 0o600))
	return dir
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestTraceCommand(t *testing.T) {
	dir := writeRun(t)
	steps := filepath.Join(dir, "steps.jsonl")
	out := execute(t, "trace",
		"--trace", filepath.Join(dir, "trace.bin"),
		"--memory", filepath.Join(dir, "memory.bin"),
		"--steps", steps)

	var data struct {
		PcToInstIndexesMap map[string]uint64 `json:"pc_to_inst_indexes_map"`
		Memory             map[string]string `json:"memory"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, map[string]uint64{"1": 0, "3": 1}, data.PcToInstIndexesMap)
	assert.Equal(t, "0x7", data.Memory["3"])

	raw, err := os.ReadFile(steps)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(raw)), "\n"), 2)
}

func TestInspectCommand(t *testing.T) {
	dir := writeRun(t)
	out := execute(t, "inspect",
		"--trace", filepath.Join(dir, "trace.bin"),
		"--memory", filepath.Join(dir, "memory.bin"),
		"--artifacts", filepath.Join(dir, "artifacts.json"))

	assert.Contains(t, out, "program (3 statements, 2 instructions, 2 steps)")
	assert.Contains(t, out, "statement 0: felt252_const<7>() -> ([0]);")
	assert.Contains(t, out, "#0 pc=1 [ap + 0] = 7, ap++; (executed 1)")
	assert.Contains(t, out, "statement 1: store_temp<felt252>([0]) -> ([0]);")
	assert.Contains(t, out, "statement 2: return([0]);")
	assert.Equal(t, 2, strings.Count(out, "starts statements [1 2]"))
	assert.Contains(t, out, "#1 pc=3 ret; (executed 1)")
	assert.Contains(t, out, "AssertEq")
	assert.Contains(t, out, "Ret")
}

func TestTraceCommandRequiresFlags(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"trace"})
	require.Error(t, cmd.Execute())
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.True(t, strings.HasPrefix(out, "cairotrace dev (commit "))
}
