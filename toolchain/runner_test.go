package toolchain

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/colorfulnotion/cairotrace/debuginfo"
	"github.com/colorfulnotion/cairotrace/tracer"
	"github.com/colorfulnotion/cairotrace/tracererrors"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

const helperEnv = "CAIROTRACE_HELPER_TOOLCHAIN"

// TestMain lets the test binary double as the external toolchain: the runner
// tests re-execute it with helperEnv set.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		args := os.Args
		for len(args) > 0 && args[0] != "--" {
			args = args[1:]
		}
		if len(args) == 0 {
			os.Exit(2)
		}
		os.Exit(fakeToolchain(args[1:]))
	}
	os.Exit(m.Run())
}

func fakeToolchain(args []string) int {
	if len(args) > 0 && args[0] == "--version" {
		fmt.Println("2.6.3")
		return 0
	}
	fs := flag.NewFlagSet("fake", flag.ContinueOnError)
	tracePath := fs.String("trace_file", "", "")
	memoryPath := fs.String("memory_file", "", "")
	artifactsPath := fs.String("artifacts_file", "", "")
	programArgs := fs.String("args", "", "")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return 2
	}
	switch {
	case strings.Contains(string(src), "panic"):
		fmt.Fprint(os.Stderr, "error: Identifier not found.\n --> main.cairo:1:5\n\nwarning: Unused variable.\n")
		return 1
	case strings.Contains(string(src), "sleep"):
		time.Sleep(10 * time.Second)
	}

	trace := []tracer.TraceEntry{{PC: 1, AP: 10, FP: 10}, {PC: 3, AP: 11, FP: 10}}
	mem := tracer.Memory{nil, uint256.NewInt(0x480680017fff8000), uint256.NewInt(5), uint256.NewInt(0x208b7fff7fff7ffe)}
	output := "[" + *programArgs + "]"
	art := Artifacts{
		SierraProgram:    "return([0]);",
		CasmInstructions: []string{"[ap + 0] = 5, ap++;", "ret;"},
		SerializedOutput: &output,
		HeadersLen:       0,
		DebugInfo:        debuginfo.ProgramDebugInfo{SierraStatementInfo: []debuginfo.StatementInfo{{InstructionIdx: 0}, {InstructionIdx: 1}}},
	}
	for _, write := range []func() error{
		func() error { return writeFile(*tracePath, func(f *os.File) error { return WriteTrace(f, trace) }) },
		func() error { return writeFile(*memoryPath, func(f *os.File) error { return WriteMemory(f, mem) }) },
		func() error {
			raw, err := json.Marshal(art)
			if err != nil {
				return err
			}
			return os.WriteFile(*artifactsPath, raw, 0o600)
		},
	} {
		if err := write(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	}
	fmt.Fprint(os.Stderr, "warning: Unused import.\n")
	return 0
}

func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

func helperRunner(t *testing.T, timeout time.Duration) *ExecRunner {
	t.Helper()
	r := NewExecRunner(os.Args[0], []string{"--"}, t.TempDir(), timeout)
	r.Env = []string{helperEnv + "=1"}
	return r
}

func TestExecRunnerRun(t *testing.T) {
	r := helperRunner(t, 30*time.Second)
	res, err := r.Run(context.Background(), "fn main() {}", "1 2")
	require.NoError(t, err)

	require.Equal(t, []string{"[ap + 0] = 5, ap++;", "ret;"}, res.CasmInstructions)
	require.Len(t, res.Trace, 2)
	require.Len(t, res.Memory, 4)
	require.NotNil(t, res.SerializedOutput)
	require.Equal(t, "[1 2]", *res.SerializedOutput)
	require.Equal(t, []string{"warning: Unused import."}, res.Diagnostics)

	entries, err := os.ReadDir(r.WorkDir)
	require.NoError(t, err)
	require.Empty(t, entries, "run directory must be removed")
}

func TestExecRunnerToolchainFailure(t *testing.T) {
	r := helperRunner(t, 30*time.Second)
	_, err := r.Run(context.Background(), "fn main() { panic }", "")
	require.ErrorIs(t, err, tracererrors.ErrToolchainFailed)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	require.Len(t, runErr.Diagnostics, 2)
	require.True(t, strings.HasPrefix(runErr.Diagnostics[0], "error:"))
}

func TestExecRunnerTimeout(t *testing.T) {
	r := helperRunner(t, 300*time.Millisecond)
	_, err := r.Run(context.Background(), "sleep", "")
	require.ErrorIs(t, err, tracererrors.ErrToolchainTimeout)
}

func TestExecRunnerVersion(t *testing.T) {
	v, err := helperRunner(t, time.Second).Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2.6.3", v)
}

func TestSplitDiagnostics(t *testing.T) {
	got := SplitDiagnostics("error: a\n --> x\r\n\r\n\n\nwarning: b\n")
	require.Equal(t, []string{"error: a\n --> x", "warning: b"}, got)
	require.Empty(t, SplitDiagnostics("  \n"))
}
