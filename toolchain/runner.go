// Package toolchain drives the external Cairo compiler/VM and reads back the
// files it produces.
//
// The toolchain is invoked as
//
//	<bin> [base args] <source.cairo> --trace_file T --memory_file M --artifacts_file A [--args ARGS]
//
// and must exit 0 on success, printing diagnostics on stderr otherwise.
// "<bin> [base args] --version" prints the compiler version.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/colorfulnotion/cairotrace/log"
	"github.com/colorfulnotion/cairotrace/tracererrors"
)

const module = log.ToolchainMonitoring

const (
	sourceFileName    = "main.cairo"
	traceFileName     = "trace.bin"
	memoryFileName    = "memory.bin"
	artifactsFileName = "artifacts.json"
)

// Runner compiles and runs one program.
type Runner interface {
	Run(ctx context.Context, source string, args string) (*RunResult, error)
}

// RunError is returned when the toolchain rejects a program. Diagnostics holds
// what the toolchain reported.
type RunError struct {
	Diagnostics []string
	Err         error
}

func (e *RunError) Error() string {
	if len(e.Diagnostics) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(e.Diagnostics, "; "))
}

func (e *RunError) Unwrap() error { return e.Err }

// ExecRunner runs the toolchain as a child process.
type ExecRunner struct {
	Bin      string
	BaseArgs []string
	// WorkDir is the parent of the per-run temp directories; "" uses os.TempDir.
	WorkDir string
	Timeout time.Duration
	Env     []string
}

func NewExecRunner(bin string, baseArgs []string, workDir string, timeout time.Duration) *ExecRunner {
	return &ExecRunner{Bin: bin, BaseArgs: baseArgs, WorkDir: workDir, Timeout: timeout}
}

func (r *ExecRunner) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, r.Bin, append(append([]string{}, r.BaseArgs...), args...)...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	return cmd
}

func (r *ExecRunner) Run(ctx context.Context, source string, args string) (*RunResult, error) {
	dir, err := os.MkdirTemp(r.WorkDir, "cairotrace-")
	if err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn(module, "failed to remove run directory", "dir", dir, "err", err)
		}
	}()

	sourcePath := filepath.Join(dir, sourceFileName)
	if err := os.WriteFile(sourcePath, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("write source: %w", err)
	}
	tracePath := filepath.Join(dir, traceFileName)
	memoryPath := filepath.Join(dir, memoryFileName)
	artifactsPath := filepath.Join(dir, artifactsFileName)

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmdArgs := []string{sourcePath, "--trace_file", tracePath, "--memory_file", memoryPath, "--artifacts_file", artifactsPath}
	if args != "" {
		cmdArgs = append(cmdArgs, "--args", args)
	}
	cmd := r.command(ctx, cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	log.Debug(module, "toolchain finished", "bin", r.Bin, "elapsed", time.Since(start), "err", runErr)
	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &RunError{Err: fmt.Errorf("%w after %v", tracererrors.ErrToolchainTimeout, r.Timeout)}
		}
		return nil, &RunError{
			Diagnostics: SplitDiagnostics(stderr.String()),
			Err:         fmt.Errorf("%w: %v", tracererrors.ErrToolchainFailed, runErr),
		}
	}

	res, err := LoadRun(tracePath, memoryPath, artifactsPath)
	if err != nil {
		return nil, err
	}
	if extra := SplitDiagnostics(stderr.String()); len(extra) > 0 {
		res.Diagnostics = append(res.Diagnostics, extra...)
	}
	return res, nil
}

// Version asks the toolchain for its compiler version.
func (r *ExecRunner) Version(ctx context.Context) (string, error) {
	out, err := r.command(ctx, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%s --version: %w", r.Bin, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// SplitDiagnostics splits toolchain output into blank-line separated blocks.
func SplitDiagnostics(out string) []string {
	var blocks []string
	for _, b := range strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n\n") {
		if b = strings.TrimSpace(b); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}
