package main

import (
	"fmt"
	"io"

	"github.com/colorfulnotion/cairotrace/debuginfo"
	"github.com/colorfulnotion/cairotrace/toolchain"
	"github.com/colorfulnotion/cairotrace/tracer"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"
)

func newInspectCmd() *cobra.Command {
	var tracePath, memoryPath, artifactsPath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print each Sierra statement with the CASM instructions it produced",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := toolchain.LoadRun(tracePath, memoryPath, artifactsPath)
			if err != nil {
				return err
			}
			data, err := tracer.BuildTraceData(run.Trace, run.Memory)
			if err != nil {
				return err
			}
			return writeInspectTree(cmd.OutOrStdout(), run, data)
		},
	}
	cmd.Flags().StringVar(&tracePath, "trace", "", "binary trace file")
	cmd.Flags().StringVar(&memoryPath, "memory", "", "binary memory file")
	cmd.Flags().StringVar(&artifactsPath, "artifacts", "", "artifacts JSON written by the toolchain")
	cmd.MarkFlagRequired("trace")
	cmd.MarkFlagRequired("memory")
	cmd.MarkFlagRequired("artifacts")
	return cmd
}

// buildInspectTree renders statement -> instruction -> decoded fields.
// Instructions the walk never reached are listed without a pc.
func buildInspectTree(run *toolchain.RunResult, data *tracer.TracerData) treeprint.Tree {
	visits := make(map[uint64]int)
	for _, e := range run.Trace {
		visits[e.PC]++
	}

	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("program (%d statements, %d instructions, %d steps)",
		len(run.DebugInfo.SierraStatementInfo), len(run.CasmInstructions), len(run.Trace)))

	statements := run.SierraFormattedProgram.Statements
	offsets := run.DebugInfo.Offsets()
	starts := debuginfo.BuildInstructionToStatementMap(offsets, run.HeadersLen)
	pcs := data.PCsByInstructionIndex()
	for _, r := range debuginfo.StatementRanges(offsets, run.HeadersLen, uint64(len(run.CasmInstructions))) {
		label := fmt.Sprintf("statement %d", r.Statement)
		if r.Statement < uint64(len(statements)) {
			label += ": " + statements[r.Statement]
		}
		branch := tree.AddBranch(label)
		if r.Empty() {
			branch.AddNode("(no instructions)")
			continue
		}
		for idx := r.Start; idx < r.End; idx++ {
			text := ""
			if idx < uint64(len(run.CasmInstructions)) {
				text = run.CasmInstructions[idx]
			}
			if idx >= uint64(len(pcs)) {
				branch.AddNode(fmt.Sprintf("#%d %s", idx, text))
				continue
			}
			pc := pcs[idx]
			node := branch.AddBranch(fmt.Sprintf("#%d pc=%d %s (executed %d)", idx, pc, text, visits[pc]))
			node.AddNode(data.PcInstMap[pc].String())
			if shared := debuginfo.StatementsAt(starts, idx); len(shared) > 1 {
				node.AddNode(fmt.Sprintf("starts statements %v", shared))
			}
		}
	}
	return tree
}

func writeInspectTree(w io.Writer, run *toolchain.RunResult, data *tracer.TracerData) error {
	_, err := io.WriteString(w, buildInspectTree(run, data).String())
	return err
}
