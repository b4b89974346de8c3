package main

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/cairotrace/toolchain"
	"github.com/colorfulnotion/cairotrace/tracer"
	"github.com/spf13/cobra"
)

func newTraceCmd() *cobra.Command {
	var tracePath, memoryPath, stepsPath string

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Decode a trace/memory pair and print the tracer data as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			trace, err := toolchain.ReadTraceFile(tracePath)
			if err != nil {
				return err
			}
			memory, err := toolchain.ReadMemoryFile(memoryPath)
			if err != nil {
				return err
			}
			data, err := tracer.BuildTraceData(trace, memory)
			if err != nil {
				return err
			}

			if stepsPath != "" {
				w, err := tracer.NewStepWriterFile(stepsPath)
				if err != nil {
					return err
				}
				if err := w.WriteTrace(data); err != nil {
					w.Close()
					return err
				}
				if err := w.Close(); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(data); err != nil {
				return fmt.Errorf("encode tracer data: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tracePath, "trace", "", "binary trace file")
	cmd.Flags().StringVar(&memoryPath, "memory", "", "binary memory file")
	cmd.Flags().StringVar(&stepsPath, "steps", "", "also write one JSON line per step to this file")
	cmd.MarkFlagRequired("trace")
	cmd.MarkFlagRequired("memory")
	return cmd
}
