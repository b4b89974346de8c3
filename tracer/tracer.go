// Package tracer correlates a Cairo execution trace with the memory image it
// ran against: it decodes the instruction at every reachable program counter,
// numbers instructions in emission order and formats memory for display.
package tracer

import (
	"fmt"
	"slices"

	"github.com/colorfulnotion/cairotrace/casm"
	"github.com/colorfulnotion/cairotrace/field"
	"github.com/colorfulnotion/cairotrace/log"
	"github.com/colorfulnotion/cairotrace/tracererrors"
	"github.com/holiman/uint256"
)

const module = log.TracerMonitoring

// TraceEntry is one executed VM step.
type TraceEntry struct {
	PC uint64 `json:"pc"`
	AP uint64 `json:"ap"`
	FP uint64 `json:"fp"`
}

type TracerData struct {
	PcInstMap          map[uint64]casm.Instruction `json:"pc_inst_map"`
	Trace              []TraceEntry                `json:"trace"`
	Memory             map[uint64]string           `json:"memory"`
	PcToInstIndexesMap map[uint64]uint64           `json:"pc_to_inst_indexes_map"`
}

// MaxPC returns the largest program counter in trace, 0 when it is empty.
func MaxPC(trace []TraceEntry) uint64 {
	var maxPC uint64
	for _, e := range trace {
		if e.PC > maxPC {
			maxPC = e.PC
		}
	}
	return maxPC
}

// GetInstructionEncoding returns the encoded instruction stored at pc and the
// candidate immediate stored in the following cell. A missing immediate is
// not an error; a missing instruction is.
func GetInstructionEncoding(pc uint64, memory Memory) (encoding *uint256.Int, imm *uint256.Int, err error) {
	idx, err := field.Index(pc, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: pc %d: %w", tracererrors.ErrUnmappedPC, pc, err)
	}
	encoding = memory.Get(idx)
	if encoding == nil {
		return nil, nil, fmt.Errorf("%w: pc %d", tracererrors.ErrUnmappedPC, pc)
	}

	immIdx, err := field.Index(pc, 1)
	if err != nil {
		log.Debug(module, "immediate address out of range", "pc", pc, "err", err)
		return encoding, nil, nil
	}
	return encoding, memory.Get(immIdx), nil
}

// BuildTraceData walks every program counter in 1..=max(trace.pc) once,
// decoding one instruction per step and skipping the cell that holds an
// instruction's inline immediate. The trace itself is returned untouched.
func BuildTraceData(trace []TraceEntry, memory Memory) (*TracerData, error) {
	pcInstMap := make(map[uint64]casm.Instruction)
	pcToInstIndexes := make(map[uint64]uint64)

	maxPC := MaxPC(trace)
	if len(trace) == 0 {
		log.Debug(module, "no entries in the trace")
	}

	skipNextPC := false
	var casmIndex uint64
	for pc := uint64(1); pc <= maxPC; pc++ {
		if skipNextPC {
			skipNextPC = false
			continue
		}

		encoding, imm, err := GetInstructionEncoding(pc, memory)
		if err != nil {
			return nil, err
		}
		inst, err := casm.DecodeInstruction(field.Low64(encoding))
		if err != nil {
			return nil, fmt.Errorf("pc %d: %w", pc, err)
		}
		if inst.HasImmediate() {
			skipNextPC = true
			if imm == nil {
				log.Warn(module, "instruction expects an immediate but the next cell is empty", "pc", pc)
			}
		}
		pcInstMap[pc] = inst
		pcToInstIndexes[pc] = casmIndex
		casmIndex++
	}
	if trace == nil {
		trace = []TraceEntry{}
	}
	log.Trace(module, "trace walked", "max_pc", maxPC, "instructions", casmIndex, "steps", len(trace))

	return &TracerData{
		PcInstMap:          pcInstMap,
		Trace:              trace,
		Memory:             FormatMemory(memory),
		PcToInstIndexesMap: pcToInstIndexes,
	}, nil
}

// InstructionPCs returns the program counters that start an instruction, in
// increasing order.
func (d *TracerData) InstructionPCs() []uint64 {
	pcs := make([]uint64, 0, len(d.PcToInstIndexesMap))
	for pc := range d.PcToInstIndexesMap {
		pcs = append(pcs, pc)
	}
	slices.Sort(pcs)
	return pcs
}

// PCsByInstructionIndex inverts PcToInstIndexesMap. Indexes are dense, so
// the inverse is a slice: entry i is the pc of instruction i.
func (d *TracerData) PCsByInstructionIndex() []uint64 {
	pcs := make([]uint64, len(d.PcToInstIndexesMap))
	for pc, i := range d.PcToInstIndexesMap {
		if i < uint64(len(pcs)) {
			pcs[i] = pc
		}
	}
	return pcs
}
