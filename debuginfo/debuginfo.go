// Package debuginfo inverts the compiler's statement -> CASM offset table into
// the CASM instruction -> statements map used to highlight source statements.
package debuginfo

import "slices"

// StatementInfo is the compiler's debug entry for one Sierra statement.
type StatementInfo struct {
	// InstructionIdx is the offset, excluding the header, of the first CASM
	// instruction generated for the statement.
	InstructionIdx uint64 `json:"instruction_idx"`
}

type ProgramDebugInfo struct {
	SierraStatementInfo []StatementInfo `json:"sierra_statement_info"`
}

// Offsets returns InstructionIdx for every statement, in statement order.
func (d ProgramDebugInfo) Offsets() []uint64 {
	offsets := make([]uint64, len(d.SierraStatementInfo))
	for i, s := range d.SierraStatementInfo {
		offsets[i] = s.InstructionIdx
	}
	return offsets
}

// BuildInstructionToStatementMap maps offset+headerLen to the indices of the
// statements whose code starts there. Indices are appended in statement
// order, so each list is ascending and duplicate free.
func BuildInstructionToStatementMap(offsets []uint64, headerLen uint64) map[uint64][]uint64 {
	m := make(map[uint64][]uint64)
	for i, o := range offsets {
		key := o + headerLen
		m[key] = append(m[key], uint64(i))
	}
	return m
}

// StatementsAt returns the statements that start at CASM instruction idx.
func StatementsAt(m map[uint64][]uint64, idx uint64) []uint64 {
	return m[idx]
}

// StatementRange is the half-open CASM instruction range [Start, End) produced
// by one statement.
type StatementRange struct {
	Statement uint64
	Start     uint64
	End       uint64
}

func (r StatementRange) Empty() bool {
	return r.Start >= r.End
}

// StatementRanges derives the instruction range of every statement: a
// statement runs until the next statement that starts later, and the last
// one runs to instructionCount.
func StatementRanges(offsets []uint64, headerLen uint64, instructionCount uint64) []StatementRange {
	starts := make([]uint64, 0, len(offsets))
	for _, o := range offsets {
		starts = append(starts, o+headerLen)
	}
	sorted := slices.Clone(starts)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	ranges := make([]StatementRange, len(starts))
	for i, start := range starts {
		end := instructionCount
		if j, found := slices.BinarySearch(sorted, start); found && j+1 < len(sorted) {
			end = sorted[j+1]
		}
		if end < start {
			end = start
		}
		ranges[i] = StatementRange{Statement: uint64(i), Start: start, End: end}
	}
	return ranges
}
