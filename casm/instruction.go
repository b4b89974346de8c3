// Package casm decodes 64-bit Cairo assembly instruction words.
package casm

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type Register uint8

const (
	AP Register = iota
	FP
)

func (r Register) String() string {
	if r == FP {
		return "FP"
	}
	return "AP"
}

type Op1Addr uint8

const (
	Op1Imm Op1Addr = iota
	Op1AP
	Op1FP
	Op1Op0
)

func (o Op1Addr) String() string {
	switch o {
	case Op1Imm:
		return "Imm"
	case Op1AP:
		return "AP"
	case Op1FP:
		return "FP"
	case Op1Op0:
		return "Op0"
	}
	return "Op1Addr(" + strconv.Itoa(int(o)) + ")"
}

type Res uint8

const (
	ResOp1 Res = iota
	ResAdd
	ResMul
	ResUnconstrained
)

func (r Res) String() string {
	switch r {
	case ResOp1:
		return "Op1"
	case ResAdd:
		return "Add"
	case ResMul:
		return "Mul"
	case ResUnconstrained:
		return "Unconstrained"
	}
	return "Res(" + strconv.Itoa(int(r)) + ")"
}

type PcUpdate uint8

const (
	PcRegular PcUpdate = iota
	PcJump
	PcJumpRel
	PcJnz
)

func (p PcUpdate) String() string {
	switch p {
	case PcRegular:
		return "Regular"
	case PcJump:
		return "Jump"
	case PcJumpRel:
		return "JumpRel"
	case PcJnz:
		return "Jnz"
	}
	return "PcUpdate(" + strconv.Itoa(int(p)) + ")"
}

type ApUpdate uint8

const (
	ApRegular ApUpdate = iota
	ApAdd
	ApAdd1
	ApAdd2
)

func (a ApUpdate) String() string {
	switch a {
	case ApRegular:
		return "Regular"
	case ApAdd:
		return "Add"
	case ApAdd1:
		return "Add1"
	case ApAdd2:
		return "Add2"
	}
	return "ApUpdate(" + strconv.Itoa(int(a)) + ")"
}

type FpUpdate uint8

const (
	FpRegular FpUpdate = iota
	FpAPPlus2
	FpDst
)

func (f FpUpdate) String() string {
	switch f {
	case FpRegular:
		return "Regular"
	case FpAPPlus2:
		return "APPlus2"
	case FpDst:
		return "Dst"
	}
	return "FpUpdate(" + strconv.Itoa(int(f)) + ")"
}

type Opcode uint8

const (
	NOp Opcode = iota
	AssertEq
	Call
	Ret
)

func (o Opcode) String() string {
	switch o {
	case NOp:
		return "NOp"
	case AssertEq:
		return "AssertEq"
	case Call:
		return "Call"
	case Ret:
		return "Ret"
	}
	return "Opcode(" + strconv.Itoa(int(o)) + ")"
}

// Instruction is a decoded Cairo instruction word.
type Instruction struct {
	Off0        int
	Off1        int
	Off2        int
	DstRegister Register
	Op0Register Register
	Op1Addr     Op1Addr
	Res         Res
	PcUpdate    PcUpdate
	ApUpdate    ApUpdate
	FpUpdate    FpUpdate
	Opcode      Opcode
}

// HasImmediate reports whether op1 is the value stored in the cell right
// after the instruction.
func (i Instruction) HasImmediate() bool {
	return i.Op1Addr == Op1Imm
}

// Size is the number of memory cells the instruction occupies.
func (i Instruction) Size() int {
	if i.HasImmediate() {
		return 2
	}
	return 1
}

func (i Instruction) String() string {
	return fmt.Sprintf("%s dst=[%s%+d] op0=[%s%+d] op1=%s%+d res=%s pc=%s ap=%s fp=%s",
		i.Opcode, i.DstRegister, i.Off0, i.Op0Register, i.Off1, i.Op1Addr, i.Off2,
		i.Res, i.PcUpdate, i.ApUpdate, i.FpUpdate)
}

// MarshalJSON renders every field in its debug-string form.
func (i Instruction) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"off0":         strconv.Itoa(i.Off0),
		"off1":         strconv.Itoa(i.Off1),
		"off2":         strconv.Itoa(i.Off2),
		"dst_register": i.DstRegister.String(),
		"op0_register": i.Op0Register.String(),
		"op1_addr":     i.Op1Addr.String(),
		"res":          i.Res.String(),
		"pc_update":    i.PcUpdate.String(),
		"ap_update":    i.ApUpdate.String(),
		"fp_update":    i.FpUpdate.String(),
		"opcode":       i.Opcode.String(),
	})
}

type enum interface {
	~uint8
	String() string
}

// parseEnum maps a debug string back to its value among values.
func parseEnum[T enum](field, s string, values ...T) (T, error) {
	for _, v := range values {
		if v.String() == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("casm: unknown %s %q", field, s)
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (i *Instruction) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	var out Instruction
	var err error
	for _, off := range []struct {
		key string
		dst *int
	}{{"off0", &out.Off0}, {"off1", &out.Off1}, {"off2", &out.Off2}} {
		if *off.dst, err = strconv.Atoi(m[off.key]); err != nil {
			return fmt.Errorf("casm: %s: %w", off.key, err)
		}
	}
	if out.DstRegister, err = parseEnum("dst_register", m["dst_register"], AP, FP); err != nil {
		return err
	}
	if out.Op0Register, err = parseEnum("op0_register", m["op0_register"], AP, FP); err != nil {
		return err
	}
	if out.Op1Addr, err = parseEnum("op1_addr", m["op1_addr"], Op1Imm, Op1AP, Op1FP, Op1Op0); err != nil {
		return err
	}
	if out.Res, err = parseEnum("res", m["res"], ResOp1, ResAdd, ResMul, ResUnconstrained); err != nil {
		return err
	}
	if out.PcUpdate, err = parseEnum("pc_update", m["pc_update"], PcRegular, PcJump, PcJumpRel, PcJnz); err != nil {
		return err
	}
	if out.ApUpdate, err = parseEnum("ap_update", m["ap_update"], ApRegular, ApAdd, ApAdd1, ApAdd2); err != nil {
		return err
	}
	if out.FpUpdate, err = parseEnum("fp_update", m["fp_update"], FpRegular, FpAPPlus2, FpDst); err != nil {
		return err
	}
	if out.Opcode, err = parseEnum("opcode", m["opcode"], NOp, AssertEq, Call, Ret); err != nil {
		return err
	}
	*i = out
	return nil
}
