package casm

import (
	"fmt"

	"github.com/colorfulnotion/cairotrace/tracererrors"
)

const (
	offsetBias = 1 << 15
	offsetMask = 0xffff
	highBit    = uint64(1) << 63

	flagsShift    = 48
	dstRegBit     = 0
	op0RegBit     = 1
	op1SrcShift   = 2
	resLogicShift = 5
	pcUpdateShift = 7
	apUpdateShift = 10
	opcodeShift   = 12
)

func decodeOffset(v uint64) int {
	return int(v&offsetMask) - offsetBias
}

func malformed(encoded uint64, format string, args ...any) error {
	return fmt.Errorf("%w: 0x%016x: %s", tracererrors.ErrMalformedEncoding, encoded, fmt.Sprintf(format, args...))
}

// DecodeInstruction decodes a little-endian 64-bit instruction word.
//
//	bits  0-15  off0 (biased by 2^15)
//	bits 16-31  off1
//	bits 32-47  off2
//	bits 48-62  flags: dst_reg, op0_reg, op1_src(3), res_logic(2),
//	            pc_update(3), ap_update(2), opcode(3)
//	bit  63     must be zero
func DecodeInstruction(encoded uint64) (Instruction, error) {
	if encoded&highBit != 0 {
		return Instruction{}, malformed(encoded, "high bit set")
	}
	flags := encoded >> flagsShift

	inst := Instruction{
		Off0:        decodeOffset(encoded),
		Off1:        decodeOffset(encoded >> 16),
		Off2:        decodeOffset(encoded >> 32),
		DstRegister: AP,
		Op0Register: AP,
	}
	if (flags>>dstRegBit)&1 != 0 {
		inst.DstRegister = FP
	}
	if (flags>>op0RegBit)&1 != 0 {
		inst.Op0Register = FP
	}

	switch n := (flags >> op1SrcShift) & 7; n {
	case 0:
		inst.Op1Addr = Op1Op0
	case 1:
		inst.Op1Addr = Op1Imm
	case 2:
		inst.Op1Addr = Op1FP
	case 4:
		inst.Op1Addr = Op1AP
	default:
		return Instruction{}, malformed(encoded, "invalid op1 source %d", n)
	}

	switch n := (flags >> pcUpdateShift) & 7; n {
	case 0:
		inst.PcUpdate = PcRegular
	case 1:
		inst.PcUpdate = PcJump
	case 2:
		inst.PcUpdate = PcJumpRel
	case 4:
		inst.PcUpdate = PcJnz
	default:
		return Instruction{}, malformed(encoded, "invalid pc update %d", n)
	}

	switch n := (flags >> resLogicShift) & 3; n {
	case 0:
		if inst.PcUpdate == PcJnz {
			inst.Res = ResUnconstrained
		} else {
			inst.Res = ResOp1
		}
	case 1, 2:
		if inst.PcUpdate == PcJnz {
			return Instruction{}, malformed(encoded, "res logic %d with jnz", n)
		}
		inst.Res = ResAdd
		if n == 2 {
			inst.Res = ResMul
		}
	default:
		return Instruction{}, malformed(encoded, "invalid res logic %d", n)
	}

	switch n := (flags >> opcodeShift) & 7; n {
	case 0:
		inst.Opcode = NOp
	case 1:
		inst.Opcode = Call
	case 2:
		inst.Opcode = Ret
	case 4:
		inst.Opcode = AssertEq
	default:
		return Instruction{}, malformed(encoded, "invalid opcode %d", n)
	}

	switch n := (flags >> apUpdateShift) & 3; n {
	case 0:
		if inst.Opcode == Call {
			inst.ApUpdate = ApAdd2
		} else {
			inst.ApUpdate = ApRegular
		}
	case 1, 2:
		if inst.Opcode == Call {
			return Instruction{}, malformed(encoded, "ap update %d with call", n)
		}
		inst.ApUpdate = ApAdd
		if n == 2 {
			inst.ApUpdate = ApAdd1
		}
	default:
		return Instruction{}, malformed(encoded, "invalid ap update %d", n)
	}

	switch inst.Opcode {
	case Call:
		inst.FpUpdate = FpAPPlus2
	case Ret:
		inst.FpUpdate = FpDst
	default:
		inst.FpUpdate = FpRegular
	}
	return inst, nil
}
