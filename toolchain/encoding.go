package toolchain

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/colorfulnotion/cairotrace/field"
	"github.com/colorfulnotion/cairotrace/tracer"
	"github.com/colorfulnotion/cairotrace/tracererrors"
)

const (
	traceEntrySize  = 3 * 8
	memoryCellSize  = 8 + field.FeltSize
	maxMemoryCells  = 1 << 26
	readBufferBytes = 64 * 1024
)

// ReadTrace decodes a relocated trace file: per entry the little-endian u64
// values ap, fp and pc.
func ReadTrace(r io.Reader) ([]tracer.TraceEntry, error) {
	br := bufio.NewReaderSize(r, readBufferBytes)
	var (
		entries []tracer.TraceEntry
		rec     [traceEntrySize]byte
	)
	for {
		n, err := io.ReadFull(br, rec[:])
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: trace entry %d truncated after %d bytes", tracererrors.ErrMalformedArtifacts, len(entries), n)
		}
		entries = append(entries, tracer.TraceEntry{
			AP: binary.LittleEndian.Uint64(rec[0:8]),
			FP: binary.LittleEndian.Uint64(rec[8:16]),
			PC: binary.LittleEndian.Uint64(rec[16:24]),
		})
	}
}

func WriteTrace(w io.Writer, entries []tracer.TraceEntry) error {
	bw := bufio.NewWriter(w)
	var rec [traceEntrySize]byte
	for _, e := range entries {
		binary.LittleEndian.PutUint64(rec[0:8], e.AP)
		binary.LittleEndian.PutUint64(rec[8:16], e.FP)
		binary.LittleEndian.PutUint64(rec[16:24], e.PC)
		if _, err := bw.Write(rec[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadMemory decodes a relocated memory file: per populated cell a
// little-endian u64 address followed by the 32-byte little-endian value.
func ReadMemory(r io.Reader) (tracer.Memory, error) {
	br := bufio.NewReaderSize(r, readBufferBytes)
	var (
		mem tracer.Memory
		rec [memoryCellSize]byte
	)
	for cell := 0; ; cell++ {
		n, err := io.ReadFull(br, rec[:])
		if err == io.EOF {
			return mem, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: memory cell %d truncated after %d bytes", tracererrors.ErrMalformedArtifacts, cell, n)
		}
		addr := binary.LittleEndian.Uint64(rec[0:8])
		if addr >= maxMemoryCells {
			return nil, fmt.Errorf("%w: memory address %d exceeds %d cells", tracererrors.ErrMalformedArtifacts, addr, maxMemoryCells)
		}
		v, err := field.FeltFromBytesLE(rec[8:])
		if err != nil {
			return nil, fmt.Errorf("%w: memory address %d: %v", tracererrors.ErrMalformedArtifacts, addr, err)
		}
		for uint64(len(mem)) <= addr {
			mem = append(mem, nil)
		}
		mem[addr] = v
	}
}

func WriteMemory(w io.Writer, mem tracer.Memory) error {
	bw := bufio.NewWriter(w)
	var rec [memoryCellSize]byte
	for addr, v := range mem {
		if v == nil {
			continue
		}
		binary.LittleEndian.PutUint64(rec[0:8], uint64(addr))
		le := field.FeltToBytesLE(v)
		copy(rec[8:], le[:])
		if _, err := bw.Write(rec[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
