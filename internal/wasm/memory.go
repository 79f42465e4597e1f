package wasm

import (
	"context"
	"errors"

	"github.com/tetratelabs/wazero/api"
)

// Memory reads and writes a guest's linear memory with bounds checks.
// Writes go through the guest's exported alloc function, so the guest
// stays the owner of its heap.
type Memory struct {
	module api.Module
	mem    api.Memory
}

// NewMemory creates a memory helper.
func NewMemory(module api.Module) *Memory {
	return &Memory{module: module, mem: module.Memory()}
}

// ReadString reads a null-terminated string of at most maxLen bytes.
func (m *Memory) ReadString(ptr uint32, maxLen uint32) (string, bool) {
	buf, ok := m.mem.Read(ptr, maxLen)
	if !ok {
		return "", false
	}

	end := len(buf)
	for i, b := range buf {
		if b == 0 {
			end = i
			break
		}
	}

	return string(buf[:end]), true
}

// ReadBytes returns a copy of length bytes at ptr.
func (m *Memory) ReadBytes(ptr uint32, length uint32) ([]byte, bool) {
	buf, ok := m.mem.Read(ptr, length)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, true
}

// ReadUint32Le reads a little-endian uint32.
func (m *Memory) ReadUint32Le(ptr uint32) (uint32, bool) {
	return m.mem.ReadUint32Le(ptr)
}

// WriteString copies s into guest memory.
func (m *Memory) WriteString(ctx context.Context, s string) (uint32, uint32, error) {
	return m.WriteBytes(ctx, []byte(s))
}

// WriteBytes allocates len(data) bytes in the guest and copies data there.
func (m *Memory) WriteBytes(ctx context.Context, data []byte) (uint32, uint32, error) {
	alloc := m.module.ExportedFunction(ExportAlloc)
	if alloc == nil {
		return 0, 0, &FunctionNotFoundError{ModuleName: m.module.Name(), FunctionName: ExportAlloc}
	}

	length := uint32(len(data))
	results, err := alloc.Call(ctx, uint64(length))
	if err != nil {
		return 0, 0, &MemoryAccessError{Operation: "alloc", Length: length, Err: err}
	}
	if len(results) != 1 {
		return 0, 0, &MemoryAccessError{Operation: "alloc", Length: length, Err: errors.New("alloc must return a pointer")}
	}

	ptr := uint32(results[0])
	if !m.mem.Write(ptr, data) {
		return 0, 0, &MemoryAccessError{Operation: "write", Address: ptr, Length: length, Err: errors.New("out of bounds")}
	}

	return ptr, length, nil
}
