package emu

import (
	"io"

	"github.com/sarchlab/rv32sim/mmu"
)

// RV32 Linux syscall numbers actually implemented by this emulator.
const (
	SyscallRead  uint32 = 63 // read(fd, buf, count)
	SyscallWrite uint32 = 64 // write(fd, buf, count)
	SyscallExit  uint32 = 93 // exit(status)
)

// Linux error codes, returned as -errno in a0.
const (
	EBADF  = 9  // Bad file descriptor
	ENOSYS = 38 // Function not implemented
	EIO    = 5  // I/O error
)

// Register numbers for the RV32 Linux syscall convention. Exported so
// the timing pipeline can recognize them too: ecall reads a0-a2/a7
// directly out of the register file rather than through rs1/rs2, so
// the pipeline's forwarding network can't reach them through the usual
// decoded-operand path and must hazard-check these registers by number.
const (
	RegA0 uint8 = 10
	RegA1 uint8 = 11
	RegA2 uint8 = 12
	RegA7 uint8 = 17
)

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int32
}

// SyscallHandler is the interface for handling RV32 syscalls.
type SyscallHandler interface {
	// Handle executes the syscall indicated by the register file state,
	// using the RV32 Linux convention: syscall number in a7 (x17),
	// arguments in a0-a6 (x10-x16), return value in a0 (x10).
	Handle() SyscallResult
}

// DefaultSyscallHandler implements exit (93), read (63) and write (64).
// fd 0/1/2 are served directly from stdin/stdout/stderr; fds opened
// through an FDTable (fd >= 3) are served from there. Any other
// syscall number sets a0 to -ENOSYS and continues execution rather
// than halting, matching a permissive emulator rather than a strict
// kernel.
type DefaultSyscallHandler struct {
	regFile *RegFile
	memory  *mmu.Memory
	fds     *FDTable
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// NewDefaultSyscallHandler creates a syscall handler. fds may be nil if
// the program under test never opens additional files.
func NewDefaultSyscallHandler(regFile *RegFile, memory *mmu.Memory, stdout, stderr io.Writer, fds *FDTable) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{
		regFile: regFile,
		memory:  memory,
		stdout:  stdout,
		stderr:  stderr,
		fds:     fds,
	}
}

// SetStdin sets the stdin reader consulted by the read syscall for fd 0.
func (h *DefaultSyscallHandler) SetStdin(stdin io.Reader) {
	h.stdin = stdin
}

// Handle dispatches on a7.
func (h *DefaultSyscallHandler) Handle() SyscallResult {
	switch h.regFile.ReadReg(RegA7) {
	case SyscallRead:
		return h.handleRead()
	case SyscallWrite:
		return h.handleWrite()
	case SyscallExit:
		return h.handleExit()
	default:
		return h.handleUnknown()
	}
}

func (h *DefaultSyscallHandler) handleExit() SyscallResult {
	return SyscallResult{
		Exited:   true,
		ExitCode: int32(h.regFile.ReadReg(RegA0)),
	}
}

func (h *DefaultSyscallHandler) handleRead() SyscallResult {
	fd := h.regFile.ReadReg(RegA0)
	bufPtr := h.regFile.ReadReg(RegA1)
	count := h.regFile.ReadReg(RegA2)

	if fd == 0 {
		if h.stdin == nil {
			h.regFile.WriteReg(RegA0, 0)
			return SyscallResult{}
		}
		buf := make([]byte, count)
		n, err := h.stdin.Read(buf)
		if err != nil && n == 0 {
			h.regFile.WriteReg(RegA0, 0)
			return SyscallResult{}
		}
		h.memory.WriteBytes(bufPtr, buf[:n])
		h.regFile.WriteReg(RegA0, uint32(n))
		return SyscallResult{}
	}

	if h.fds == nil {
		h.setError(EBADF)
		return SyscallResult{}
	}
	buf := make([]byte, count)
	n, err := h.fds.Read(fd, buf)
	if err != nil {
		h.setError(EBADF)
		return SyscallResult{}
	}
	h.memory.WriteBytes(bufPtr, buf[:n])
	h.regFile.WriteReg(RegA0, uint32(n))
	return SyscallResult{}
}

func (h *DefaultSyscallHandler) handleWrite() SyscallResult {
	fd := h.regFile.ReadReg(RegA0)
	bufPtr := h.regFile.ReadReg(RegA1)
	count := h.regFile.ReadReg(RegA2)

	buf := make([]byte, count)
	for i := uint32(0); i < count; i++ {
		buf[i] = h.memory.ReadU8(bufPtr + i)
	}

	var writer io.Writer
	switch fd {
	case 1:
		writer = h.stdout
	case 2:
		writer = h.stderr
	default:
		if h.fds == nil {
			h.setError(EBADF)
			return SyscallResult{}
		}
		n, err := h.fds.Write(fd, buf)
		if err != nil {
			h.setError(EBADF)
			return SyscallResult{}
		}
		h.regFile.WriteReg(RegA0, uint32(n))
		return SyscallResult{}
	}

	if writer == nil {
		h.setError(EIO)
		return SyscallResult{}
	}
	n, err := writer.Write(buf)
	if err != nil {
		h.setError(EIO)
		return SyscallResult{}
	}
	h.regFile.WriteReg(RegA0, uint32(n))
	return SyscallResult{}
}

func (h *DefaultSyscallHandler) handleUnknown() SyscallResult {
	h.setError(ENOSYS)
	return SyscallResult{}
}

// setError sets a0 to -errno (as two's complement).
func (h *DefaultSyscallHandler) setError(errno int) {
	h.regFile.WriteReg(RegA0, uint32(int32(-errno)))
}
