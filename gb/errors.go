package gb

import "github.com/pkg/errors"

// Sentinel errors for the failure modes named in the core's error-handling
// design: malformed cartridges and save-states are refused outright, and a
// reserved opcode is a non-recoverable CPU fault, returned from Step as an
// ordinary error value (a *Fault) rather than a panic.
var (
	// ErrMalformedCartridge is the cause wrapped by ParseCartridge when the
	// ROM image cannot be loaded: bad length, unknown MBC type, invalid
	// RAM-size code, or a header checksum mismatch.
	ErrMalformedCartridge = errors.New("gb: malformed cartridge")

	// ErrMalformedSaveState is the cause wrapped by Restore when the
	// snapshot container is truncated, missing its trailing signature, or
	// carries a block whose declared length overruns the buffer.
	ErrMalformedSaveState = errors.New("gb: malformed save-state")

	// ErrReservedOpcode is returned by Step when the CPU fetches one of the
	// eleven opcodes with no defined behavior on real hardware. The core
	// models the resulting hardware freeze as a fault rather than silently
	// treating the byte as a NOP.
	ErrReservedOpcode = errors.New("gb: reserved opcode, CPU frozen")
)

// Fault reports a non-recoverable CPU condition together with the program
// counter and opcode byte that caused it, so a caller can log a useful
// diagnostic without the core needing a logging dependency of its own.
type Fault struct {
	PC     uint16
	Opcode byte
	Err    error
}

func (f *Fault) Error() string {
	return errors.Wrapf(f.Err, "gb: fault at PC=%#04x opcode=%#02x", f.PC, f.Opcode).Error()
}

func (f *Fault) Unwrap() error { return f.Err }
