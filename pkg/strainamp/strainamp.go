package strainamp

import (
	"fmt"

	"github.com/go-daq/smbus"
)

const (
	// DefaultAddr is the factory I2C address of the strain amplifier.
	DefaultAddr uint8 = 0x66

	// MemRCh1H is the first channel data register. The remaining channel
	// registers (high/low byte per channel) follow contiguously.
	MemRCh1H uint8 = 8

	// NumChannels is the number of strain-gauge bridge channels.
	NumChannels = 6

	compressedFrameLen   = 10 // block read size; channels live in the first 9 bytes
	uncompressedFrameLen = 12 // two full bytes per channel
	historyDepth         = 3
)

// Frame is one decoded reading: six unsigned 12-bit ADC codes, channel order
// ch1..ch6.
type Frame [NumChannels]uint16

// Bus is the register-addressed byte transport the amplifier hangs off.
// *smbus.Conn satisfies it directly.
type Bus interface {
	ReadReg(addr, reg uint8) (uint8, error)
	ReadBlockData(addr, reg uint8, buf []byte) error
}

// Ensure the real SMBus connection implements Bus.
var _ Bus = (*smbus.Conn)(nil)

// Amp polls a single onboard strain amplifier chip and decodes its frames.
// It keeps a small ring of past readings and counts consecutive failed
// reads; it has no calibration knowledge.
type Amp struct {
	bus  Bus
	addr uint8

	history     [historyDepth]Frame
	idx         int
	streaming   bool
	failedReads int
}

// New creates a driver for the amplifier at addr on the given bus. The bus
// handle is shared and not owned; the driver never opens or closes it.
func New(bus Bus, addr uint8) *Amp {
	if addr == 0 {
		addr = DefaultAddr
	}
	return &Amp{
		bus:       bus,
		addr:      addr,
		streaming: true,
	}
}

// ReadCompressed reads one 10-byte block starting at the first channel
// register and decodes the six 12-bit channels packed into its first 9
// bytes.
func (a *Amp) ReadCompressed() (Frame, error) {
	var buf [compressedFrameLen]byte
	if err := a.bus.ReadBlockData(a.addr, MemRCh1H, buf[:]); err != nil {
		return Frame{}, fmt.Errorf("compressed strain read: %w", err)
	}
	return UnpackCompressed(buf[:compressedFrameLen-1])
}

// ReadUncompressed reads the twelve channel registers one byte at a time and
// decodes them. Used when the chip streams uncompressed frames.
func (a *Amp) ReadUncompressed() (Frame, error) {
	var buf [uncompressedFrameLen]byte
	for i := range buf {
		b, err := a.bus.ReadReg(a.addr, MemRCh1H+uint8(i))
		if err != nil {
			return Frame{}, fmt.Errorf("uncompressed strain read: %w", err)
		}
		buf[i] = b
	}
	return UnpackUncompressed(buf[:])
}

// UnpackCompressed decodes six channels from 9 bytes, 12 bits per channel.
// Two adjacent channels share three bytes: the first channel takes a full
// byte plus the high nibble of the shared byte, the second takes the low
// nibble plus a full byte. The layout is a hardware contract; do not
// re-derive it.
func UnpackCompressed(data []byte) (Frame, error) {
	if len(data) < compressedFrameLen-1 {
		return Frame{}, fmt.Errorf("short compressed frame: got %d bytes, want %d", len(data), compressedFrameLen-1)
	}
	return Frame{
		uint16(data[0])<<4 | uint16(data[1])>>4,
		(uint16(data[1])&0x0F)<<8 | uint16(data[2]),
		uint16(data[3])<<4 | uint16(data[4])>>4,
		(uint16(data[4])&0x0F)<<8 | uint16(data[5]),
		uint16(data[6])<<4 | uint16(data[7])>>4,
		(uint16(data[7])&0x0F)<<8 | uint16(data[8]),
	}, nil
}

// UnpackUncompressed decodes six channels from 12 bytes, high byte first.
func UnpackUncompressed(data []byte) (Frame, error) {
	if len(data) != uncompressedFrameLen {
		return Frame{}, fmt.Errorf("bad uncompressed frame: got %d bytes, want %d", len(data), uncompressedFrameLen)
	}
	var f Frame
	for i := range f {
		f[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return f, nil
}

// PackCompressed is the inverse of UnpackCompressed. Channel values must be
// 12-bit; higher bits are discarded.
func PackCompressed(f Frame) [9]byte {
	var b [9]byte
	for i := 0; i < NumChannels; i += 2 {
		hi, lo := f[i]&0x0FFF, f[i+1]&0x0FFF
		b[i/2*3+0] = byte(hi >> 4)
		b[i/2*3+1] = byte(hi&0x0F)<<4 | byte(lo>>8)
		b[i/2*3+2] = byte(lo)
	}
	return b
}

// Update performs one poll: reads a compressed frame, stores it in the ring
// at the current index, advances the index and returns the fresh reading.
// A failed read is counted and the most recent valid reading is returned
// instead; the driver never gives up on the bus.
func (a *Amp) Update() Frame {
	f, err := a.ReadCompressed()
	if err != nil {
		a.failedReads++
		return a.Previous()
	}
	a.failedReads = 0
	a.history[a.idx] = f
	a.idx = (a.idx + 1) % historyDepth
	return f
}

// Previous returns the most recently stored reading.
func (a *Amp) Previous() Frame {
	return a.history[(a.idx+historyDepth-1)%historyDepth]
}

// RawChannels returns one fresh reading. Read failures are absorbed by
// Update, so the error is always nil here; the signature matches the
// engine's source contract.
func (a *Amp) RawChannels() ([NumChannels]uint16, error) {
	return a.Update(), nil
}

// Streaming reports whether the chip is free-running.
func (a *Amp) Streaming() bool {
	return a.streaming
}

// FailedReads returns the number of consecutive failed polls.
func (a *Amp) FailedReads() int {
	return a.failedReads
}

// Addr returns the device address the driver polls.
func (a *Amp) Addr() uint8 {
	return a.addr
}
