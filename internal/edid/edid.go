// Package edid decodes the base block of an EDID monitor identification
// structure as reported by display hardware.
package edid

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed marks an EDID buffer that is too short, has a bad magic
// header, or carries a non-zero reserved byte in a descriptor block.
var ErrMalformed = errors.New("malformed EDID block")

var magic = []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

const (
	descriptorOffset = 0x36
	descriptorLength = 18
	descriptorCount  = 4

	// Descriptor block type codes.
	TypeDisplayName  = 0xFC
	TypeSerialString = 0xFF
)

// Info is a decoded EDID base block. The raw buffer may be longer than 128
// bytes; extension blocks are kept but never interpreted.
type Info struct {
	raw []byte
}

// Decode validates and wraps a raw EDID buffer. Blocks whose first two bytes
// are non-zero are detailed timing descriptors; the display tool already
// interprets those, so they are skipped here.
func Decode(raw []byte) (*Info, error) {
	if len(raw) < 128 || !bytes.Equal(raw[:8], magic) {
		return nil, fmt.Errorf("%w: %x", ErrMalformed, raw)
	}
	info := &Info{raw: raw}
	for _, block := range info.descriptorBlocks() {
		if block[2] != 0 {
			return nil, fmt.Errorf("%w: reserved descriptor byte non-zero: %x", ErrMalformed, block)
		}
		if (block[3] == TypeDisplayName || block[3] == TypeSerialString) && block[4] != 0 {
			return nil, fmt.Errorf("%w: reserved string descriptor byte non-zero: %x", ErrMalformed, block)
		}
	}
	return info, nil
}

func (i *Info) base() []byte {
	return i.raw[:128]
}

// Raw returns the full undecoded buffer.
func (i *Info) Raw() []byte {
	return i.raw
}

func (i *Info) descriptorBlocks() [][]byte {
	var blocks [][]byte
	base := i.base()
	for index := 0; index < descriptorCount; index++ {
		block := base[descriptorOffset+descriptorLength*index : descriptorOffset+descriptorLength*(index+1)]
		if block[0] == 0 && block[1] == 0 {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// descriptor returns the first descriptor block of the given type, or nil.
// A monitor need not report a name or serial descriptor, so a missing block
// is not an error.
func (i *Info) descriptor(id byte) []byte {
	for _, block := range i.descriptorBlocks() {
		if block[3] == id {
			return block
		}
	}
	return nil
}

func descriptorString(block []byte) string {
	if block == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range block[5:18] {
		if c < 0x80 {
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}

// ManufacturerID unpacks the three-letter PNP manufacturer code.
func (i *Info) ManufacturerID() string {
	word := binary.BigEndian.Uint16(i.base()[0x08:0x0A])
	return string([]byte{
		byte((word>>10)&0x1F) + 64,
		byte((word>>5)&0x1F) + 64,
		byte(word&0x1F) + 64,
	})
}

func (i *Info) Model() uint16 {
	return binary.LittleEndian.Uint16(i.base()[0x0A:0x0C])
}

func (i *Info) SerialNumber() uint32 {
	return binary.LittleEndian.Uint32(i.base()[0x0C:0x10])
}

func (i *Info) ManufactureWeek() int {
	return int(i.base()[0x10])
}

func (i *Info) ManufactureYear() int {
	return int(i.base()[0x11]) + 1990
}

// Version returns the EDID structure version, e.g. "1.4".
func (i *Info) Version() string {
	return fmt.Sprintf("%d.%d", i.base()[0x12], i.base()[0x13])
}

func (i *Info) ExtensionCount() int {
	return int(i.base()[0x7E])
}

func (i *Info) Checksum() byte {
	return i.base()[0x7F]
}

// NameDescriptor returns the display name string, if reported.
func (i *Info) NameDescriptor() string {
	return descriptorString(i.descriptor(TypeDisplayName))
}

// SerialDescriptor returns the serial string, if reported.
func (i *Info) SerialDescriptor() string {
	return descriptorString(i.descriptor(TypeSerialString))
}

// Identifier assembles "[MFG] Name (Serial)" from whichever parts the
// monitor reported, falling back to the numeric model and serial fields.
func (i *Info) Identifier() string {
	var parts []string
	if mfg := i.ManufacturerID(); mfg != "" {
		parts = append(parts, fmt.Sprintf("[%s]", mfg))
	}
	if name := i.NameDescriptor(); name != "" {
		parts = append(parts, name)
	} else if model := i.Model(); model != 0 {
		parts = append(parts, fmt.Sprintf("%d", model))
	}
	serial := i.SerialDescriptor()
	if serial == "" && i.SerialNumber() != 0 {
		serial = fmt.Sprintf("%d", i.SerialNumber())
	}
	if serial != "" {
		parts = append(parts, fmt.Sprintf("(%s)", serial))
	}
	return strings.Join(parts, " ")
}
