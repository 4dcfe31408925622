// Package pit decodes the Odin Partition Information Table: a
// little-endian, fixed-record binary format describing the partitions a
// Samsung device exposes to the download-mode protocol.
package pit

import (
	"encoding/binary"
	"fmt"
	"io"

	"odinflash/internal/odinerr"
)

// Signature is the magic value every valid PIT blob begins with.
const Signature uint32 = 0x12349876

// EntrySize is the on-wire size of a single partition entry, in bytes.
const EntrySize = 132

// Pit is the decoded table: a header of mostly-unknown fields plus the
// partition entries. It is immutable once decoded.
type Pit struct {
	Unknown1 uint32
	Unknown2 uint32
	Unknown3 uint16
	Unknown4 uint16
	Unknown5 uint16
	Unknown6 uint16
	Unknown7 uint16
	Unknown8 uint16
	Entries  []Entry
}

// Decode reads a PIT blob from r. The signature must match exactly: a
// prefix shorter than 4 bytes is reported as an error wrapping io.EOF or
// io.ErrUnexpectedEOF, any other wrong prefix as a KindInvalidPit error
// wrapping ErrInvalidSignature.
func Decode(r io.Reader) (*Pit, error) {
	var sig uint32
	if err := binary.Read(r, binary.LittleEndian, &sig); err != nil {
		return nil, fmt.Errorf("pit: read signature: %w", err)
	}
	if sig != Signature {
		return nil, odinerr.Wrap(odinerr.KindInvalidPit,
			fmt.Sprintf("got %#08x, want %#08x", sig, Signature), ErrInvalidSignature)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("pit: read count: %w", err)
	}

	p := &Pit{}
	fields := []interface{}{
		&p.Unknown1, &p.Unknown2,
		&p.Unknown3, &p.Unknown4, &p.Unknown5,
		&p.Unknown6, &p.Unknown7, &p.Unknown8,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("pit: read header: %w", err)
		}
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := decodeEntry(r)
		if err != nil {
			return nil, fmt.Errorf("pit: entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	p.Entries = entries
	return p, nil
}

// FindPartitionName returns the first entry whose partition name
// matches name, ASCII case-insensitively.
func (p *Pit) FindPartitionName(name string) (*Entry, bool) {
	for i := range p.Entries {
		if p.Entries[i].PartitionName.EqualFold(name) {
			return &p.Entries[i], true
		}
	}
	return nil, false
}

// FindFlashFilename returns the first entry whose flash filename
// matches name, ASCII case-insensitively.
func (p *Pit) FindFlashFilename(name string) (*Entry, bool) {
	for i := range p.Entries {
		if p.Entries[i].FlashFilename.EqualFold(name) {
			return &p.Entries[i], true
		}
	}
	return nil, false
}

func decodeEntry(r io.Reader) (Entry, error) {
	var e Entry
	var binType, devType uint32
	var attrs, updAttrs uint32

	u32s := []*uint32{&binType, &devType, &e.Identifier, &attrs, &updAttrs,
		&e.BlocksizeOrOffset, &e.BlockCount, &e.FileOffset, &e.FileSize}
	for _, f := range u32s {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return e, err
		}
	}

	e.BinaryType = BinaryType(binType)
	e.DeviceType = DeviceType(devType)
	e.Attributes = Attributes(attrs)
	e.UpdateAttributes = UpdateAttributes(updAttrs)

	for _, name := range []*Name{&e.PartitionName, &e.FlashFilename, &e.FotaFilename} {
		if _, err := io.ReadFull(r, name[:]); err != nil {
			return e, err
		}
	}
	return e, nil
}
