package pit

import (
	"bytes"
	"encoding/binary"
	"testing"

	"odinflash/internal/odinerr"
)

func buildEntry(partitionName, flashName string, binType, devType uint32) []byte {
	buf := make([]byte, EntrySize)
	binary.LittleEndian.PutUint32(buf[0:4], binType)
	binary.LittleEndian.PutUint32(buf[4:8], devType)
	binary.LittleEndian.PutUint32(buf[8:12], 0)  // identifier
	binary.LittleEndian.PutUint32(buf[12:16], 0) // attributes
	binary.LittleEndian.PutUint32(buf[16:20], 0) // update_attributes
	binary.LittleEndian.PutUint32(buf[20:24], 0) // blocksize_or_offset
	binary.LittleEndian.PutUint32(buf[24:28], 0) // block_count
	binary.LittleEndian.PutUint32(buf[28:32], 0) // file_offset
	binary.LittleEndian.PutUint32(buf[32:36], 0) // file_size
	copy(buf[36:68], partitionName)
	copy(buf[68:100], flashName)
	// fota_filename left zeroed
	return buf
}

func buildPit(entries ...[]byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, Signature)
	binary.Write(&buf, binary.LittleEndian, uint32(len(entries)))
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // unknown1
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // unknown2
	for i := 0; i < 6; i++ {
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	for _, e := range entries {
		buf.Write(e)
	}
	return buf.Bytes()
}

func TestDecodeRoundTrip(t *testing.T) {
	raw := buildPit(
		buildEntry("BOOT", "boot.img", 0, 2),
		buildEntry("MODEM", "modem.bin", 1, 0),
	)

	p, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(p.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(p.Entries))
	}
	if p.Entries[0].PartitionName.String() != "BOOT" {
		t.Errorf("entry 0 name = %q, want BOOT", p.Entries[0].PartitionName.String())
	}
	if p.Entries[0].BinaryType != ApplicationProcessor {
		t.Errorf("entry 0 binary type = %v, want AP", p.Entries[0].BinaryType)
	}
	if p.Entries[1].BinaryType != CommunicationProcessor {
		t.Errorf("entry 1 binary type = %v, want CP", p.Entries[1].BinaryType)
	}
}

func TestDecodeInvalidSignature(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x00, 0x00}
	_, err := Decode(bytes.NewReader(raw))
	if err == nil {
		t.Fatal("expected error for invalid signature")
	}
	if !odinerr.Is(err, odinerr.KindInvalidPit) {
		t.Errorf("expected KindInvalidPit, got %v", err)
	}
}

func TestNameLogicalLength(t *testing.T) {
	cases := []struct {
		raw  [32]byte
		want int
	}{
		{raw: [32]byte{}, want: 0},
		{want: 32},
	}
	cases[1].raw = [32]byte{}
	for i := range cases[1].raw {
		cases[1].raw[i] = 'A'
	}

	for _, c := range cases {
		n := Name(c.raw)
		if got := n.len(); got != c.want {
			t.Errorf("len() = %d, want %d", got, c.want)
		}
	}
}

func TestNameEqualFoldCaseInsensitive(t *testing.T) {
	var n Name
	copy(n[:], "BoOt")

	if !n.EqualFold("boot") {
		t.Error("expected case-insensitive match")
	}
	if !n.EqualFold("BOOT") {
		t.Error("expected case-insensitive match")
	}
	if n.EqualFold("recovery") {
		t.Error("expected mismatch")
	}
}

func TestUnknownBinaryTypePreservesValue(t *testing.T) {
	bt := BinaryType(7)
	if bt.IsKnown() {
		t.Error("expected unknown binary type")
	}
	if bt.String() != "Unknown(7)" {
		t.Errorf("String() = %q", bt.String())
	}
}

func TestAttributesRetainUnknownBits(t *testing.T) {
	a := Attributes(0xFF)
	if !a.Has(AttrWrite) || !a.Has(AttrSTL) {
		t.Error("expected known flags set")
	}
	if uint32(a) != 0xFF {
		t.Errorf("expected unknown bits preserved, got %#x", uint32(a))
	}
}
