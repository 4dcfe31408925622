package proto

import (
	"bytes"
	"testing"

	"odinflash/internal/odinerr"
)

func TestHandshakeSuccess(t *testing.T) {
	dev := &mockDevice{}
	if err := Handshake(dev); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
}

type badHandshakeTransport struct{}

func (badHandshakeTransport) Write(buf []byte) (int, error) { return len(buf), nil }
func (badHandshakeTransport) Read(buf []byte) (int, error) {
	n := copy(buf, "LOKE\x00\x00\x00\x00")
	return n, nil
}

func TestHandshakeUnexpectedReplyIsFatal(t *testing.T) {
	err := Handshake(badHandshakeTransport{})
	if err == nil {
		t.Fatal("expected handshake error")
	}
	if !odinerr.Is(err, odinerr.KindHandshake) {
		t.Errorf("expected KindHandshake, got %v", err)
	}
}

func TestReceivePitSize1000(t *testing.T) {
	pitData := make([]byte, 1000)
	for i := range pitData {
		pitData[i] = byte(i)
	}
	dev := &mockDevice{pit: pitData}

	got, err := ReceivePit(dev)
	if err != nil {
		t.Fatalf("ReceivePit: %v", err)
	}
	if !bytes.Equal(got, pitData) {
		t.Fatal("pit bytes mismatch")
	}

	var partFrames []frame
	for _, f := range dev.trace {
		if f.word0 == uint32(controlPitFile) && f.word1 == pitPart {
			partFrames = append(partFrames, f)
		}
	}
	if len(partFrames) != 2 {
		t.Fatalf("expected 2 PART requests, got %d", len(partFrames))
	}
	if dev.zeroReads != 1 {
		t.Errorf("expected 1 post-read trailer, got %d", dev.zeroReads)
	}

	if dev.trace[0] != (frame{uint32(controlPitFile), pitDump}) {
		t.Errorf("first frame = %+v, want DUMP", dev.trace[0])
	}
	last := dev.trace[len(dev.trace)-1]
	if last != (frame{uint32(controlPitFile), pitEndTransfer}) {
		t.Errorf("last frame = %+v, want END_TRANSFER", last)
	}
}

func TestFileTransferSingleBatch3MiB(t *testing.T) {
	dev := &mockDevice{}
	size := uint64(3 * ChunkSize)
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}

	target := ApplicationProcessorTarget(2, 0)
	if err := FileTransfer(dev, target, bytes.NewReader(data), size); err != nil {
		t.Fatalf("FileTransfer: %v", err)
	}

	if len(dev.chunkPayloads) != 3 {
		t.Fatalf("expected 3 chunk payloads, got %d", len(dev.chunkPayloads))
	}
	if dev.zeroWrites != 3 {
		t.Errorf("expected 3 post-write trailers (one per chunk), got %d", dev.zeroWrites)
	}

	var endFrame *frame
	for i, f := range dev.trace {
		if f.word0 == uint32(controlFileTransfer) && f.word1 == fileEndTransfer {
			endFrame = &dev.trace[i]
		}
	}
	if endFrame == nil {
		t.Fatal("missing END_TRANSFER frame")
	}
}

func TestFileTransfer40MiBTwoBatches(t *testing.T) {
	dev := &mockDevice{}
	size := uint64(40 * ChunkSize)

	target := CommunicationProcessorTarget(0)
	if err := FileTransfer(dev, target, bytes.NewReader(make([]byte, size)), size); err != nil {
		t.Fatalf("FileTransfer: %v", err)
	}

	var partFrames []frame
	for _, f := range dev.trace {
		if f.word0 == uint32(controlFileTransfer) && f.word1 == filePart {
			partFrames = append(partFrames, f)
		}
	}
	if len(partFrames) != 2 {
		t.Fatalf("expected 2 PART(batch) requests, got %d", len(partFrames))
	}
	if partFrames[0].word1 != filePart {
		t.Fatalf("unexpected frame")
	}

	if len(dev.chunkPayloads) != 40 {
		t.Fatalf("expected 40 chunk payloads, got %d", len(dev.chunkPayloads))
	}
}

func TestFileTransferChunkAckMismatchIsFatal(t *testing.T) {
	bad := uint32(99)
	dev := &mockDevice{ackChunkIdxOverride: &bad}
	size := uint64(ChunkSize)

	err := FileTransfer(dev, ApplicationProcessorTarget(2, 0), bytes.NewReader(make([]byte, size)), size)
	if err == nil {
		t.Fatal("expected protocol mismatch error")
	}
	if !odinerr.Is(err, odinerr.KindProtocolMismatch) {
		t.Errorf("expected KindProtocolMismatch, got %v", err)
	}
}

func TestFullSessionTrace(t *testing.T) {
	dev := &mockDevice{pit: make([]byte, 10), defaultPacketSize: 0}

	if err := Handshake(dev); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	defaultSize, err := BeginSession(dev)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if defaultSize != 0 {
		t.Fatalf("expected default_packet_size 0, got %d", defaultSize)
	}

	if _, err := ReceivePit(dev); err != nil {
		t.Fatalf("ReceivePit: %v", err)
	}
	if err := SendTotalSize(dev, uint64(ChunkSize)); err != nil {
		t.Fatalf("SendTotalSize: %v", err)
	}
	if err := FileTransfer(dev, ApplicationProcessorTarget(2, 1), bytes.NewReader(make([]byte, ChunkSize)), ChunkSize); err != nil {
		t.Fatalf("FileTransfer: %v", err)
	}
	if err := EndSession(dev); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	want := []frame{
		{uint32(controlSession), sessionBegin},
		{uint32(controlPitFile), pitDump},
		{uint32(controlPitFile), pitPart},
		{uint32(controlPitFile), pitEndTransfer},
		{uint32(controlSession), sessionTotalBytes},
		{uint32(controlFileTransfer), fileFlash},
		{uint32(controlFileTransfer), filePart},
		{uint32(controlFileTransfer), fileEndTransfer},
		{uint32(controlEndSession), endSessionEnd},
	}
	if len(dev.trace) != len(want) {
		t.Fatalf("trace length = %d, want %d: %+v", len(dev.trace), len(want), dev.trace)
	}
	for i := range want {
		if dev.trace[i] != want[i] {
			t.Errorf("frame %d = %+v, want %+v", i, dev.trace[i], want[i])
		}
	}
}
