package proto

import (
	"encoding/binary"
	"io"

	"odinflash/internal/odinerr"
)

// Handshake performs the Odin/LOKE greeting: write "ODIN", expect
// exactly "LOKE" back. Any other reply is a fatal Handshake error.
func Handshake(t Transport) error {
	if _, err := t.Write([]byte("ODIN")); err != nil {
		return odinerr.Wrap(odinerr.KindUSB, "handshake write", err)
	}

	buf := make([]byte, 8)
	n, err := t.Read(buf)
	if err != nil {
		return odinerr.Wrap(odinerr.KindUSB, "handshake read", err)
	}
	if n != 4 || string(buf[:4]) != "LOKE" {
		return odinerr.New(odinerr.KindHandshake, "unexpected greeting from device")
	}
	return nil
}

// BeginSession starts the protocol session and returns the device's
// default packet size. A non-zero result means the caller must follow
// up with SetupFilePartSize.
func BeginSession(t Transport) (uint32, error) {
	req := newRequest()
	putU32(req, 0, controlSession)
	putU32(req, 4, sessionBegin)
	putU32(req, 8, OdinVersion)

	resp, err := exchange(t, req, respSetupSession)
	if err != nil {
		return 0, err
	}
	return resp.payload, nil
}

// SetupFilePartSize negotiates the operational chunk size reported
// non-zero by BeginSession. DefaultFilePartSize is the conventional
// value to pass.
func SetupFilePartSize(t Transport, size uint32) error {
	req := newRequest()
	putU32(req, 0, controlSession)
	putU32(req, 4, sessionFilePartSize)
	putU32(req, 8, size)

	_, err := exchange(t, req, respSetupSession)
	return err
}

// SendTotalSize advertises the total byte count of every file about
// to be uploaded in this session, split across two 32-bit words.
func SendTotalSize(t Transport, size uint64) error {
	req := newRequest()
	putU32(req, 0, controlSession)
	putU32(req, 4, sessionTotalBytes)
	putU32(req, 8, uint32(size))
	putU32(req, 12, uint32(size>>32))

	_, err := exchange(t, req, respSetupSession)
	return err
}

// ReceivePit runs the three-phase PIT download subprotocol and
// returns the assembled pit_size-byte blob, ready for pit.Decode.
func ReceivePit(t Transport) ([]byte, error) {
	initReq := newRequest()
	putU32(initReq, 0, controlPitFile)
	putU32(initReq, 4, pitDump)

	resp, err := exchange(t, initReq, respPitFile)
	if err != nil {
		return nil, err
	}
	pitSize := resp.payload

	pitBuf := make([]byte, pitSize)
	_, err = withPostReadTrailer(t, func() (struct{}, error) {
		req := newRequest()
		putU32(req, 0, controlPitFile)
		putU32(req, 4, pitPart)

		count := (int(pitSize) + pitChunkSize - 1) / pitChunkSize
		for i := 0; i < count; i++ {
			start := i * pitChunkSize
			end := start + pitChunkSize
			if end > len(pitBuf) {
				end = len(pitBuf)
			}

			putU32(req, 8, uint32(i))
			if _, err := t.Write(req); err != nil {
				return struct{}{}, odinerr.Wrap(odinerr.KindUSB, "pit part write", err)
			}
			if _, err := t.Read(pitBuf[start:end]); err != nil {
				return struct{}{}, odinerr.Wrap(odinerr.KindUSB, "pit part read", err)
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}

	endReq := newRequest()
	putU32(endReq, 0, controlPitFile)
	putU32(endReq, 4, pitEndTransfer)
	if _, err := exchange(t, endReq, respPitFile); err != nil {
		return nil, err
	}

	return pitBuf, nil
}

// FileTransfer uploads file_size bytes read from r to target, pacing
// the upload into batches of up to ChunksPerBatch chunks of ChunkSize
// bytes. Short reads at EOF are zero-padded: the device expects a full
// ChunkSize buffer on every chunk, with EffectiveSize in the end-batch
// record carrying the true payload length.
func FileTransfer(t Transport, target FileTarget, r io.Reader, fileSize uint64) error {
	if err := beginFileTransfer(t); err != nil {
		return err
	}

	it := NewBatchIterator(fileSize, ChunkSize, ChunksPerBatch)
	chunkIdx := uint32(0)
	buf := make([]byte, ChunkSize)

	for {
		batch, ok := it.Next()
		if !ok {
			break
		}

		if err := beginBatchFileTransfer(t, batch.Size()); err != nil {
			return err
		}

		for n := 0; n < batch.Chunks; n++ {
			for i := range buf {
				buf[i] = 0
			}
			if _, err := io.ReadFull(r, buf); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
				return odinerr.Wrap(odinerr.KindIO, "read file chunk", err)
			}

			idx := chunkIdx
			if err := withPostWriteTrailer(t, func() error {
				return sendFileChunk(t, idx, buf)
			}); err != nil {
				return err
			}
			chunkIdx++
		}

		if err := endBatchFileTransfer(t, target, uint32(batch.EffectiveSize), batch.IsLast); err != nil {
			return err
		}
	}
	return nil
}

// EndSession closes the protocol session cleanly.
func EndSession(t Transport) error {
	req := newRequest()
	putU32(req, 0, controlEndSession)
	putU32(req, 4, endSessionEnd)
	_, err := exchange(t, req, respEndSession)
	return err
}

// Reboot asks the device to reboot. Only valid as a post-terminal
// side effect after EndSession.
func Reboot(t Transport) error {
	req := newRequest()
	putU32(req, 0, controlEndSession)
	putU32(req, 4, endSessionReboot)
	_, err := exchange(t, req, respEndSession)
	return err
}

func beginFileTransfer(t Transport) error {
	req := newRequest()
	putU32(req, 0, controlFileTransfer)
	putU32(req, 4, fileFlash)
	_, err := exchange(t, req, respFileTransfer)
	return err
}

func beginBatchFileTransfer(t Transport, size uint64) error {
	req := newRequest()
	putU32(req, 0, controlFileTransfer)
	putU32(req, 4, filePart)
	putU32(req, 8, uint32(size))
	_, err := exchange(t, req, respFileTransfer)
	return err
}

func sendFileChunk(t Transport, chunkIdx uint32, chunk []byte) error {
	if _, err := t.Write(chunk); err != nil {
		return odinerr.Wrap(odinerr.KindUSB, "write file chunk", err)
	}

	buf := make([]byte, responseSize)
	if _, err := t.Read(buf); err != nil {
		return odinerr.Wrap(odinerr.KindUSB, "read chunk ack", err)
	}

	typ := binary.LittleEndian.Uint32(buf[0:4])
	if typ != respSendFilePart {
		return odinerr.Newf(odinerr.KindProtocolMismatch,
			"expected chunk ack type %#02x, got %#02x", respSendFilePart, typ)
	}
	ackIdx := binary.LittleEndian.Uint32(buf[4:8])
	if ackIdx != chunkIdx {
		return odinerr.Newf(odinerr.KindProtocolMismatch,
			"device acked chunk %d, expected %d", ackIdx, chunkIdx)
	}
	return nil
}

func endBatchFileTransfer(t Transport, target FileTarget, effectiveSize uint32, eof bool) error {
	req := newRequest()
	putU32(req, 0, controlFileTransfer)
	putU32(req, 4, fileEndTransfer)
	putU32(req, 12, effectiveSize)
	putU32(req, 16, 0) // unknown1

	eofWord := uint32(0)
	if eof {
		eofWord = 1
	}

	if target.isAP {
		putU32(req, 8, destPhone)
		putU32(req, 20, target.deviceType)
		putU32(req, 24, target.identifier)
		putU32(req, 28, eofWord)
	} else {
		putU32(req, 8, destModem)
		putU32(req, 20, target.deviceType)
		putU32(req, 24, eofWord)
	}

	_, err := exchange(t, req, respFileTransfer)
	return err
}
