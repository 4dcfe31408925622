package proto

import (
	"encoding/binary"
	"errors"
)

// frame records one outbound control packet's (word0, word1) pair,
// the unit the full session trace is checked against.
type frame struct {
	word0, word1 uint32
}

// mockDevice is a scripted replay of a successful flash: it decodes
// each outbound control packet and produces the response the real
// device would, while recording every frame, chunk payload, and
// trailer transfer so tests can assert on the full exchange.
type mockDevice struct {
	pit                []byte
	defaultPacketSize  uint32
	trace              []frame
	chunkPayloads      [][]byte
	zeroReads          int
	zeroWrites         int
	ackChunkIdxOverride *uint32 // when set, chunk acks report this index instead of the true one

	pending     func(r []byte) (int, error)
	nextChunkID uint32
}

func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

func (m *mockDevice) Write(buf []byte) (int, error) {
	switch {
	case len(buf) == 0:
		m.zeroWrites++
		return 0, nil
	case len(buf) == 4 && string(buf) == "ODIN":
		m.pending = func(r []byte) (int, error) {
			n := copy(r, "LOKE")
			return n, nil
		}
		return len(buf), nil
	case len(buf) == requestSize:
		word0 := le32(buf[0:4])
		word1 := le32(buf[4:8])
		m.trace = append(m.trace, frame{word0, word1})
		m.pending = m.respond(buf, word0, word1)
		return len(buf), nil
	default:
		// A file payload chunk.
		cp := append([]byte(nil), buf...)
		m.chunkPayloads = append(m.chunkPayloads, cp)
		idx := m.nextChunkID
		if m.ackChunkIdxOverride != nil {
			idx = *m.ackChunkIdxOverride
		}
		m.nextChunkID++
		m.pending = func(r []byte) (int, error) {
			putU32(r, 0, respSendFilePart)
			putU32(r, 4, idx)
			return 8, nil
		}
		return len(buf), nil
	}
}

func (m *mockDevice) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		m.zeroReads++
		return 0, nil
	}
	if m.pending == nil {
		return 0, errors.New("mockDevice: unexpected read, nothing pending")
	}
	n, err := m.pending(buf)
	m.pending = nil
	return n, err
}

func (m *mockDevice) respond(buf []byte, word0, word1 uint32) func([]byte) (int, error) {
	switch word0 {
	case controlSession:
		switch word1 {
		case sessionBegin:
			return fixedResponse(respSetupSession, m.defaultPacketSize)
		case sessionFilePartSize, sessionTotalBytes:
			return fixedResponse(respSetupSession, 0)
		}
	case controlPitFile:
		switch word1 {
		case pitDump:
			return fixedResponse(respPitFile, uint32(len(m.pit)))
		case pitPart:
			idx := le32(buf[8:12])
			start := int(idx) * pitChunkSize
			end := start + pitChunkSize
			if end > len(m.pit) {
				end = len(m.pit)
			}
			chunk := m.pit[start:end]
			return func(r []byte) (int, error) {
				return copy(r, chunk), nil
			}
		case pitEndTransfer:
			return fixedResponse(respPitFile, 0)
		}
	case controlFileTransfer:
		return fixedResponse(respFileTransfer, 0)
	case controlEndSession:
		return fixedResponse(respEndSession, 0)
	}
	return fixedResponse(0xFFFFFFFF, 0)
}

func fixedResponse(typ, payload uint32) func([]byte) (int, error) {
	return func(r []byte) (int, error) {
		putU32(r, 0, typ)
		putU32(r, 4, payload)
		return 8, nil
	}
}
