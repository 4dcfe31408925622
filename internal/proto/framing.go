package proto

import (
	"encoding/binary"

	"odinflash/internal/odinerr"
)

// newRequest allocates a zero-filled 1024-byte request packet.
func newRequest() []byte {
	return make([]byte, requestSize)
}

// putU32 writes v as a little-endian word at the given byte offset.
func putU32(buf []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
}

// response is the decoded 8-byte reply: word 0 is the response type,
// word 1 is a protocol-defined payload (packet size, PIT size, chunk
// ack index, ...).
type response struct {
	typ     uint32
	payload uint32
}

// exchange writes req and reads back an 8-byte response, verifying its
// type matches want. A mismatch is a fatal, non-retried protocol error.
func exchange(t Transport, req []byte, want uint32) (response, error) {
	if _, err := t.Write(req); err != nil {
		return response{}, odinerr.Wrap(odinerr.KindUSB, "write request", err)
	}

	buf := make([]byte, responseSize)
	if _, err := t.Read(buf); err != nil {
		return response{}, odinerr.Wrap(odinerr.KindUSB, "read response", err)
	}

	resp := response{
		typ:     binary.LittleEndian.Uint32(buf[0:4]),
		payload: binary.LittleEndian.Uint32(buf[4:8]),
	}
	if resp.typ != want {
		return resp, odinerr.Newf(odinerr.KindProtocolMismatch,
			"expected response type %#02x, got %#02x", want, resp.typ)
	}
	return resp, nil
}
