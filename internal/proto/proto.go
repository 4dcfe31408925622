// Package proto implements the Odin/LOKE wire protocol: 1024-byte
// request framing, 8-byte responses, the post-op trailers the device
// requires, the chunk/batch pacing rules for file upload, and the PIT
// download subprotocol. It is single-threaded and blocking by design.
package proto

// Transport is the narrow capability the protocol layer depends on:
// one bulk IN and one bulk OUT, each bounded by a timeout configured
// on the concrete implementation (internal/usb.Handle in production,
// a scripted fake in tests). Every call is attempted once; the
// protocol layer never retries a transport error.
type Transport interface {
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
}

// Control packet types (word 0 of a request).
const (
	controlSession      uint32 = 0x64
	controlPitFile      uint32 = 0x65
	controlFileTransfer uint32 = 0x66
	controlEndSession   uint32 = 0x67
)

// Session sub-request types (word 1 of a SESSION request).
const (
	sessionBegin uint32 = 0x00
	// sessionDeviceType and sessionEnableTFlash are part of the wire
	// format but this core never issues them.
	sessionDeviceType   uint32 = 0x01
	sessionTotalBytes   uint32 = 0x02
	sessionFilePartSize uint32 = 0x05
	sessionEnableTFlash uint32 = 0x08
)

// End-session sub-request types.
const (
	endSessionEnd    uint32 = 0x00
	endSessionReboot uint32 = 0x01
)

// PIT sub-request types.
const (
	pitDump        uint32 = 0x01
	pitPart        uint32 = 0x02
	pitEndTransfer uint32 = 0x03
)

// File-transfer sub-request types.
const (
	fileFlash       uint32 = 0x00
	filePart        uint32 = 0x02
	fileEndTransfer uint32 = 0x03
)

// File end-transfer destination codes.
const (
	destPhone uint32 = 0x00
	destModem uint32 = 0x01
)

// Response types (word 0 of an 8-byte response).
const (
	respSendFilePart  uint32 = 0x00
	respSetupSession  uint32 = 0x64
	respPitFile       uint32 = 0x65
	respFileTransfer  uint32 = 0x66
	respEndSession    uint32 = 0x67
)

// OdinVersion is the fixed protocol version this core advertises in
// begin_session. The core never negotiates beyond this fixed value.
const OdinVersion uint32 = 4

// requestSize and responseSize are the fixed framing widths.
const (
	requestSize  = 1024
	responseSize = 8
)

// DefaultFilePartSize is the operational chunk size negotiated via
// setup_file_part_size when the device reports a non-zero default
// packet size from begin_session.
const DefaultFilePartSize uint32 = 1 << 20 // 1 MiB

// ChunkSize is the fixed per-chunk payload size used by file_transfer.
const ChunkSize = 1 << 20 // 1 MiB

// ChunksPerBatch is the fixed number of chunks negotiated per PART
// request inside file_transfer.
const ChunksPerBatch = 30

// pitChunkSize is the fixed slice width for the PIT dump loop.
const pitChunkSize = 500
