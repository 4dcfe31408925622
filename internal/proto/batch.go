package proto

// Batch describes one PART negotiation within file_transfer: up to
// ChunksPerBatch chunks of ChunkSize bytes, with EffectiveSize the
// actual payload bytes carried (which may be less than Chunks*ChunkSize
// only on the final batch).
type Batch struct {
	Chunks        int
	ChunkSize     int
	EffectiveSize uint64
	IsLast        bool
}

// Size returns the buffer size advertised to the device in the
// begin-batch PART request: Chunks*ChunkSize, which may exceed
// EffectiveSize — the device is told the maximum buffer it will
// receive, not the true payload length.
func (b Batch) Size() uint64 {
	return uint64(b.Chunks) * uint64(b.ChunkSize)
}

// BatchIterator partitions a total-byte budget into batches of up to
// chunksPerBatch chunks of chunkSize bytes each. It is finite and
// forward-only: effective sizes sum to total, at most one batch is
// marked IsLast, and that batch is always the final one yielded.
type BatchIterator struct {
	bytesLeft      uint64
	chunkSize      int
	chunksPerBatch int
}

// NewBatchIterator creates an iterator over total bytes.
func NewBatchIterator(total uint64, chunkSize, chunksPerBatch int) *BatchIterator {
	return &BatchIterator{
		bytesLeft:      total,
		chunkSize:      chunkSize,
		chunksPerBatch: chunksPerBatch,
	}
}

// Next yields the next batch, or ok=false once the budget is
// exhausted. When total was 0, the very first call returns ok=false.
func (it *BatchIterator) Next() (batch Batch, ok bool) {
	if it.bytesLeft == 0 {
		return Batch{}, false
	}

	batchSize := uint64(it.chunkSize) * uint64(it.chunksPerBatch)
	effective := it.bytesLeft
	if effective > batchSize {
		effective = batchSize
	}
	isLast := it.bytesLeft <= batchSize

	chunks := int((effective + uint64(it.chunkSize) - 1) / uint64(it.chunkSize))

	it.bytesLeft -= effective

	return Batch{
		Chunks:        chunks,
		ChunkSize:     it.chunkSize,
		EffectiveSize: effective,
		IsLast:        isLast,
	}, true
}
