package tds

import "slices"

// BufferSize is the number of raw samples kept for median filtering.
const BufferSize = 10

// Buffer is a fixed-capacity circular buffer of raw probe voltages.
// All BufferSize slots always take part in filtering; slots that have not been
// written since the last Reset hold 0.
type Buffer struct {
	samples [BufferSize]float32
	index   int // next slot to write
	filled  int // real samples written since Reset, saturates at BufferSize
}

// Ingest stores v in the current slot and advances the write index.
// No value is rejected; clamping is left to later pipeline stages.
func (b *Buffer) Ingest(v float32) {
	b.samples[b.index] = v
	b.index = (b.index + 1) % BufferSize
	if b.filled < BufferSize {
		b.filled++
	}
}

// Reset zeroes every slot and rewinds the write index.
func (b *Buffer) Reset() {
	b.samples = [BufferSize]float32{}
	b.index = 0
	b.filled = 0
}

// Len returns how many real samples were written since Reset (at most BufferSize).
func (b *Buffer) Len() int { return b.filled }

// Full reports whether every slot holds a real sample.
func (b *Buffer) Full() bool { return b.filled == BufferSize }

// Samples returns a copy of the slots in storage order.
func (b *Buffer) Samples() [BufferSize]float32 { return b.samples }

// Median returns the median of all slots, using scratch as sort space so the
// live buffer keeps its insertion order.
func (b *Buffer) Median(scratch *[BufferSize]float32) float32 {
	return Median(scratch[:0], b.samples[:])
}

// Median copies samples into scratch, sorts the copy and returns the middle
// element (odd length) or the mean of the two middle elements (even length).
// scratch is reused when it has enough capacity. Empty input yields 0.
func Median(scratch, samples []float32) float32 {
	n := len(samples)
	if n == 0 {
		return 0
	}

	sorted := append(scratch[:0], samples...)
	slices.Sort(sorted)

	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
