package embedding

import "sync/atomic"

// vectorSize is a vector dimension that is either configured or learnt from the
// first response. It is safe for concurrent Embed calls.
type vectorSize struct {
	n atomic.Int64
}

func newVectorSize(n int) *vectorSize {
	d := &vectorSize{}
	d.n.Store(int64(n))
	return d
}

func (d *vectorSize) get() int {
	return int(d.n.Load())
}

// learn records the size of the first vector unless one is already known.
func (d *vectorSize) learn(vectors [][]float32) {
	if len(vectors) > 0 {
		d.n.CompareAndSwap(0, int64(len(vectors[0])))
	}
}
