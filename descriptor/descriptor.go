// Package descriptor holds per-image batches of fixed-dimension feature
// vectors, as produced by an external extractor (ORB, SIFT, learned
// features, ...).
//
// Descriptors are stored flattened (row-major, one backing array per batch)
// so that clustering and tree descent can work on contiguous memory without
// per-row allocations. Binary descriptors are expected to be bit-expanded to
// {0,1} float32 values by the extraction boundary.
package descriptor

import "fmt"

// ErrDimensionMismatch indicates a descriptor whose length does not match
// the batch dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("descriptor dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid descriptor dimension: %d", e.Dimension)
}

// Batch is the ordered sequence of descriptors extracted from one image.
//
// A Batch is append-only while being assembled and must be treated as
// immutable once handed to a vocabulary or database.
type Batch struct {
	dim  int
	data []float32
}

// NewBatch creates an empty batch for descriptors of the given dimension.
func NewBatch(dim int) (*Batch, error) {
	if dim <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dim}
	}
	return &Batch{dim: dim}, nil
}

// FromRows builds a batch from individual descriptor rows.
// All rows must share the same length.
func FromRows(rows [][]float32) (*Batch, error) {
	if len(rows) == 0 {
		return nil, &ErrInvalidDimension{Dimension: 0}
	}
	b, err := NewBatch(len(rows[0]))
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := b.Append(row); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Append copies one descriptor into the batch.
func (b *Batch) Append(vec []float32) error {
	if len(vec) != b.dim {
		return &ErrDimensionMismatch{Expected: b.dim, Actual: len(vec)}
	}
	b.data = append(b.data, vec...)
	return nil
}

// Len returns the number of descriptors in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data) / b.dim
}

// Dim returns the descriptor dimensionality.
func (b *Batch) Dim() int { return b.dim }

// At returns the i-th descriptor as a view into the backing array.
// The returned slice must not be modified.
func (b *Batch) At(i int) []float32 {
	return b.data[i*b.dim : (i+1)*b.dim]
}

// Data returns the flattened row-major backing array.
// The returned slice must not be modified.
func (b *Batch) Data() []float32 { return b.data }

// Concat pools multiple batches into a single flattened batch.
// All batches must share the same dimension. Used to pool a training corpus
// before clustering.
func Concat(batches ...*Batch) (*Batch, error) {
	var dim, total int
	for _, batch := range batches {
		if batch == nil || batch.Len() == 0 {
			continue
		}
		if dim == 0 {
			dim = batch.dim
		} else if batch.dim != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: batch.dim}
		}
		total += len(batch.data)
	}
	if dim == 0 {
		return nil, &ErrInvalidDimension{Dimension: 0}
	}

	out := &Batch{dim: dim, data: make([]float32, 0, total)}
	for _, batch := range batches {
		if batch == nil {
			continue
		}
		out.data = append(out.data, batch.data...)
	}
	return out, nil
}
