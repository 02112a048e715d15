package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"
)

// BinaryWriter writes snapshot body sections in little-endian order.
type BinaryWriter struct {
	w         io.Writer
	byteOrder binary.ByteOrder
}

// NewBinaryWriter creates a new binary section writer.
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{
		w:         w,
		byteOrder: binary.LittleEndian, // Native on x86/ARM
	}
}

// WriteUint32 writes a single uint32.
func (bw *BinaryWriter) WriteUint32(v uint32) error {
	var buf [4]byte
	bw.byteOrder.PutUint32(buf[:], v)
	_, err := bw.w.Write(buf[:])
	return err
}

// WriteInt32 writes a single int32.
func (bw *BinaryWriter) WriteInt32(v int32) error {
	return bw.WriteUint32(uint32(v))
}

// WriteFloat32Slice writes a float32 slice as raw bytes.
// Safety: Validates alignment before unsafe conversion.
func (bw *BinaryWriter) WriteFloat32Slice(vec []float32) error {
	if len(vec) == 0 {
		return nil
	}
	if err := validateAlignment(unsafe.Pointer(&vec[0]), 4); err != nil {
		return err
	}
	byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&vec[0])), len(vec)*4)
	_, err := bw.w.Write(byteSlice)
	return err
}

// WriteUint32Slice writes a uint32 slice as raw bytes.
// Safety: Validates alignment before unsafe conversion.
func (bw *BinaryWriter) WriteUint32Slice(slice []uint32) error {
	if len(slice) == 0 {
		return nil
	}
	if err := validateAlignment(unsafe.Pointer(&slice[0]), 4); err != nil {
		return err
	}
	byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&slice[0])), len(slice)*4)
	_, err := bw.w.Write(byteSlice)
	return err
}

// BinaryReader reads snapshot body sections.
type BinaryReader struct {
	r         io.Reader
	byteOrder binary.ByteOrder
}

// NewBinaryReader creates a new binary section reader.
func NewBinaryReader(r io.Reader) *BinaryReader {
	return &BinaryReader{
		r:         r,
		byteOrder: binary.LittleEndian,
	}
}

// ReadUint32 reads a single uint32.
func (br *BinaryReader) ReadUint32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(br.r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return br.byteOrder.Uint32(buf[:]), nil
}

// ReadInt32 reads a single int32.
func (br *BinaryReader) ReadInt32() (int32, error) {
	v, err := br.ReadUint32()
	return int32(v), err
}

// ReadFloat32Slice reads a float32 slice of the given length.
func (br *BinaryReader) ReadFloat32Slice(count int) ([]float32, error) {
	if count == 0 {
		return nil, nil
	}
	vec := make([]float32, count)
	byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&vec[0])), count*4)
	if _, err := io.ReadFull(br.r, byteSlice); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return vec, nil
}

// ReadUint32Slice reads a uint32 slice of the given length.
func (br *BinaryReader) ReadUint32Slice(count int) ([]uint32, error) {
	if count == 0 {
		return nil, nil
	}
	slice := make([]uint32, count)
	byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&slice[0])), count*4)
	if _, err := io.ReadFull(br.r, byteSlice); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return slice, nil
}

func validateAlignment(p unsafe.Pointer, align uintptr) error {
	if uintptr(p)%align != 0 {
		return fmt.Errorf("misaligned slice pointer %p (need %d-byte alignment)", p, align)
	}
	return nil
}
