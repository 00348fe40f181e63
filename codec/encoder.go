package codec

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Encoder writes the canonical little-endian layout: fixed-width integers,
// and byte strings prefixed with their u32 length.
type Encoder struct {
	w   io.Writer
	err error
	n   int
}

// NewEncoder creates a new encoder with the given writer.
func NewEncoder(writer io.Writer) *Encoder {
	return &Encoder{w: writer}
}

func (e *Encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	n, err := e.w.Write(b)
	e.n += n
	e.err = err
}

func (e *Encoder) WriteU8(v uint8) {
	e.write([]byte{v})
}

func (e *Encoder) WriteU32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	e.write(buf[:])
}

func (e *Encoder) WriteU64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	e.write(buf[:])
}

// WriteFixed writes b without a length prefix.
func (e *Encoder) WriteFixed(b []byte) {
	e.write(b)
}

// WriteBytes writes a u32 length followed by b.
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteU32(uint32(len(b)))
	e.write(b)
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return e.n
}

// Err returns the first write error.
func (e *Encoder) Err() error {
	return e.err
}

// encodeWith runs fn against a fresh buffer. Writes to a bytes.Buffer
// cannot fail, so the error is dropped.
func encodeWith(size int, fn func(e *Encoder)) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	fn(NewEncoder(buf))
	return buf.Bytes()
}
