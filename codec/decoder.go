package codec

import (
	"encoding/binary"
	"fmt"
)

// DecodeError reports where and why input failed to decode. Kind is the
// sentinel callers match with errors.Is.
type DecodeError struct {
	Kind   error
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", e.Kind, e.Offset, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

// Decoder reads the layout written by Encoder from a byte slice.
type Decoder struct {
	data []byte
	off  int
	kind error
}

// NewDecoder returns a decoder whose errors wrap kind.
func NewDecoder(data []byte, kind error) *Decoder {
	return &Decoder{data: data, kind: kind}
}

func (d *Decoder) fail(format string, args ...interface{}) error {
	return &DecodeError{Kind: d.kind, Offset: d.off, Reason: fmt.Sprintf(format, args...)}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

// Offset returns the read position.
func (d *Decoder) Offset() int {
	return d.off
}

func (d *Decoder) take(n int, what string) ([]byte, error) {
	if n < 0 || n > d.Remaining() {
		return nil, d.fail("%s needs %d bytes, %d remain", what, n, d.Remaining())
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) ReadU8(what string) (uint8, error) {
	b, err := d.take(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadU32(what string) (uint32, error) {
	b, err := d.take(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) ReadU64(what string) (uint64, error) {
	b, err := d.take(8, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadFixed reads exactly n bytes. The result is a copy.
func (d *Decoder) ReadFixed(n int, what string) ([]byte, error) {
	b, err := d.take(n, what)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadBytes reads a u32 length prefix and that many bytes. A declared
// length above limit is rejected before any allocation; limit <= 0 means
// only the input length bounds it.
func (d *Decoder) ReadBytes(limit int, what string) ([]byte, error) {
	start := d.off
	n, err := d.ReadU32(what + " length")
	if err != nil {
		return nil, err
	}
	if limit > 0 && uint64(n) > uint64(limit) {
		d.off = start
		return nil, d.fail("%s length %d exceeds limit %d", what, n, limit)
	}
	if uint64(n) > uint64(d.Remaining()) {
		d.off = start
		return nil, d.fail("%s length %d overruns input, %d bytes remain", what, n, d.Remaining())
	}
	return d.ReadFixed(int(n), what)
}

// Finish fails if unread bytes remain.
func (d *Decoder) Finish() error {
	if r := d.Remaining(); r != 0 {
		return d.fail("%d trailing bytes", r)
	}
	return nil
}
