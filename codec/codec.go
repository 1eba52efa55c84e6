package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/teranos/canopy/errors"
)

// MaxElements bounds the element count of a record, on both encode and decode
const MaxElements = 1 << 26

// Record is one encoded canopy
type Record struct {
	ID           int32
	Observations int64
	Center       Array
}

// Encoder writes records to a stream
type Encoder struct {
	w   *bufio.Writer
	buf [8]byte
}

// NewEncoder creates an Encoder; call Flush when done
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes one record. Records with a nil or foreign array are rejected.
func (e *Encoder) Encode(rec Record) error {
	if rec.Center == nil {
		return errors.NewCodecErrorf("record %d has no center", rec.ID)
	}
	kind := rec.Center.Kind()
	tag, ok := kindTags[kind]
	if !ok {
		return errors.NewCodecErrorf("record %d: unsupported element type %d", rec.ID, kind)
	}
	if n := rec.Center.Len(); n > MaxElements {
		return errors.NewCodecErrorf("record %d: length %d exceeds %d", rec.ID, n, MaxElements)
	}

	e.putUint32(uint32(rec.ID))
	e.putUint64(uint64(rec.Observations))
	e.putUint16(uint16(len(tag)))
	e.w.WriteString(tag)
	e.putUint32(uint32(rec.Center.Len()))

	switch v := rec.Center.(type) {
	case BoolArray:
		for _, x := range v {
			if x {
				e.w.WriteByte(1)
			} else {
				e.w.WriteByte(0)
			}
		}
	case ByteArray:
		for _, x := range v {
			e.w.WriteByte(byte(x))
		}
	case CharArray:
		for _, x := range v {
			e.putUint16(x)
		}
	case ShortArray:
		for _, x := range v {
			e.putUint16(uint16(x))
		}
	case IntArray:
		for _, x := range v {
			e.putUint32(uint32(x))
		}
	case LongArray:
		for _, x := range v {
			e.putUint64(uint64(x))
		}
	case FloatArray:
		for _, x := range v {
			e.putUint32(math.Float32bits(x))
		}
	case DoubleArray:
		for _, x := range v {
			e.putUint64(math.Float64bits(x))
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

func (e *Encoder) putUint16(v uint16) {
	binary.BigEndian.PutUint16(e.buf[:2], v)
	e.w.Write(e.buf[:2])
}

func (e *Encoder) putUint32(v uint32) {
	binary.BigEndian.PutUint32(e.buf[:4], v)
	e.w.Write(e.buf[:4])
}

func (e *Encoder) putUint64(v uint64) {
	binary.BigEndian.PutUint64(e.buf[:8], v)
	e.w.Write(e.buf[:8])
}

// Marshal encodes a single record
func Marshal(rec Record) ([]byte, error) {
	var b bytes.Buffer
	enc := NewEncoder(&b)
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Unmarshal decodes a single record
func Unmarshal(data []byte) (Record, error) {
	return NewDecoder(bytes.NewReader(data)).Decode()
}

// Decoder reads records from a stream
type Decoder struct {
	r        *bufio.Reader
	expected ElementKind
	buf      [8]byte
}

// NewDecoder creates a Decoder accepting any supported element type
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Expect makes Decode fail on records whose element type differs from kind
func (d *Decoder) Expect(kind ElementKind) *Decoder {
	d.expected = kind
	return d
}

// Decode reads the next record. It returns io.EOF at a clean end of stream
// and a codec error for truncated or invalid records.
func (d *Decoder) Decode() (Record, error) {
	var rec Record

	id, err := d.uint32()
	if err == io.EOF {
		return rec, io.EOF
	}
	if err != nil {
		return rec, d.truncated(err, "id")
	}
	rec.ID = int32(id)

	obs, err := d.uint64()
	if err != nil {
		return rec, d.truncated(err, "observations")
	}
	rec.Observations = int64(obs)

	tagLen, err := d.uint16()
	if err != nil {
		return rec, d.truncated(err, "element type")
	}
	tag := make([]byte, tagLen)
	if _, err := io.ReadFull(d.r, tag); err != nil {
		return rec, d.truncated(err, "element type")
	}
	kind, err := ParseElementKind(string(tag))
	if err != nil {
		return rec, errors.Wrapf(err, "record %d", rec.ID)
	}
	if d.expected != KindInvalid && kind != d.expected {
		return rec, errors.NewCodecErrorf("record %d: expected %s elements, found %s", rec.ID, d.expected, kind)
	}

	rawLen, err := d.uint32()
	if err != nil {
		return rec, d.truncated(err, "length")
	}
	n := int32(rawLen)
	if n < 0 {
		return rec, errors.NewCodecErrorf("record %d: negative length %d", rec.ID, n)
	}
	if n > MaxElements {
		return rec, errors.NewCodecErrorf("record %d: length %d exceeds %d", rec.ID, n, MaxElements)
	}

	rec.Center, err = d.elements(kind, int(n))
	if err != nil {
		return rec, d.truncated(err, "elements")
	}
	return rec, nil
}

// DecodeAll reads records until the end of the stream
func (d *Decoder) DecodeAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := d.Decode()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func (d *Decoder) elements(kind ElementKind, n int) (Array, error) {
	switch kind {
	case KindBool:
		out := make(BoolArray, n)
		for i := range out {
			b, err := d.r.ReadByte()
			if err != nil {
				return nil, err
			}
			out[i] = b != 0
		}
		return out, nil
	case KindByte:
		out := make(ByteArray, n)
		for i := range out {
			b, err := d.r.ReadByte()
			if err != nil {
				return nil, err
			}
			out[i] = int8(b)
		}
		return out, nil
	case KindChar:
		out := make(CharArray, n)
		for i := range out {
			v, err := d.uint16()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case KindShort:
		out := make(ShortArray, n)
		for i := range out {
			v, err := d.uint16()
			if err != nil {
				return nil, err
			}
			out[i] = int16(v)
		}
		return out, nil
	case KindInt:
		out := make(IntArray, n)
		for i := range out {
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			out[i] = int32(v)
		}
		return out, nil
	case KindLong:
		out := make(LongArray, n)
		for i := range out {
			v, err := d.uint64()
			if err != nil {
				return nil, err
			}
			out[i] = int64(v)
		}
		return out, nil
	case KindFloat:
		out := make(FloatArray, n)
		for i := range out {
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			out[i] = math.Float32frombits(v)
		}
		return out, nil
	case KindDouble:
		out := make(DoubleArray, n)
		for i := range out {
			v, err := d.uint64()
			if err != nil {
				return nil, err
			}
			out[i] = math.Float64frombits(v)
		}
		return out, nil
	}
	return nil, errors.NewCodecErrorf("unsupported element type %s", kind)
}

func (d *Decoder) truncated(err error, field string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.NewCodecErrorf("truncated record: missing %s", field)
	}
	return errors.Wrapf(err, "failed to read %s", field)
}

func (d *Decoder) uint16() (uint16, error) {
	if _, err := io.ReadFull(d.r, d.buf[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(d.buf[:2]), nil
}

func (d *Decoder) uint32() (uint32, error) {
	if _, err := io.ReadFull(d.r, d.buf[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(d.buf[:4]), nil
}

func (d *Decoder) uint64() (uint64, error) {
	if _, err := io.ReadFull(d.r, d.buf[:8]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(d.buf[:8]), nil
}
