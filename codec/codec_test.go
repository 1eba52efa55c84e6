package codec

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/canopy/errors"
)

func TestRoundTrip(t *testing.T) {
	arrays := []Array{
		BoolArray{true, false, true},
		ByteArray{-128, 0, 127},
		CharArray{'a', 0xFFFF},
		ShortArray{-32768, 1, 32767},
		IntArray{1, 2, 3, math.MaxInt32, math.MinInt32},
		LongArray{math.MinInt64, 0, math.MaxInt64},
		FloatArray{1.5, -0.25, float32(math.Inf(1))},
		DoubleArray{math.Pi, -math.MaxFloat64},
		IntArray{},
	}

	for _, arr := range arrays {
		t.Run(arr.Kind().String(), func(t *testing.T) {
			rec := Record{ID: 42, Observations: 1 << 40, Center: arr}

			data, err := Marshal(rec)
			require.NoError(t, err)

			got, err := Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, rec, got)
		})
	}
}

func TestWireFormat(t *testing.T) {
	data, err := Marshal(Record{ID: 1, Observations: 2, Center: IntArray{3}})
	require.NoError(t, err)

	want := []byte{
		0, 0, 0, 1,
		0, 0, 0, 0, 0, 0, 0, 2,
		0, 3, 'i', 'n', 't',
		0, 0, 0, 1,
		0, 0, 0, 3,
	}
	assert.Equal(t, want, data)
}

// header builds a record prefix with an arbitrary tag and declared length
func header(tag string, length int32) []byte {
	var b bytes.Buffer
	binary.Write(&b, binary.BigEndian, int32(7))
	binary.Write(&b, binary.BigEndian, int64(1))
	binary.Write(&b, binary.BigEndian, uint16(len(tag)))
	b.WriteString(tag)
	binary.Write(&b, binary.BigEndian, length)
	return b.Bytes()
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantMsg string
	}{
		{"unknown tag", header("string", 0), "unsupported element type"},
		{"negative length", header("int", -1), "negative length"},
		{"oversized length", header("int", MaxElements+1), "exceeds"},
		{"truncated elements", append(header("int", 2), 0, 0, 0, 1), "truncated record"},
		{"truncated header", []byte{0, 0, 0, 1, 0}, "truncated record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodec), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDecode_ExpectedKind(t *testing.T) {
	data, err := Marshal(Record{ID: 3, Observations: 1, Center: LongArray{1}})
	require.NoError(t, err)

	_, err = NewDecoder(bytes.NewReader(data)).Expect(KindInt).Decode()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodec))
	assert.Contains(t, err.Error(), "expected int elements, found long")

	rec, err := NewDecoder(bytes.NewReader(data)).Expect(KindLong).Decode()
	require.NoError(t, err)
	assert.Equal(t, LongArray{1}, rec.Center)
}

func TestEncode_RejectsNilCenter(t *testing.T) {
	_, err := Marshal(Record{ID: 9})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodec))
}

func TestEncode_RejectsOversizedCenter(t *testing.T) {
	var b bytes.Buffer
	enc := NewEncoder(&b)
	err := enc.Encode(Record{ID: 3, Center: make(ByteArray, MaxElements+1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodec))
	assert.Contains(t, err.Error(), "exceeds")

	require.NoError(t, enc.Flush())
	assert.Zero(t, b.Len(), "a rejected record must not be written")

	// the largest accepted record decodes back
	data, err := Marshal(Record{ID: 4, Center: make(ByteArray, MaxElements)})
	require.NoError(t, err)
	rec, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, MaxElements, rec.Center.Len())
}

func TestDecodeAll(t *testing.T) {
	var b bytes.Buffer
	enc := NewEncoder(&b)
	for i := int32(0); i < 3; i++ {
		require.NoError(t, enc.Encode(Record{ID: i, Observations: int64(i) * 10, Center: IntArray{i, i + 1}}))
	}
	require.NoError(t, enc.Flush())

	dec := NewDecoder(&b)
	recs, err := dec.DecodeAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, int64(20), recs[2].Observations)

	_, err = dec.Decode()
	assert.Equal(t, io.EOF, err)
}

func TestParseElementKind(t *testing.T) {
	for kind, tag := range kindTags {
		got, err := ParseElementKind(tag)
		require.NoError(t, err)
		assert.Equal(t, kind, got)
		assert.Positive(t, kind.Width())
	}
	_, err := ParseElementKind("Integer")
	assert.Error(t, err)
	assert.Equal(t, "invalid", KindInvalid.String())
	assert.Zero(t, KindInvalid.Width())
}

func TestAsInt32s(t *testing.T) {
	got, err := AsInt32s(ShortArray{1, -2})
	require.NoError(t, err)
	assert.Equal(t, []int32{1, -2}, got)

	got, err = AsInt32s(LongArray{5})
	require.NoError(t, err)
	assert.Equal(t, []int32{5}, got)

	_, err = AsInt32s(LongArray{math.MaxInt32 + 1})
	assert.True(t, errors.Is(err, errors.ErrCodec))

	_, err = AsInt32s(DoubleArray{1})
	assert.True(t, errors.Is(err, errors.ErrCodec))

	_, err = AsInt32s(nil)
	assert.Error(t, err)
}
