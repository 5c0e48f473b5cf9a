package frame_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaylink/commlink/frame"
)

func TestEmptyPayloadFrame(t *testing.T) {
	built := frame.Build(0x1234, nil, 0x05, nil)

	require.Len(t, built, 9)
	assert.Equal(t, byte(0x05), built[0])
	assert.Equal(t, byte(0x00), built[1])
	assert.Equal(t, byte(0x00), built[2])
	assert.Equal(t, byte(0x34), built[5])
	assert.Equal(t, byte(0x12), built[6])

	cmd, payload, ok := frame.Parse(built, 0x05)
	require.True(t, ok)
	assert.Equal(t, uint16(0x1234), cmd)
	assert.Empty(t, payload)
}

func TestOneBytePayloadFrameMatchesWorkedExample(t *testing.T) {
	// spec.md §8 scenario 2.
	seq := &frame.SequenceCounter{}
	built := frame.Build(0x0001, []byte{0xA5}, 0x05, seq)

	require.Len(t, built, 10)
	assert.Equal(t, []byte{0x05, 0x01, 0x00, 0x00}, built[:4])
	assert.Equal(t, byte(0x8F), built[4])
	assert.Equal(t, []byte{0x01, 0x00}, built[5:7])
	assert.Equal(t, byte(0xA5), built[7])

	cmd, payload, ok := frame.Parse(built, 0x05)
	require.True(t, ok)
	assert.Equal(t, uint16(0x0001), cmd)
	assert.Equal(t, []byte{0xA5}, payload)
}

func TestRoundTripVaryingPayloadLengths(t *testing.T) {
	seq := &frame.SequenceCounter{}
	for n := 0; n <= 64; n++ {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(i*7 + n)
		}

		built := frame.Build(uint16(n+1), payload, 0x05, seq)
		cmd, got, ok := frame.Parse(built, 0x05)
		require.True(t, ok, "payload length %d", n)
		assert.Equal(t, uint16(n+1), cmd)
		assert.Equal(t, payload, got)
	}
}

func TestCRC8CorruptionRejected(t *testing.T) {
	built := frame.Build(0x0001, []byte{0xA5}, 0x05, nil)
	built[4] ^= 0x01 // flip bit 0 of CRC8 byte

	_, _, ok := frame.Parse(built, 0x05)
	assert.False(t, ok)
}

func TestCRC16CorruptionRejected(t *testing.T) {
	built := frame.Build(0x0001, []byte{0xA5}, 0x05, nil)
	built[len(built)-1] ^= 0x01 // flip high CRC16 byte

	_, _, ok := frame.Parse(built, 0x05)
	assert.False(t, ok)
}

func TestSingleByteMutationRejected(t *testing.T) {
	built := frame.Build(0xBEEF, []byte{1, 2, 3, 4}, 0x05, nil)

	for i := range built {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), built...)
			mutated[i] ^= 1 << bit

			_, _, ok := frame.Parse(mutated, 0x05)
			assert.False(t, ok, "byte %d bit %d was not rejected", i, bit)
		}
	}
}

func TestWrongSOFRejected(t *testing.T) {
	built := frame.Build(0x0001, []byte{0xA5}, 0x05, nil)
	_, _, ok := frame.Parse(built, 0x06)
	assert.False(t, ok)
}

func TestWrongLengthRejected(t *testing.T) {
	built := frame.Build(0x0001, []byte{0xA5}, 0x05, nil)
	_, _, ok := frame.Parse(built[:len(built)-1], 0x05)
	assert.False(t, ok)
}

func TestSequenceMonotonic(t *testing.T) {
	seq := &frame.SequenceCounter{}
	var prev byte
	for i := 0; i < 512; i++ {
		built := frame.Build(0x0001, nil, 0x05, seq)
		got := built[3]
		if i > 0 {
			assert.Equal(t, byte(prev+1), got)
		}
		prev = got
	}
}

type fixedPayload struct {
	A uint16
	B uint8
	C int32
}

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	n, err := frame.Size[fixedPayload]()
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	want := fixedPayload{A: 0xBEEF, B: 0x42, C: -12345}
	encoded, err := frame.EncodePayload(want)
	require.NoError(t, err)
	require.Len(t, encoded, n)

	got, err := frame.DecodePayload[fixedPayload](encoded)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
