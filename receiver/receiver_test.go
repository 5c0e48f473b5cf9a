package receiver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaylink/commlink/frame"
	"github.com/relaylink/commlink/receiver"
)

const sof = 0x05

type mapRegistry map[uint16]receiver.Subscriber

func (m mapRegistry) Lookup(cmd uint16) (receiver.Subscriber, bool) {
	s, ok := m[cmd]
	return s, ok
}

func feedAll(r *receiver.Receiver, data []byte) {
	for _, b := range data {
		r.Feed(b)
	}
}

func TestRoundTripDispatch(t *testing.T) {
	var got []byte
	var gotCmd uint16
	reg := mapRegistry{
		0x1234: {PayloadLen: 3, Handle: func(p []byte) {
			gotCmd = 0x1234
			got = append([]byte(nil), p...)
		}},
	}
	r := receiver.New(sof, reg)

	frameBytes := frame.Build(0x1234, []byte{1, 2, 3}, sof, nil)
	feedAll(r, frameBytes)

	assert.Equal(t, uint16(0x1234), gotCmd)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestEmptyPayloadFrameDispatch(t *testing.T) {
	dispatched := false
	reg := mapRegistry{
		0x1234: {PayloadLen: 0, Handle: func(p []byte) {
			dispatched = true
			assert.Empty(t, p)
		}},
	}
	r := receiver.New(sof, reg)

	frameBytes := frame.Build(0x1234, nil, sof, nil)
	require.Len(t, frameBytes, 9)
	feedAll(r, frameBytes)

	assert.True(t, dispatched)
}

func TestResyncAfterGarbagePrefix(t *testing.T) {
	var hits int
	reg := mapRegistry{
		0x0001: {PayloadLen: 1, Handle: func([]byte) { hits++ }},
	}
	r := receiver.New(sof, reg)

	garbage := []byte{0x00, 0xFF, 0x05, 0x05, 0x41, 0x42, 0x43}
	frameBytes := frame.Build(0x0001, []byte{0xA5}, sof, nil)

	feedAll(r, garbage)
	feedAll(r, frameBytes)

	assert.Equal(t, 1, hits)
}

func TestTruncatedStreamThenValidFrame(t *testing.T) {
	var hits int
	reg := mapRegistry{
		0x0002: {PayloadLen: 2, Handle: func([]byte) { hits++ }},
	}
	r := receiver.New(sof, reg)

	full := frame.Build(0x0002, []byte{0x11, 0x22}, sof, nil)
	truncated := full[:len(full)-1]

	feedAll(r, truncated)
	feedAll(r, full)

	assert.Equal(t, 1, hits)
}

func TestCRC8CorruptionDropsWithoutDispatch(t *testing.T) {
	var hits int
	reg := mapRegistry{
		0x0003: {PayloadLen: 1, Handle: func([]byte) { hits++ }},
	}
	r := receiver.New(sof, reg)

	bad := frame.Build(0x0003, []byte{0x01}, sof, nil)
	bad[4] ^= 0x01
	feedAll(r, bad)

	assert.Equal(t, 0, hits)

	good := frame.Build(0x0003, []byte{0x01}, sof, nil)
	feedAll(r, good)
	assert.Equal(t, 1, hits)
}

func TestCRC16CorruptionDropsWithoutDispatch(t *testing.T) {
	var hits int
	reg := mapRegistry{
		0x0004: {PayloadLen: 1, Handle: func([]byte) { hits++ }},
	}
	r := receiver.New(sof, reg)

	bad := frame.Build(0x0004, []byte{0x7E}, sof, nil)
	bad[len(bad)-1] ^= 0x01
	feedAll(r, bad)

	assert.Equal(t, 0, hits)
}

func TestUnsubscribedCommandDropsButStaysLive(t *testing.T) {
	var hits int
	reg := mapRegistry{
		0x0005: {PayloadLen: 1, Handle: func([]byte) { hits++ }},
	}
	r := receiver.New(sof, reg)

	unknown := frame.Build(0xDEAD, []byte{0x00}, sof, nil)
	feedAll(r, unknown)
	assert.Equal(t, 0, hits)

	known := frame.Build(0x0005, []byte{0x01}, sof, nil)
	feedAll(r, known)
	assert.Equal(t, 1, hits)
}

func TestFramingErrorCallbackFires(t *testing.T) {
	var framingErrors int
	reg := mapRegistry{}
	r := receiver.New(sof, reg, receiver.WithOnFramingError(func() { framingErrors++ }))

	bad := frame.Build(0x0006, []byte{0x01}, sof, nil)
	bad[4] ^= 0xFF
	feedAll(r, bad)

	assert.Equal(t, 1, framingErrors)
}

func TestUnknownCommandCallbackFires(t *testing.T) {
	var gotCmd uint16
	reg := mapRegistry{}
	r := receiver.New(sof, reg, receiver.WithOnUnknownCommand(func(cmd uint16) { gotCmd = cmd }))

	feedAll(r, frame.Build(0xBEEF, nil, sof, nil))

	assert.Equal(t, uint16(0xBEEF), gotCmd)
}

func TestDuplicateSuppressionAbandonsRepeatedSequence(t *testing.T) {
	var hits int
	reg := mapRegistry{
		0x0007: {PayloadLen: 1, Handle: func([]byte) { hits++ }},
	}
	r := receiver.New(sof, reg, receiver.WithDuplicateSuppression(true))

	// Passing a nil *SequenceCounter to Build writes SEQ=0 every time,
	// so two independently built frames are a well-formed pair of
	// "same sequence" frames without any manual byte surgery.
	first := frame.Build(0x0007, []byte{0x01}, sof, nil)
	second := frame.Build(0x0007, []byte{0x02}, sof, nil)

	feedAll(r, first)
	assert.Equal(t, 1, hits)

	feedAll(r, second)
	assert.Equal(t, 1, hits, "repeated SEQ must be abandoned, not dispatched")
}

func TestDispatchCallbackFires(t *testing.T) {
	var gotCmd uint16
	reg := mapRegistry{
		0x0008: {PayloadLen: 0, Handle: func([]byte) {}},
	}
	r := receiver.New(sof, reg, receiver.WithOnDispatch(func(cmd uint16) { gotCmd = cmd }))

	feedAll(r, frame.Build(0x0008, nil, sof, nil))

	assert.Equal(t, uint16(0x0008), gotCmd)
}

func TestPayloadLengthMismatchTreatedAsUnknown(t *testing.T) {
	var hits int
	reg := mapRegistry{
		0x0009: {PayloadLen: 4, Handle: func([]byte) { hits++ }},
	}
	r := receiver.New(sof, reg)

	feedAll(r, frame.Build(0x0009, []byte{0x01, 0x02}, sof, nil))

	assert.Equal(t, 0, hits)
}
