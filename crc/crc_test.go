package crc_test

import (
	"testing"

	sigurncrc16 "github.com/sigurn/crc16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaylink/commlink/crc"
)

func TestCRC8HeaderVector(t *testing.T) {
	// spec.md §8 scenario 2: SOF/DLEN/SEQ bytes 05 01 00 00, CRC-8 must be 0x8F.
	header := []byte{0x05, 0x01, 0x00, 0x00}
	got := crc.Compute(crc.CRC8Params, header)
	assert.Equal(t, uint64(0x8F), got)
}

func TestCRC16MatchesMCRF4XXReference(t *testing.T) {
	data := []byte("123456789")

	table := sigurncrc16.MakeTable(sigurncrc16.CRC16_MCRF4XX)
	want := sigurncrc16.Checksum(data, table)

	got := crc.Compute(crc.CRC16Params, data)
	assert.Equal(t, uint64(want), got)
}

func TestComputeEquivalentToIteratorFeedValue(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0xAA, 0xFF, 0x00}

	for _, params := range []crc.Params{crc.CRC8Params, crc.CRC16Params} {
		oneShot := crc.Compute(params, data)

		it := crc.NewIterator(params)
		for _, b := range data {
			it.Feed(b)
		}
		incremental := it.Value()

		assert.Equal(t, oneShot, incremental)
	}
}

func TestValueIsIdempotentAndNonDestructive(t *testing.T) {
	it := crc.NewIterator(crc.CRC16Params)
	for _, b := range []byte{0x05, 0x01, 0x00, 0x00} {
		it.Feed(b)
	}

	first := it.Value()
	second := it.Value()
	require.Equal(t, first, second, "Value() must be idempotent")

	// Feeding more bytes after an intermediate Value() call must continue
	// the same running checksum rather than restart it.
	it.Feed(0x01)
	it2 := crc.NewIterator(crc.CRC16Params)
	for _, b := range []byte{0x05, 0x01, 0x00, 0x00, 0x01} {
		it2.Feed(b)
	}
	assert.Equal(t, it2.Value(), it.Value())
}

func TestSingleByteMutationChangesChecksum(t *testing.T) {
	data := []byte{0x05, 0x00, 0x07, 0x00, 0x12, 0x34, 0xAB}
	base := crc.Compute(crc.CRC16Params, data)

	for i := range data {
		mutated := append([]byte(nil), data...)
		mutated[i] ^= 0x01

		got := crc.Compute(crc.CRC16Params, mutated)
		assert.NotEqual(t, base, got, "bit flip at byte %d did not change CRC-16", i)
	}
}

func TestEmptyInput(t *testing.T) {
	// No bytes fed: the accumulator is still Init, and 0xFF reflects to itself.
	assert.Equal(t, uint64(0xFF), crc.Compute(crc.CRC8Params, nil))
}
