package frame

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/relaylink/commlink/crc"
)

// Offsets and fixed sizes of the frame header, per the wire layout in
// doc.go. DATA and the trailing CRC16 both depend on DLEN and so have no
// fixed offset.
const (
	offsetSOF  = 0
	offsetDLEN = 1
	offsetSEQ  = 3
	offsetCRC8 = 4
	offsetCMD  = 5
	offsetData = 7
	headerLen  = 7 // SOF..CMD inclusive, before DATA
	trailerLen = 2 // CRC16
	overhead   = headerLen + trailerLen
)

// SequenceCounter is an 8-bit counter incremented for each outbound
// frame, wrapping at 256. The reference implementation keeps this as
// process-wide mutable state shared by every frame instantiation;
// commlink instead gives each comm.Handle its own counter (see
// DESIGN.md), which is why Next takes no frame-identifying argument and
// callers hold one counter per connection.
type SequenceCounter struct {
	mu    sync.Mutex
	value uint8
}

// Next returns the current sequence value and increments the counter.
// Wrap-around from 255 to 0 is implicit in uint8 arithmetic.
func (s *SequenceCounter) Next() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.value
	s.value++
	return v
}

// Build encodes cmd and payload into a complete on-wire frame of length
// len(payload)+9. seq may be nil, in which case the SEQ field is written
// as 0 (used by tests that don't care about sequencing).
func Build(cmd uint16, payload []byte, sof byte, seq *SequenceCounter) []byte {
	n := len(payload)
	out := make([]byte, overhead+n)

	out[offsetSOF] = sof
	binary.LittleEndian.PutUint16(out[offsetDLEN:], uint16(n))

	var seqVal uint8
	if seq != nil {
		seqVal = seq.Next()
	}
	out[offsetSEQ] = seqVal

	out[offsetCRC8] = byte(crc.Compute(crc.CRC8Params, out[:4]))

	binary.LittleEndian.PutUint16(out[offsetCMD:], cmd)
	copy(out[offsetData:], payload)

	crc16 := crc.Compute(crc.CRC16Params, out[:offsetData+n])
	binary.LittleEndian.PutUint16(out[offsetData+n:], uint16(crc16))

	return out
}

// Parse validates data as a complete frame of the given sof and payload
// length (len(data)-9) and returns the command id and payload on success.
// ok is false if the length, SOF byte, CRC-8, or CRC-16 do not match —
// frame.Parse never panics or returns an error value, matching the
// reference implementation's Option<DataType>/std::nullopt contract.
func Parse(data []byte, sof byte) (cmd uint16, payload []byte, ok bool) {
	if len(data) < overhead {
		return 0, nil, false
	}
	n := len(data) - overhead
	if data[offsetSOF] != sof {
		return 0, nil, false
	}
	dlen := binary.LittleEndian.Uint16(data[offsetDLEN:])
	if int(dlen) != n {
		return 0, nil, false
	}

	wantCRC8 := byte(crc.Compute(crc.CRC8Params, data[:4]))
	if data[offsetCRC8] != wantCRC8 {
		return 0, nil, false
	}

	wantCRC16 := uint16(crc.Compute(crc.CRC16Params, data[:offsetData+n]))
	gotCRC16 := binary.LittleEndian.Uint16(data[offsetData+n:])
	if gotCRC16 != wantCRC16 {
		return 0, nil, false
	}

	cmd = binary.LittleEndian.Uint16(data[offsetCMD:])
	payload = make([]byte, n)
	copy(payload, data[offsetData:offsetData+n])

	return cmd, payload, true
}

// Size computes the wire-size of a fixed-layout payload type T, the Go
// analogue of the reference implementation's compile-time sizeof(T).
// T must be a fixed-size struct of fixed-width fields (no strings,
// slices, maps, or pointers) — the same constraint the original's
// pragma-packed RawCommandFrame<DataType> placed on the payload type.
func Size[T any]() (int, error) {
	var zero T
	n := binary.Size(zero)
	if n < 0 {
		return 0, fmt.Errorf("frame: type %T is not fixed-size", zero)
	}
	return n, nil
}

// EncodePayload serialises v to its little-endian wire representation.
func EncodePayload[T any](v T) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return nil, fmt.Errorf("frame: encode payload: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePayload deserialises the little-endian wire representation of T
// from data. len(data) must equal Size[T]().
func DecodePayload[T any](data []byte) (T, error) {
	var out T
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &out); err != nil {
		return out, fmt.Errorf("frame: decode payload: %w", err)
	}
	return out, nil
}
