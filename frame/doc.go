// Package frame implements the bit-exact command frame wire format:
//
//	| Field | Offset   | Length | Description                     |
//	| ----- | -------- | ------ | -------------------------------- |
//	| SOF   | 0        | 1      | start-of-frame marker            |
//	| DLEN  | 1        | 2      | payload length, little-endian    |
//	| SEQ   | 3        | 1      | sender sequence counter          |
//	| CRC8  | 4        | 1      | CRC-8 over bytes 0..3             |
//	| CMD   | 5        | 2      | command id, little-endian        |
//	| DATA  | 7        | DLEN   | opaque payload                   |
//	| CRC16 | 7+DLEN   | 2      | CRC-16 over bytes 0..(7+DLEN-1)   |
//
// Build produces this layout for an outgoing payload; Parse validates and
// extracts it from a received byte slice of the exact expected size.
package frame
