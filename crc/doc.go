// Package crc implements a parameterised CRC engine with an incremental,
// byte-at-a-time iterator and a one-shot convenience wrapper.
//
// The parameter set (width, polynomial, init, final XOR, reflect-in,
// reflect-out) matches the Rocksoft/"catalogue" model used by most CRC
// references. commlink's wire protocol uses two concrete instantiations,
// CRC8Params and CRC16Params, both exported by this package.
package crc
