// Package wire implements the packet formats of the CPU/GPU display link.
package wire

// The link carries two framings over the same physical stream:
//
// The short form is the command/response framing of the GPU test
// harness:
//
//	[0xAA][0x55][cmd][len][payload...][xor]
//
// with a one-byte XOR checksum over cmd, len and payload. Responses
// reuse the request command with the reply bit set.
//
// The extended form carries display frames and link control:
//
//	[0xAA][0x55][0xCC][type][len:u16][frame:u16][idx][total][payload...][sum:u16][0x55]
//
// with little-endian multi-byte fields and a 16-bit additive checksum
// over the whole header and payload.
//
// Both ends treat the stream as untrusted: a packet is only surfaced
// after its checksum has been verified.
