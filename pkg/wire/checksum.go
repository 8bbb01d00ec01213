package wire

// xorChecksum folds all bytes of all chunks with XOR.
func xorChecksum(chunks ...[]byte) (c byte) {
	for _, chunk := range chunks {
		for _, b := range chunk {
			c ^= b
		}
	}
	return
}

// sumChecksum adds all bytes of all chunks, truncating to 16 bits.
func sumChecksum(chunks ...[]byte) (c uint16) {
	for _, chunk := range chunks {
		for _, b := range chunk {
			c += uint16(b)
		}
	}
	return
}
