package txbuild

// appendCompactU16 appends a compact-u16 length prefix, the variable-width
// encoding used by legacy transaction messages.
func appendCompactU16(buf []byte, n int) []byte {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}
