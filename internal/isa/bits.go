// Package isa holds the vocabulary shared by the ARM and Thumb decoders:
// bit-field extraction, condition codes, shifts, registers, register lists,
// block addressing modes, the text style and the sentinel strings.
package isa

// Extract returns length bits of v starting at bit start. width is the
// instruction width in bits; fields reaching past it are clamped.
func Extract(v uint32, width, start, length uint) uint32 {
	if start >= width || length == 0 {
		return 0
	}
	if start+length > width {
		length = width - start
	}
	if length >= 32 {
		return v >> start
	}
	return (v >> start) & (1<<length - 1)
}

// ExtractSigned is Extract followed by two's-complement sign extension of
// the field's top bit.
func ExtractSigned(v uint32, width, start, length uint) int32 {
	if start >= width || length == 0 {
		return 0
	}
	if start+length > width {
		length = width - start
	}
	shift := 32 - length
	return int32(Extract(v, width, start, length)<<shift) >> shift
}

// RotateRight rotates v right by n bit positions.
func RotateRight(v uint32, n uint) uint32 {
	n &= 31
	return v>>n | v<<(32-n)
}
