package isa

import (
	"fmt"
	"strings"
)

// Sentinel outputs.
const (
	TextUndefined     = "UNDEFINED"
	TextUnpredictable = "UNPREDICTABLE"
	TextUnimplemented = "UNIMPLEMENTED"
)

// Style selects rendering variations. The zero value is the canonical form.
type Style struct {
	Aliases        bool // sp, lr, pc for r13-r15
	CollapseRanges bool // {r4-r7} instead of {r4, r5, r6, r7}
	LowerCase      bool
}

// Apply applies the whole-string options to rendered text.
func (s Style) Apply(text string) string {
	if s.LowerCase {
		return strings.ToLower(text)
	}
	return text
}

// Hex renders an immediate as "#0x1f".
func Hex(v uint32) string {
	return fmt.Sprintf("#0x%x", v)
}

// SignedHex renders an offset immediate as "#0x1f" or "#-0x1f".
func SignedHex(up bool, v uint32) string {
	if up {
		return Hex(v)
	}
	return fmt.Sprintf("#-0x%x", v)
}

// Sign is "" for an added offset and "-" for a subtracted one.
func Sign(up bool) string {
	if up {
		return ""
	}
	return "-"
}

// Writeback is "!" when set.
func Writeback(w bool) string {
	if w {
		return "!"
	}
	return ""
}

// Suffix returns s when set holds, else "".
func Suffix(set bool, s string) string {
	if set {
		return s
	}
	return ""
}
