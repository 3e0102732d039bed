package room

import (
	"math/rand/v2"
	"strings"
)

// CodeLength is the number of characters in a room code.
const CodeLength = 5

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomCode draws CodeLength characters uniformly from A-Z0-9.
func RandomCode() string {
	var b [CodeLength]byte
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b[:])
}

// NormalizeCode trims and upper-cases a client supplied room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code has the room code shape.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(codeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
