// internal/game/score.go
package game

// Color is the per-letter classification of a guess against the secret word.
type Color string

const (
	Green  Color = "green"  // right letter, right position
	Yellow Color = "yellow" // letter appears somewhere in the secret word
	Gray   Color = "gray"   // letter does not appear in the secret word
)

// Score classifies each letter of guess against secret. Both strings must
// have the same rune length; otherwise Score returns nil.
//
// Yellow is a plain containment check: a guess with a repeated letter may
// see every copy marked yellow even when the secret holds only one.
func Score(secret, guess string) []Color {
	s := []rune(secret)
	g := []rune(guess)
	if len(s) != len(g) {
		return nil
	}

	present := make(map[rune]bool, len(s))
	for _, r := range s {
		present[r] = true
	}

	out := make([]Color, len(g))
	for i, r := range g {
		switch {
		case r == s[i]:
			out[i] = Green
		case present[r]:
			out[i] = Yellow
		default:
			out[i] = Gray
		}
	}
	return out
}

// AllGreen reports whether every color in result is Green.
func AllGreen(result []Color) bool {
	if len(result) == 0 {
		return false
	}
	for _, c := range result {
		if c != Green {
			return false
		}
	}
	return true
}
