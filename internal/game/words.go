// internal/game/words.go
package game

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"unicode/utf8"
)

// DefaultWords is the built-in secret word pool. Every entry is five
// uppercase ASCII letters, matching the client grid width.
var DefaultWords = []string{
	"TERMO", "PAPEL", "FESTA", "PRAIA", "LIVRO", "SONHO", "MUNDO", "FELIZ", "CAMPO", "TERRA",
	"HOUVE", "PARIS", "PEDRO", "MARIA", "PAULO", "JULHO", "NATAL", "PIZZA", "MASSA", "SORTE",
	"CORES", "PORTO", "PATOS", "LUCAS", "BRUNO", "CLARA", "CHUVA", "FOLHA", "MANGA", "PALHA",
	"PEIXE", "VINHO", "SENHA", "CASAL", "PILHA", "BOLSA", "TELHA", "MALHA", "PLACA", "CLUBE",
	"CORPO", "FILHO", "PORTA", "CARTA", "GENTE", "MOEDA", "PEDRA", "PLANO", "LINHA", "FILME",
	"MAGIA", "PASTA", "POLVO", "PONTE", "ROUPA", "SOFIA", "VIDRO", "LARVA", "FLORA", "MANTO",
	"NOITE", "AREIA", "POETA", "SUAVE", "VERDE", "DOIDO", "BEIJO", "NUVEM", "FOSSO", "FONTE",
	"BRIGA", "VELOZ", "NOBRE", "RITMO", "IDADE", "HIATO", "ZEBRA", "MOTOR", "FAVOR", "ETAPA",
}

// ErrEmptyWordList is returned when a word list has no usable entries.
var ErrEmptyWordList = errors.New("word list is empty")

// WordList is an immutable pool of fixed-length uppercase words. It is safe
// for concurrent use.
type WordList struct {
	words  []string
	index  map[string]struct{}
	length int
}

// NewWordList normalizes words to uppercase, drops blanks and duplicates,
// and checks that every entry has the same length.
func NewWordList(words []string) (*WordList, error) {
	wl := &WordList{index: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := wl.index[w]; dup {
			continue
		}
		n := utf8.RuneCountInString(w)
		if wl.length == 0 {
			wl.length = n
		} else if n != wl.length {
			return nil, fmt.Errorf("word %q has %d letters, want %d", w, n, wl.length)
		}
		wl.index[w] = struct{}{}
		wl.words = append(wl.words, w)
	}
	if len(wl.words) == 0 {
		return nil, ErrEmptyWordList
	}
	return wl, nil
}

// ReadWordList parses one word per line. Blank lines and lines starting
// with '#' are skipped.
func ReadWordList(r io.Reader) (*WordList, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading word list: %w", err)
	}
	return NewWordList(words)
}

// LoadWordList reads a word list from path. An empty path yields the
// built-in DefaultWords.
func LoadWordList(path string) (*WordList, error) {
	if path == "" {
		return NewWordList(DefaultWords)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening word list: %w", err)
	}
	defer f.Close()
	return ReadWordList(f)
}

// Len is the number of letters in every word.
func (wl *WordList) Len() int { return wl.length }

// Size is the number of words in the list.
func (wl *WordList) Size() int { return len(wl.words) }

// Words returns a copy of the list in its original order.
func (wl *WordList) Words() []string {
	out := make([]string, len(wl.words))
	copy(out, wl.words)
	return out
}

// Contains reports whether word (case-insensitive) is in the list.
func (wl *WordList) Contains(word string) bool {
	_, ok := wl.index[strings.ToUpper(strings.TrimSpace(word))]
	return ok
}

// Random picks a word uniformly at random.
func (wl *WordList) Random() string {
	return wl.words[rand.IntN(len(wl.words))]
}
