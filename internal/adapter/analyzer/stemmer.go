package analyzer

import "strings"

// suffixStemmer strips the first suffix of its table that leaves a stem of at
// least minStem bytes. Words are expected lower-cased and accent-folded. It
// folds the inflections the hashing embedder cares about and nothing more:
// "matrículas", "matricularse" and "matriculación" share a stem, as do
// "running" and "run".
type suffixStemmer struct {
	suffixes []string // longest first; the first match wins
	minWord  int
	minStem  int
	undouble bool // "runn" -> "run"
}

// Stem returns the stem of word.
func (s *suffixStemmer) Stem(word string) string {
	if len(word) < s.minWord {
		return word
	}
	for _, suffix := range s.suffixes {
		if !strings.HasSuffix(word, suffix) || len(word)-len(suffix) < s.minStem {
			continue
		}
		stem := word[:len(word)-len(suffix)]
		if s.undouble && endsDoubleConsonant(stem) {
			stem = stem[:len(stem)-1]
		}
		return stem
	}
	return word
}

// NewSpanishStemmer returns a light suffix stripper for plurals, common verb
// endings and derivational suffixes. It is not a Snowball implementation.
func NewSpanishStemmer() Stemmer {
	return &suffixStemmer{
		suffixes: []string{
			"amientos", "imientos", "aciones", "uciones", "amiento", "imiento",
			"adoras", "adores", "ancias", "encias", "mente", "acion", "ucion",
			"adora", "ador", "ancia", "encia", "ables", "ibles", "istas",
			"arse", "erse", "irse", "ando", "iendo", "aron", "ieron",
			"able", "ible", "ista", "idad", "ivas", "ivos", "iva", "ivo",
			"ados", "idos", "adas", "idas", "ado", "ido", "ada", "ida",
			"ar", "er", "ir", "as", "es", "os", "a", "e", "o", "s",
		},
		minWord: 4,
		minStem: 3,
	}
}

// NewEnglishStemmer returns a light suffix stripper for English plurals,
// participles and common derivations.
func NewEnglishStemmer() Stemmer {
	return &suffixStemmer{
		suffixes: []string{
			"izations", "ization", "ations", "ation", "nesses", "ments",
			"ingly", "ness", "ment", "edly", "ings", "ing", "ies", "ied",
			"ed", "es", "ly", "s",
		},
		minWord:  4,
		minStem:  3,
		undouble: true,
	}
}

// endsDoubleConsonant reports whether word ends in a doubled consonant that
// English drops before a suffix. "ll", "ss" and "zz" are kept.
func endsDoubleConsonant(word string) bool {
	n := len(word)
	if n < 2 || word[n-1] != word[n-2] {
		return false
	}
	switch c := word[n-1]; c {
	case 'a', 'e', 'i', 'o', 'u', 'l', 's', 'z':
		return false
	default:
		return c >= 'a' && c <= 'z'
	}
}
