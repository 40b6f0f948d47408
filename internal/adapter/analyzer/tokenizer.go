package analyzer

import (
	"strings"
	"unicode"
)

// Stemmer reduces a lower-cased word to its stem.
type Stemmer interface {
	Stem(word string) string
}

// Tokenizer splits text into normalised tokens: lower case, accents folded,
// stopwords removed and words stemmed for the configured language.
type Tokenizer struct {
	stemmer   Stemmer
	stopwords map[string]struct{}
}

// NewTokenizer creates a Tokenizer for "es" or "en". Any other language gets
// the Spanish rules, which is what the corpora are written in.
func NewTokenizer(language string) *Tokenizer {
	if strings.HasPrefix(strings.ToLower(language), "en") {
		return &Tokenizer{stemmer: NewEnglishStemmer(), stopwords: englishStopwords()}
	}
	return &Tokenizer{stemmer: NewSpanishStemmer(), stopwords: spanishStopwords()}
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = fold(strings.ToLower(word))
		if len([]rune(word)) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, t.stemmer.Stem(word))
	}

	return tokens
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

var accentFolds = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	"à", "a", "è", "e", "ì", "i", "ò", "o", "ù", "u",
)

// fold strips acute and grave accents. ñ is kept.
func fold(word string) string {
	return accentFolds.Replace(word)
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[fold(w)] = struct{}{}
	}
	return m
}

func englishStopwords() map[string]struct{} {
	return toSet([]string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
	})
}

func spanishStopwords() map[string]struct{} {
	return toSet([]string{
		"de", "la", "que", "el", "en", "y", "a", "los", "del", "se",
		"las", "por", "un", "para", "con", "no", "una", "su", "al",
		"lo", "como", "más", "pero", "sus", "le", "ya", "o", "este",
		"sí", "porque", "esta", "entre", "cuando", "muy", "sin", "sobre",
		"también", "me", "hasta", "hay", "donde", "quien", "desde",
		"todo", "nos", "durante", "todos", "uno", "les", "ni", "contra",
		"otros", "ese", "eso", "ante", "ellos", "e", "esto", "mí",
		"antes", "algunos", "qué", "unos", "yo", "otro", "otras", "otra",
		"él", "tanto", "esa", "estos", "mucho", "quienes", "nada",
		"muchos", "cual", "poco", "ella", "estar", "estas", "algunas",
		"algo", "nosotros", "mi", "mis", "tú", "te", "ti", "tu", "tus",
		"es", "son", "ser", "fue", "han", "ha", "he", "puede", "cómo",
		"cuál", "dónde", "cuándo", "hago", "tengo",
	})
}
