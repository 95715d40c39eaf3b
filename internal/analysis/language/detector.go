package language

import (
	"strings"
	"unicode"
)

// Tag identifies the language a piece of user text is written in.
type Tag string

const (
	Hindi    Tag = "hindi"
	Hinglish Tag = "hinglish"
	English  Tag = "english"
)

// Normalize maps detection-only tags onto the languages a conversation can
// store and reply in. Hinglish is answered in Hindi.
func (t Tag) Normalize() Tag {
	if t == Hinglish {
		return Hindi
	}
	return t
}

// Valid reports whether t is one of the known tags.
func (t Tag) Valid() bool {
	switch t {
	case Hindi, Hinglish, English:
		return true
	default:
		return false
	}
}

// Detector classifies a text span. Implementations must be pure.
type Detector interface {
	Detect(text string) Tag
}

// Detection carries the tag plus whether it came from the catch-all branch.
type Detection struct {
	Tag      Tag
	Fallback bool
}

// hinglishWords are common Hindi function words written in Latin script.
// "the" is the romanized थे; like "main" it also collides with English.
var hinglishWords = map[string]struct{}{
	"hai": {}, "kya": {}, "nahi": {}, "kaise": {}, "kyun": {}, "kyon": {},
	"main": {}, "tum": {}, "aap": {}, "mera": {}, "bhi": {}, "sab": {},
	"par": {}, "ke": {}, "se": {}, "ko": {}, "mein": {}, "hoon": {},
	"ho": {}, "raha": {}, "rhi": {}, "rha": {}, "tha": {}, "thi": {}, "the": {},
}

// KeywordDetector implements Detector with script and keyword heuristics.
type KeywordDetector struct {
	words map[string]struct{}
}

// NewKeywordDetector returns a detector using the built-in Hinglish word set.
func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{words: hinglishWords}
}

// Detect implements Detector.
func (d *KeywordDetector) Detect(text string) Tag {
	return d.Classify(text).Tag
}

// Classify runs the detection rules in priority order: Devanagari script,
// Hinglish function words, plain English characters, then English fallback.
func (d *KeywordDetector) Classify(text string) Detection {
	if text == "" {
		return Detection{Tag: English}
	}

	if containsDevanagari(text) {
		return Detection{Tag: Hindi}
	}

	for _, token := range strings.Fields(strings.ToLower(text)) {
		if _, ok := d.words[token]; ok {
			return Detection{Tag: Hinglish}
		}
	}

	if isPlainEnglish(text) {
		return Detection{Tag: English}
	}

	return Detection{Tag: English, Fallback: true}
}

// Detect classifies text with the default keyword detector.
func Detect(text string) Tag {
	return defaultDetector.Detect(text)
}

var defaultDetector = NewKeywordDetector()

func containsDevanagari(text string) bool {
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			return true
		}
	}
	return false
}

// isPlainEnglish matches ASCII letters, digits, whitespace and .,!?"'()-
func isPlainEnglish(text string) bool {
	for _, r := range text {
		switch {
		case r > unicode.MaxASCII:
			return false
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
		case strings.ContainsRune(`.,!?"'()-`, r):
		default:
			return false
		}
	}
	return true
}
