package emotion

import "strings"

// Label is one of the fixed emotions a user message can be tagged with.
type Label string

const (
	Happy    Label = "happy"
	Sad      Label = "sad"
	Angry    Label = "angry"
	Anxious  Label = "anxious"
	Neutral  Label = "neutral"
	Excited  Label = "excited"
	Confused Label = "confused"
)

// Valid reports whether l is a known label.
func (l Label) Valid() bool {
	switch l {
	case Happy, Sad, Angry, Anxious, Neutral, Excited, Confused:
		return true
	default:
		return false
	}
}

// Bucket pairs an emotion with its keyword list.
type Bucket struct {
	Emotion  Label
	Keywords []string
}

// Detector classifies the emotional tone of a text span. Implementations must be pure.
type Detector interface {
	Detect(text string) Label
}

// defaultBuckets is evaluated in order; on equal scores the earlier bucket wins.
var defaultBuckets = []Bucket{
	{Emotion: Happy, Keywords: []string{
		"happy", "joy", "delighted", "glad", "pleased", "thrilled", "😊", "😄", "🙂", "excellent", "amazing",
	}},
	{Emotion: Sad, Keywords: []string{
		"sad", "unhappy", "upset", "depressed", "down", "miserable", "😢", "😭", "😞", "disappointed", "lonely",
	}},
	{Emotion: Angry, Keywords: []string{
		"angry", "mad", "furious", "annoyed", "irritated", "frustrated", "😠", "😡", "terrible", "worst", "hate",
	}},
	{Emotion: Anxious, Keywords: []string{
		"anxious", "worried", "nervous", "stressed", "concerned", "afraid", "scared", "fear", "😰", "😨",
	}},
	{Emotion: Excited, Keywords: []string{
		"excited", "enthusiastic", "eager", "looking forward", "can't wait", "thrilled", "🎉", "🤩", "awesome",
	}},
	{Emotion: Confused, Keywords: []string{
		"confused", "unsure", "not clear", "don't understand", "what do you mean", "clarify", "explain", "🤔",
	}},
}

// KeywordDetector scores each bucket by the number of its keywords found in the text.
type KeywordDetector struct {
	buckets []Bucket
}

// NewKeywordDetector returns a detector over the built-in keyword table.
func NewKeywordDetector() *KeywordDetector {
	return NewKeywordDetectorWithBuckets(defaultBuckets)
}

// NewKeywordDetectorWithBuckets builds a detector over a custom table. Keywords
// are lowercased once up front.
func NewKeywordDetectorWithBuckets(buckets []Bucket) *KeywordDetector {
	normalized := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		keywords := make([]string, 0, len(b.Keywords))
		for _, word := range b.Keywords {
			if word == "" {
				continue
			}
			keywords = append(keywords, strings.ToLower(word))
		}
		normalized = append(normalized, Bucket{Emotion: b.Emotion, Keywords: keywords})
	}
	return &KeywordDetector{buckets: normalized}
}

// Detect implements Detector.
func (d *KeywordDetector) Detect(text string) Label {
	label, _ := d.Score(text)
	return label
}

// Score returns the winning label and its keyword hit count.
func (d *KeywordDetector) Score(text string) (Label, int) {
	normalized := strings.ToLower(text)
	if normalized == "" {
		return Neutral, 0
	}

	bestLabel := Neutral
	bestScore := 0
	for _, bucket := range d.buckets {
		score := 0
		for _, word := range bucket.Keywords {
			if strings.Contains(normalized, word) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestLabel = bucket.Emotion
		}
	}

	return bestLabel, bestScore
}

// Detect classifies text with the default keyword table.
func Detect(text string) Label {
	return defaultDetector.Detect(text)
}

var defaultDetector = NewKeywordDetector()
