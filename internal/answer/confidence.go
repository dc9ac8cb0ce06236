package answer

import (
	"strings"
	"unicode/utf8"
)

// Saturation points for the two confidence terms: five chunks or a hundred
// characters of answer each earn a full sub-score.
const (
	chunkSaturation  = 5.0
	lengthSaturation = 100.0
)

var couldNotAnswerPhrases = []string{
	strings.ToLower(NoInfoMessage),
	strings.ToLower(FailedMessage),
	"cannot answer",
	"could not find",
	"no relevant information",
}

// Confidence is a deliberately crude heuristic, not a calibrated
// probability: the mean of a retrieval-strength term (chunk count against a
// saturation threshold) and an answer-substance term (answer length against
// a saturation threshold), on a 0.0-1.0 scale.
func Confidence(chunkCount int, answerText string) float64 {
	if chunkCount == 0 || isNonAnswer(answerText) {
		return 0.0
	}

	chunkScore := float64(chunkCount) / chunkSaturation
	if chunkScore > 1.0 {
		chunkScore = 1.0
	}

	answerScore := float64(utf8.RuneCountInString(answerText)) / lengthSaturation
	if answerScore > 1.0 {
		answerScore = 1.0
	}

	return (chunkScore + answerScore) / 2.0
}

func isNonAnswer(answerText string) bool {
	lower := strings.ToLower(strings.TrimSpace(answerText))
	if lower == "" {
		return true
	}
	for _, phrase := range couldNotAnswerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
