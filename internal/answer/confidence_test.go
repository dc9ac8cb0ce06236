package answer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidence(t *testing.T) {
	longAnswer := strings.Repeat("a", 200)

	t.Run("Zero Chunks Means Zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Confidence(0, longAnswer))
	})

	t.Run("Fallback Messages Mean Zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Confidence(5, NoInfoMessage))
		assert.Equal(t, 0.0, Confidence(5, FailedMessage))
	})

	t.Run("Refusal Phrases Mean Zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Confidence(5, "I cannot answer that from the documents."))
		assert.Equal(t, 0.0, Confidence(5, "I could not find anything on this topic."))
		assert.Equal(t, 0.0, Confidence(5, "There is no relevant information here."))
	})

	t.Run("Empty Answer Means Zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Confidence(5, ""))
		assert.Equal(t, 0.0, Confidence(5, "   "))
	})

	t.Run("Saturated Both Terms", func(t *testing.T) {
		assert.InDelta(t, 1.0, Confidence(5, longAnswer), 1e-9)
		assert.InDelta(t, 1.0, Confidence(50, longAnswer), 1e-9)
	})

	t.Run("Partial Chunk Score", func(t *testing.T) {
		// 2 chunks -> 0.4; saturated length -> 1.0; mean 0.7.
		assert.InDelta(t, 0.7, Confidence(2, longAnswer), 1e-9)
	})

	t.Run("Partial Length Score", func(t *testing.T) {
		// Saturated chunks -> 1.0; 50 runes -> 0.5; mean 0.75.
		assert.InDelta(t, 0.75, Confidence(5, strings.Repeat("b", 50)), 1e-9)
	})

	t.Run("Length Counts Runes Not Bytes", func(t *testing.T) {
		// 100 multibyte runes saturate the length term.
		assert.InDelta(t, 1.0, Confidence(5, strings.Repeat("ü", 100)), 1e-9)
	})

	t.Run("Monotonic In Chunk Count", func(t *testing.T) {
		prev := 0.0
		for n := 1; n <= 6; n++ {
			c := Confidence(n, longAnswer)
			assert.GreaterOrEqual(t, c, prev)
			prev = c
		}
	})

	t.Run("Bounded", func(t *testing.T) {
		for _, n := range []int{1, 3, 10, 1000} {
			c := Confidence(n, longAnswer)
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 1.0)
		}
	})
}
