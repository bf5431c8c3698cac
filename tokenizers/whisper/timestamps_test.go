package whisper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampToTokenText(t *testing.T) {
	tok := newEnglishTokenizer(t)
	testCases := []struct {
		seconds float64
		want    string
	}{
		{0, "<|0.00|>"},
		{30, "<|30.00|>"},
		{1.24, "<|1.24|>"},
		{1.234, "<|1.24|>"},
		{0.5, "<|0.50|>"},
		{0.01, "<|0.00|>"}, // Exactly half a step: rounds to even.
		{12.349, "<|12.34|>"},
		{29.999, "<|30.00|>"},
	}
	for _, tc := range testCases {
		got, err := tok.TimestampToTokenText(tc.seconds)
		require.NoError(t, err, "seconds=%g", tc.seconds)
		assert.Equal(t, tc.want, got, "seconds=%g", tc.seconds)
	}

	for _, seconds := range []float64{-0.001, 30.001, -1, 100, math.NaN(), math.Inf(1)} {
		_, err := tok.TimestampToTokenText(seconds)
		assert.ErrorIs(t, err, ErrOutOfRange, "seconds=%g", seconds)
		_, err = tok.TimeToTokenID(seconds)
		assert.ErrorIs(t, err, ErrOutOfRange, "seconds=%g", seconds)
	}
}

func TestTimeToTokenIDAndBack(t *testing.T) {
	tok := newEnglishTokenizer(t)
	id, err := tok.TimeToTokenID(0)
	require.NoError(t, err)
	assert.Equal(t, fakeTimestampBegin, id)

	id, err = tok.TimeToTokenID(30)
	require.NoError(t, err)
	assert.Equal(t, fakeTimestampBegin+1500, id)

	id, err = tok.TimeToTokenID(1.24)
	require.NoError(t, err)
	assert.Equal(t, fakeTimestampBegin+62, id)

	seconds, err := tok.TokenIDToTime(fakeTimestampBegin + 62)
	require.NoError(t, err)
	assert.InDelta(t, 1.24, seconds, 1e-9)

	_, err = tok.TokenIDToTime(fakeTimestampBegin - 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = tok.TokenIDToTime(wordID(" hello"))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestTimestampQuantizationIsStable(t *testing.T) {
	tok := newEnglishTokenizer(t)
	for i := 0; i <= 3000; i++ {
		seconds := float64(i) / 100
		text, err := tok.TimestampToTokenText(seconds)
		require.NoError(t, err)
		id, err := tok.TimeToTokenID(seconds)
		require.NoError(t, err)
		quantized, err := tok.TokenIDToTime(id)
		require.NoError(t, err)
		again, err := tok.TimestampToTokenText(quantized)
		require.NoError(t, err)
		require.Equal(t, text, again, "seconds=%g", seconds)

		// The text of the timestamp is the token of the vocabulary with the same id.
		vocabID, found := tok.Vocabulary().TokenToID(text)
		require.True(t, found, text)
		require.Equal(t, id, vocabID, text)
	}
}

func TestIsTimestamp(t *testing.T) {
	tok := newEnglishTokenizer(t)
	assert.True(t, tok.IsTimestamp(fakeTimestampBegin))
	assert.True(t, tok.IsTimestamp(fakeTimestampBegin+1500))
	assert.False(t, tok.IsTimestamp(fakeTimestampBegin+1501))
	assert.False(t, tok.IsTimestamp(fakeNoTimestamps))
	assert.False(t, tok.IsTimestamp(wordID(" hello")))
}

func TestWordValidate(t *testing.T) {
	assert.NoError(t, Word{Start: 0, End: 30, Text: " ok"}.Validate())
	assert.NoError(t, Word{Start: 1, End: 1, Text: " instant"}.Validate())
	assert.ErrorIs(t, Word{Start: 2, End: 1, Text: " backwards"}.Validate(), ErrOutOfRange)
	assert.ErrorIs(t, Word{Start: -1, End: 1, Text: " early"}.Validate(), ErrOutOfRange)
	assert.ErrorIs(t, Word{Start: 1, End: 31, Text: " late"}.Validate(), ErrOutOfRange)
}
