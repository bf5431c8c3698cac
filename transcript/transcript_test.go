package transcript

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/go-whisper/internal/testvocab"
	"github.com/gomlx/go-whisper/tokenizers/whisper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenizer(t *testing.T) *whisper.Tokenizer {
	tok, err := whisper.FromFile(testvocab.WriteFile(t, whisper.LanguageCodes()), whisper.Options{})
	require.NoError(t, err)
	return tok
}

func timestampID(t *testing.T, tok *whisper.Tokenizer, seconds float64) int {
	id, err := tok.TimeToTokenID(seconds)
	require.NoError(t, err)
	return id
}

// helloWorld returns the segment "<|0.00|> hello<|1.00|> world.<|2.50|>".
func helloWorld(t *testing.T, tok *whisper.Tokenizer) Segment {
	text := tok.Vocabulary().Encode(" hello world.")
	require.Len(t, text, 3)
	return Segment{
		Start:         10,
		End:           14,
		Offset:        10,
		Tokens:        []int{timestampID(t, tok, 0), text[0], timestampID(t, tok, 1), text[1], text[2], timestampID(t, tok, 2.5)},
		Probabilities: []float64{1, 0.8, 1, 0.6, 0.4, 1},
	}
}

func TestAlignSegment(t *testing.T) {
	tok := newTokenizer(t)
	segment := helloWorld(t, tok)
	spans, err := AlignSegment(tok, 3, &segment)
	require.NoError(t, err)
	require.Len(t, spans, 3)

	want := []struct {
		text        string
		start, end  float64
		probability float64
	}{
		{" hello", 10, 11, 0.8},
		{" world", 11, 12.5, 0.6},
		{".", 11, 12.5, 0.4},
	}
	for i, w := range want {
		assert.Equal(t, 3, spans[i].Segment)
		assert.Equal(t, w.text, spans[i].Text)
		assert.InDelta(t, w.start, spans[i].Start, 1e-9, w.text)
		assert.InDelta(t, w.end, spans[i].End, 1e-9, w.text)
		assert.InDelta(t, w.probability, spans[i].Probability, 1e-9, w.text)
	}
	assert.Equal(t, []int32{int32(segment.Tokens[1])}, spans[0].Tokens)
	assert.Equal(t, " hello", spans[0].Word().Text)
}

func TestAlignSegmentBoundaries(t *testing.T) {
	tok := newTokenizer(t)

	// Timestamps past the end of the segment are clamped.
	segment := helloWorld(t, tok)
	segment.End = 11.5
	spans, err := AlignSegment(tok, 0, &segment)
	require.NoError(t, err)
	require.Len(t, spans, 3)
	assert.InDelta(t, 11.0, spans[0].End, 1e-9)
	assert.InDelta(t, 11.5, spans[1].End, 1e-9)

	// Without timestamps and probabilities words span the whole segment.
	segment = Segment{Start: 2, End: 3, Tokens: tok.Vocabulary().Encode("Hello the")}
	spans, err = AlignSegment(tok, 0, &segment)
	require.NoError(t, err)
	require.Len(t, spans, 2)
	for _, span := range spans {
		assert.Equal(t, 2.0, span.Start)
		assert.Equal(t, 3.0, span.End)
		assert.Equal(t, 1.0, span.Probability)
	}
	assert.Equal(t, "Hello", spans[0].Text)
	assert.Equal(t, " the", spans[1].Text)

	// Text merged into a timestamp word and the end of text token leave only the text.
	tokens := append([]int{timestampID(t, tok, 0)}, tok.Vocabulary().Encode("hello")...)
	tokens = append(tokens, timestampID(t, tok, 1), testvocab.EOT)
	segment = Segment{Start: 0, End: 2, Tokens: tokens}
	spans, err = AlignSegment(tok, 0, &segment)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "hello", spans[0].Text)
	assert.InDelta(t, 0.0, spans[0].Start, 1e-9)
	assert.InDelta(t, 1.0, spans[0].End, 1e-9)

	// Control tokens and spaces are not words.
	segment = Segment{Start: 0, End: 1, Tokens: []int{testvocab.SOT, testvocab.EOT, ' '}}
	spans, err = AlignSegment(tok, 0, &segment)
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestAlignSegmentInvalid(t *testing.T) {
	tok := newTokenizer(t)
	for name, segment := range map[string]Segment{
		"ends before start":      {Start: 2, End: 1},
		"negative offset":        {Start: 0, End: 1, Offset: -1},
		"probabilities mismatch": {Start: 0, End: 1, Tokens: []int{'a', 'b'}, Probabilities: []float64{1}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := AlignSegment(tok, 0, &segment)
			assert.Error(t, err)
		})
	}
}

func TestAlignSegments(t *testing.T) {
	tok := newTokenizer(t)
	segments := make([]Segment, 20)
	for i := range segments {
		segments[i] = helloWorld(t, tok)
	}
	segments[7].Tokens = []int{testvocab.EOT}
	segments[7].Probabilities = nil

	spans, err := AlignSegments(context.Background(), tok, segments, Options{MaxParallel: 3})
	require.NoError(t, err)
	require.Len(t, spans, len(segments))
	for i, segmentSpans := range spans {
		if i == 7 {
			assert.Empty(t, segmentSpans)
			continue
		}
		require.Len(t, segmentSpans, 3)
		for _, span := range segmentSpans {
			assert.Equal(t, i, span.Segment)
		}
	}

	segments[11].End = 0
	_, err = AlignSegments(context.Background(), tok, segments, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment #11")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = AlignSegments(ctx, tok, segments[:5], Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParquetRoundTrip(t *testing.T) {
	tok := newTokenizer(t)
	segments := []Segment{helloWorld(t, tok), {Start: 14, End: 15, Tokens: []int{testvocab.EOT}}, helloWorld(t, tok)}
	spans, err := AlignSegments(context.Background(), tok, segments, Options{})
	require.NoError(t, err)

	filePath := filepath.Join(t.TempDir(), "words.parquet")
	require.NoError(t, WriteParquet(filePath, spans))
	got, err := ReadParquet(filePath)
	require.NoError(t, err)
	assert.Equal(t, spans, got)

	_, err = ReadParquet(filepath.Join(t.TempDir(), "missing.parquet"))
	assert.Error(t, err)
}

func TestLoadWords(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "words.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte(`
- {start: 0.0, end: 0.5, word: " hello", probability: 0.9}
- {start: 0.5, end: 1.0, word: " world", probability: 0.8}
`), 0644))
	words, err := LoadWords(filePath)
	require.NoError(t, err)
	assert.Equal(t, []whisper.Word{
		{Start: 0, End: 0.5, Text: " hello", Probability: 0.9},
		{Start: 0.5, End: 1, Text: " world", Probability: 0.8},
	}, words)

	tok := newTokenizer(t)
	tokens, err := tok.EncodeWords(words)
	require.NoError(t, err)
	assert.Equal(t, "<|0.00|> hello<|0.50|> <|0.50|> world<|1.00|>", tok.DecodeWithTimestamps(tokens))

	require.NoError(t, os.WriteFile(filePath, []byte(`- {start: 1.0, end: 0.5, word: " backwards"}`), 0644))
	_, err = LoadWords(filePath)
	assert.ErrorIs(t, err, whisper.ErrOutOfRange)

	_, err = LoadWords(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSegments(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "segments.json")
	require.NoError(t, os.WriteFile(filePath, []byte(`[`+
		`{"start": 0, "end": 2.5, "offset": 0, "tokens": [50364, 40, 50489]},`+
		`{"start": 2.5, "end": 4, "offset": 2.5, "tokens": [50364, 41, 50439], "probabilities": [1, 0.5, 1]}`+
		`]`), 0644))
	segments, err := LoadSegments(filePath)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, []int{50364, 40, 50489}, segments[0].Tokens)
	assert.Equal(t, 2.5, segments[1].Offset)
	assert.Equal(t, []float64{1, 0.5, 1}, segments[1].Probabilities)

	require.NoError(t, os.WriteFile(filePath, []byte(`[{"start": 3, "end": 1, "tokens": []}]`), 0644))
	_, err = LoadSegments(filePath)
	assert.Error(t, err)
}

func TestPromptTensor(t *testing.T) {
	tok, err := whisper.FromFile(testvocab.WriteFile(t, whisper.LanguageCodes()),
		whisper.Options{Multilingual: true, Language: "fr", Task: "transcribe", MaxLength: 8})
	require.NoError(t, err)
	sot := tok.StartSequence()
	require.Len(t, sot, 3)

	prompts := [][]int{{1, 2, 3}, {}, {4}}
	tensor, err := PromptTensor(tok, prompts, -1)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 6}, tensor.Shape().Dimensions)

	got := make([]int32, 18)
	tensor.MutableBytes(func(data []byte) {
		for i := range got {
			got[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
	})
	s0, s1, s2 := int32(sot[0]), int32(sot[1]), int32(sot[2])
	eot := int32(testvocab.EOT)
	assert.Equal(t, []int32{
		s0, s1, s2, 1, 2, 3,
		s0, s1, s2, eot, eot, eot,
		s0, s1, s2, 4, eot, eot,
	}, got)

	_, err = PromptTensor(tok, nil, 0)
	assert.ErrorIs(t, err, whisper.ErrInvalidInput)
	_, err = PromptTensor(tok, [][]int{{1, 2, 3, 4, 5, 6}}, 0)
	assert.ErrorIs(t, err, whisper.ErrInvalidInput)
}
