package transcript

import (
	"context"
	"runtime"
	"strings"

	"github.com/gomlx/go-whisper/tokenizers/whisper"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"k8s.io/klog/v2"
)

// Tokenizer is the subset of whisper.Tokenizer used to align words.
type Tokenizer interface {
	SplitToWordTokens(tokens []int) (words []string, groups [][]int)
	Decode(tokens []int) string
	IsText(id int) bool
	IsTimestamp(id int) bool
	TokenIDToTime(id int) (float64, error)
}

var _ Tokenizer = (*whisper.Tokenizer)(nil)

// WordSpan is an aligned word, along with the tokens it was decoded from.
type WordSpan struct {
	// Segment is the index of the segment of the word.
	Segment     int     `parquet:"segment"`
	Start       float64 `parquet:"start"`
	End         float64 `parquet:"end"`
	Text        string  `parquet:"word"`
	Probability float64 `parquet:"probability"`
	Tokens      []int32 `parquet:"tokens,list"`
}

// Word returns the span as a whisper.Word.
func (s WordSpan) Word() whisper.Word {
	return whisper.Word{Start: s.Start, End: s.End, Text: s.Text, Probability: s.Probability}
}

// Options for AlignSegments.
type Options struct {
	// MaxParallel segments aligned at the same time. If <= 0, runtime.GOMAXPROCS(0) is used.
	MaxParallel int
}

// AlignSegments aligns the words of each segment in parallel, see AlignSegment.
// The result has one slice of words per segment.
func AlignSegments(ctx context.Context, tok Tokenizer, segments []Segment, opts Options) ([][]WordSpan, error) {
	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = runtime.GOMAXPROCS(0)
	}
	results := make([][]WordSpan, len(segments))
	p := pool.New().WithMaxGoroutines(maxParallel).WithContext(ctx).WithCancelOnError()
	for i := range segments {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			spans, err := AlignSegment(tok, i, &segments[i])
			if err != nil {
				return errors.WithMessagef(err, "while aligning segment #%d", i)
			}
			results[i] = spans
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	klog.V(1).Infof("aligned %d segments with up to %d in parallel", len(segments), maxParallel)
	return results, nil
}

// AlignSegment splits the tokens of the segment into words.
//
// Each word starts at the last timestamp token before its first text token, and ends at the first
// timestamp token after its last text token, defaulting to the segment boundaries. Times are clamped to
// the segment. The probability of a word is the mean of the probabilities of its tokens, or 1 if the
// segment has none.
//
// Groups without text tokens (timestamps and other control tokens), or with only spaces, are not words.
func AlignSegment(tok Tokenizer, segmentIdx int, segment *Segment) ([]WordSpan, error) {
	if err := segment.Validate(); err != nil {
		return nil, err
	}
	tokens := segment.Tokens
	prevTime, nextTime, err := timestampsAround(tok, tokens)
	if err != nil {
		return nil, err
	}

	words, groups := tok.SplitToWordTokens(tokens)
	var spans []WordSpan
	pos := 0
	for i, group := range groups {
		groupStart := pos
		pos += len(group)
		first, last := -1, -1
		for j, id := range group {
			if tok.IsText(id) {
				if first < 0 {
					first = groupStart + j
				}
				last = groupStart + j
			}
		}
		if first < 0 {
			continue
		}
		// A timestamp followed by text without a leading space is merged into one group.
		text := words[i]
		if last-first+1 != len(group) {
			text = tok.Decode(group)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		span := WordSpan{
			Segment:     segmentIdx,
			Start:       segment.Start,
			End:         segment.End,
			Text:        text,
			Probability: 1,
			Tokens:      make([]int32, len(group)),
		}
		if prevTime[first] >= 0 {
			span.Start = clamp(segment.Offset+prevTime[first], segment.Start, segment.End)
		}
		if nextTime[last] >= 0 {
			span.End = clamp(segment.Offset+nextTime[last], span.Start, segment.End)
		}
		for j, id := range group {
			span.Tokens[j] = int32(id)
		}
		if len(segment.Probabilities) > 0 {
			var sum float64
			for _, p := range segment.Probabilities[groupStart:pos] {
				sum += p
			}
			span.Probability = sum / float64(len(group))
		}
		spans = append(spans, span)
	}
	return spans, nil
}

// timestampsAround returns, for each token position, the time of the last timestamp token at or before it,
// and the time of the first timestamp token at or after it. Missing timestamps are -1.
func timestampsAround(tok Tokenizer, tokens []int) (prevTime, nextTime []float64, err error) {
	prevTime = make([]float64, len(tokens))
	nextTime = make([]float64, len(tokens))
	times := make([]float64, len(tokens))
	for i, id := range tokens {
		times[i] = -1
		if tok.IsTimestamp(id) {
			if times[i], err = tok.TokenIDToTime(id); err != nil {
				return nil, nil, err
			}
		}
	}
	current := -1.0
	for i := range tokens {
		if times[i] >= 0 {
			current = times[i]
		}
		prevTime[i] = current
	}
	current = -1.0
	for i := len(tokens) - 1; i >= 0; i-- {
		if times[i] >= 0 {
			current = times[i]
		}
		nextTime[i] = current
	}
	return prevTime, nextTime, nil
}

func clamp(value, low, high float64) float64 {
	return min(max(value, low), high)
}
