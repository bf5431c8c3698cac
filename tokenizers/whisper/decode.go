package whisper

import "strings"

// Decode returns the text of the tokens, ignoring all control tokens.
func (t *Tokenizer) Decode(tokens []int) string {
	text := make([]int, 0, len(tokens))
	for _, token := range tokens {
		if token < t.specials.EOT {
			text = append(text, token)
		}
	}
	return t.vocab.Decode(text)
}

// DecodeWithTimestamps returns the text of the tokens with the timestamp tokens rendered as "<|1.24|>".
// Other control tokens are decoded by the vocabulary.
func (t *Tokenizer) DecodeWithTimestamps(tokens []int) string {
	var sb strings.Builder
	runStart := 0
	for i, token := range tokens {
		if token < t.timestampBegin {
			continue
		}
		if i > runStart {
			sb.WriteString(t.vocab.Decode(tokens[runStart:i]))
		}
		sb.WriteString(formatTimestamp(float64(token-t.timestampBegin) * TimestampStep))
		runStart = i + 1
	}
	if runStart < len(tokens) {
		sb.WriteString(t.vocab.Decode(tokens[runStart:]))
	}
	return sb.String()
}
