package whisper

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

const (
	// TimestampStep is the resolution of the timestamp tokens, in seconds.
	TimestampStep = 0.02

	// MaxTimestamp is the largest time that can be encoded, the length of a Whisper audio window.
	MaxTimestamp = 30.0

	// NumTimestamps is the number of timestamp tokens, from "<|0.00|>" to "<|30.00|>".
	NumTimestamps = 1501
)

func checkTimestamp(seconds float64) error {
	if math.IsNaN(seconds) || seconds < 0 || seconds > MaxTimestamp {
		return errors.Wrapf(ErrOutOfRange, "timestamp %g must be between 0 and %g seconds", seconds, MaxTimestamp)
	}
	return nil
}

// quantize returns the number of timestamp steps closest to seconds. Halfway cases round to even.
func quantize(seconds float64) int {
	return int(math.RoundToEven(seconds / TimestampStep))
}

func formatTimestamp(seconds float64) string {
	return fmt.Sprintf("<|%.2f|>", seconds)
}

// TimestampToTokenText returns the text of the timestamp token closest to the given time, e.g. "<|1.24|>".
// It returns an error wrapping ErrOutOfRange if seconds is not in [0, 30].
func (t *Tokenizer) TimestampToTokenText(seconds float64) (string, error) {
	if err := checkTimestamp(seconds); err != nil {
		return "", err
	}
	return formatTimestamp(float64(quantize(seconds)) * TimestampStep), nil
}

// TimeToTokenID returns the id of the timestamp token closest to the given time.
// It returns an error wrapping ErrOutOfRange if seconds is not in [0, 30].
func (t *Tokenizer) TimeToTokenID(seconds float64) (int, error) {
	if err := checkTimestamp(seconds); err != nil {
		return 0, err
	}
	return t.timestampBegin + quantize(seconds), nil
}

// TokenIDToTime returns the time in seconds of a timestamp token.
// It returns an error wrapping ErrOutOfRange if id is below TimestampBegin.
func (t *Tokenizer) TokenIDToTime(id int) (float64, error) {
	if id < t.timestampBegin {
		return 0, errors.Wrapf(ErrOutOfRange, "token %d is not a timestamp (timestamps start at %d)", id, t.timestampBegin)
	}
	return float64(id-t.timestampBegin) * TimestampStep, nil
}

// IsTimestamp reports whether id is one of the NumTimestamps timestamp tokens.
func (t *Tokenizer) IsTimestamp(id int) bool {
	return id >= t.timestampBegin && id < t.timestampBegin+NumTimestamps
}
