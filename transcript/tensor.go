package transcript

import (
	"encoding/binary"

	"github.com/gomlx/go-whisper/tokenizers/whisper"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// PromptTensor builds the decoder input for a batch of prompts: an Int32 tensor shaped [batch, maxLen]
// where each row is tok.StartSequence() followed by the prompt, right-padded with pad.
//
// If pad is negative, the end-of-text token is used. It fails if there are no prompts or if a row is
// longer than tok.MaxLength().
func PromptTensor(tok *whisper.Tokenizer, prompts [][]int, pad int) (*tensors.Tensor, error) {
	if len(prompts) == 0 {
		return nil, errors.Wrap(whisper.ErrInvalidInput, "no prompts given")
	}
	if pad < 0 {
		pad = tok.SpecialTokens().EOT
	}
	sot := tok.StartSequence()
	maxLen := 0
	for i, prompt := range prompts {
		rowLen := len(sot) + len(prompt)
		if rowLen > tok.MaxLength() {
			return nil, errors.Wrapf(whisper.ErrInvalidInput, "prompt #%d has %d tokens with the start sequence, more than the maximum length %d",
				i, rowLen, tok.MaxLength())
		}
		maxLen = max(maxLen, rowLen)
	}

	t := tensors.FromShape(shapes.Make(dtypes.Int32, len(prompts), maxLen))
	t.MutableBytes(func(data []byte) {
		for i, prompt := range prompts {
			row := data[i*maxLen*4 : (i+1)*maxLen*4]
			pos := 0
			for _, ids := range [][]int{sot, prompt} {
				for _, id := range ids {
					binary.LittleEndian.PutUint32(row[pos*4:], uint32(int32(id)))
					pos++
				}
			}
			for ; pos < maxLen; pos++ {
				binary.LittleEndian.PutUint32(row[pos*4:], uint32(int32(pad)))
			}
		}
	})
	return t, nil
}
