package whisper

import (
	"fmt"
	"strings"

	"github.com/gomlx/go-whisper/internal/lossy"
)

// fakeVocab is an in-memory vocabulary: ids 0-255 are single bytes, a few ids are whole words, and the
// control tokens have the ids of the multilingual Whisper vocabularies.
//
// Encoding is greedy, always taking the longest known piece.
type fakeVocab struct {
	pieces map[int]string
	ids    map[string]int
	maxLen int
}

// Ids of the fake vocabulary: the tokens after the languages are numbered like large-v3 (translate is 50359).
const (
	fakeEOT           = 50257
	fakeSOT           = 50258
	fakeFirstLanguage = 50259
)

var (
	fakeTranslate      = fakeFirstLanguage + len(languageCodes)
	fakeTranscribe     = fakeTranslate + 1
	fakeSOTLM          = fakeTranslate + 2
	fakeSOTPrev        = fakeTranslate + 3
	fakeNoSpeech       = fakeTranslate + 4
	fakeNoTimestamps   = fakeTranslate + 5
	fakeTimestampBegin = fakeTranslate + 6
)

// fakeWords are the whole word pieces of fakeVocab, with ids starting at 1000.
var fakeWords = []string{
	"Hello", " world", " hello", " the", " cat", " sat", "こん", "にち", "は", "ing", " test",
}

func newFakeVocab() *fakeVocab {
	v := &fakeVocab{pieces: make(map[int]string), ids: make(map[string]int)}
	add := func(id int, piece string) {
		v.pieces[id] = piece
		v.ids[piece] = id
		v.maxLen = max(v.maxLen, len(piece))
	}
	for b := 0; b < 256; b++ {
		add(b, string([]byte{byte(b)}))
	}
	for i, word := range fakeWords {
		add(1000+i, word)
	}
	add(fakeEOT, "<|endoftext|>")
	add(fakeSOT, "<|startoftranscript|>")
	for i, code := range languageCodes {
		add(fakeFirstLanguage+i, "<|"+code+"|>")
	}
	add(fakeTranslate, "<|translate|>")
	add(fakeTranscribe, "<|transcribe|>")
	add(fakeSOTLM, "<|startoflm|>")
	add(fakeSOTPrev, "<|startofprev|>")
	add(fakeNoSpeech, "<|nospeech|>")
	add(fakeNoTimestamps, "<|notimestamps|>")
	for i := 0; i < NumTimestamps; i++ {
		add(fakeTimestampBegin+i, fmt.Sprintf("<|%.2f|>", float64(i)*0.02))
	}
	return v
}

// without returns a copy of the vocabulary without the given token.
func (v *fakeVocab) without(token string) *fakeVocab {
	c := &fakeVocab{pieces: make(map[int]string), ids: make(map[string]int), maxLen: v.maxLen}
	for id, piece := range v.pieces {
		if piece != token {
			c.pieces[id] = piece
			c.ids[piece] = id
		}
	}
	return c
}

func (v *fakeVocab) TokenToID(token string) (int, bool) {
	id, found := v.ids[token]
	return id, found
}

func (v *fakeVocab) Encode(text string) []int {
	var ids []int
	for len(text) > 0 {
		for n := min(v.maxLen, len(text)); n > 0; n-- {
			if id, found := v.ids[text[:n]]; found {
				ids = append(ids, id)
				text = text[n:]
				break
			}
		}
	}
	return ids
}

// Decode skips the control and timestamp tokens, like special added tokens of tokenizer.json files.
func (v *fakeVocab) Decode(ids []int) string {
	var sb strings.Builder
	for _, id := range ids {
		if id >= fakeEOT {
			continue
		}
		sb.WriteString(v.pieces[id])
	}
	return lossy.String([]byte(sb.String()))
}

// wordID returns the id of one of fakeWords.
func wordID(word string) int {
	for i, w := range fakeWords {
		if w == word {
			return 1000 + i
		}
	}
	panic(fmt.Sprintf("word %q not in fake vocabulary", word))
}

// byteIDs returns the ids of the individual bytes of s.
func byteIDs(s string) []int {
	ids := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		ids[i] = int(s[i])
	}
	return ids
}
