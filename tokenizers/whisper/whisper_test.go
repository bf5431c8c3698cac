package whisper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnglishTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := New(newFakeVocab(), Options{})
	require.NoError(t, err)
	return tok
}

func newMultilingualTokenizer(t *testing.T, language, task string) *Tokenizer {
	t.Helper()
	tok, err := New(newFakeVocab(), Options{Multilingual: true, Language: language, Task: task})
	require.NoError(t, err)
	return tok
}

func TestNewEnglishOnly(t *testing.T) {
	// Task and language are ignored if not multilingual.
	tok, err := New(newFakeVocab(), Options{Task: "summarize", Language: "xx"})
	require.NoError(t, err)
	assert.Equal(t, "en", tok.LanguageCode())
	assert.Equal(t, []int{fakeSOT}, tok.StartSequence())
	assert.Equal(t, fakeTimestampBegin, tok.TimestampBegin())
	assert.Equal(t, DefaultMaxLength, tok.MaxLength())
	assert.False(t, tok.WithoutTimestamps())
	assert.Equal(t, SpecialTokens{
		Transcribe:   fakeTranscribe,
		Translate:    fakeTranslate,
		SOT:          fakeSOT,
		SOTLM:        fakeSOTLM,
		SOTPrev:      fakeSOTPrev,
		EOT:          fakeEOT,
		NoTimestamps: fakeNoTimestamps,
	}, tok.SpecialTokens())
}

func TestNewMultilingual(t *testing.T) {
	tok := newMultilingualTokenizer(t, "ja", "translate")
	jaID, found := tok.LanguageToken("ja")
	require.True(t, found)
	assert.Equal(t, []int{fakeSOT, jaID, fakeTranslate}, tok.StartSequence())
	assert.Equal(t, "ja", tok.LanguageCode())

	tok = newMultilingualTokenizer(t, "yue", "transcribe")
	yueID, _ := tok.LanguageToken("yue")
	assert.Equal(t, []int{fakeSOT, yueID, fakeTranscribe}, tok.StartSequence())
	assert.Equal(t, fakeTranslate-1, yueID)
	assert.NotEqual(t, tok.SpecialTokens().Translate, yueID)
}

func TestNewInvalidConfiguration(t *testing.T) {
	testCases := []struct {
		name         string
		vocab        *fakeVocab
		opts         Options
		wantContains []string
	}{
		{
			name:         "invalid task",
			vocab:        newFakeVocab(),
			opts:         Options{Multilingual: true, Task: "summarize", Language: "en"},
			wantContains: []string{"'summarize' is not a valid task", "(accepted tasks: transcribe, translate)"},
		},
		{
			name:         "empty task",
			vocab:        newFakeVocab(),
			opts:         Options{Multilingual: true, Language: "en"},
			wantContains: []string{"'' is not a valid task"},
		},
		{
			name:         "invalid language",
			vocab:        newFakeVocab(),
			opts:         Options{Multilingual: true, Task: "transcribe", Language: "xx"},
			wantContains: []string{"'xx' is not a valid language code", "accepted language codes: af, am, ar", "zh, yue)"},
		},
		{
			name:         "missing control token",
			vocab:        newFakeVocab().without("<|notimestamps|>"),
			opts:         Options{},
			wantContains: []string{`"<|notimestamps|>" not found`},
		},
		{
			name:         "missing language token",
			vocab:        newFakeVocab().without("<|fr|>"),
			opts:         Options{Multilingual: true, Task: "transcribe", Language: "fr"},
			wantContains: []string{`"<|fr|>" not found`},
		},
		{
			name:         "max length too small",
			vocab:        newFakeVocab(),
			opts:         Options{MaxLength: 1},
			wantContains: []string{"max length"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := New(tc.vocab, tc.opts)
			require.Error(t, err)
			assert.Nil(t, tok)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
			for _, want := range tc.wantContains {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestLanguages(t *testing.T) {
	codes := LanguageCodes()
	assert.Len(t, codes, 100)
	assert.Equal(t, "af", codes[0])
	assert.Equal(t, "yue", codes[len(codes)-1])
	codes[0] = "changed"
	assert.Equal(t, "af", LanguageCodes()[0], "LanguageCodes must return a copy")

	assert.Equal(t, []string{"transcribe", "translate"}, Tasks())
	assert.True(t, IsSupportedTask("translate"))
	assert.False(t, IsSupportedTask("summarize"))
	assert.True(t, IsSupportedLanguage("haw"))
	assert.False(t, IsSupportedLanguage("english"))

	for _, code := range []string{"zh", "ja", "th", "lo", "my", "yue"} {
		assert.True(t, IsSpacelessLanguage(code), code)
	}
	for _, code := range []string{"en", "ko", "vi", ""} {
		assert.False(t, IsSpacelessLanguage(code), code)
	}
}

func TestTokenPredicates(t *testing.T) {
	tok := newEnglishTokenizer(t)
	assert.True(t, tok.IsText(0))
	assert.True(t, tok.IsText(fakeEOT-1))
	assert.False(t, tok.IsText(fakeEOT))
	assert.False(t, tok.IsText(-1))
	assert.True(t, tok.IsSpecial(fakeEOT))
	assert.True(t, tok.IsSpecial(fakeTimestampBegin+10))
	assert.False(t, tok.IsSpecial(wordID(" hello")))

	enID, found := tok.LanguageToken("en")
	require.True(t, found)
	assert.True(t, tok.IsLanguageToken(enID))
	assert.False(t, tok.IsLanguageToken(fakeTranscribe))
	code, found := tok.TokenLanguage(enID)
	assert.True(t, found)
	assert.Equal(t, "en", code)
	_, found = tok.LanguageToken("klingon")
	assert.False(t, found)
}
