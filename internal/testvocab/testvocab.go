// Package testvocab builds a small Whisper-like tokenizer.json file for tests.
//
// The vocabulary is byte-level BPE: byte b has id b, the words in MergedWords are each merged into a
// single token, and the control tokens have the ids of the multilingual Whisper models, starting with
// "<|endoftext|>" at 50257, followed by the 1501 timestamp tokens.
package testvocab

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MergedWords are encoded as a single token each.
var MergedWords = []string{" hello", " world", "Hello", " the", " Hi"}

// Ids of the control tokens.
const (
	EOT           = 50257
	SOT           = 50258
	FirstLanguage = 50259
)

// byteLevel maps bytes to the printable runes used by GPT-2 vocabularies.
func byteLevel(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		sb.WriteRune(byteRunes[s[i]])
	}
	return sb.String()
}

var byteRunes [256]rune

func init() {
	n := 0
	for b := 0; b < 256; b++ {
		if (b >= '!' && b <= '~') || (b >= 0xA1 && b <= 0xAC) || (b >= 0xAE && b <= 0xFF) {
			byteRunes[b] = rune(b)
		} else {
			byteRunes[b] = rune(256 + n)
			n++
		}
	}
}

// ControlTokens returns the contents of the control tokens, in id order starting at EOT.
func ControlTokens(languages []string) []string {
	tokens := []string{"<|endoftext|>", "<|startoftranscript|>"}
	for _, code := range languages {
		tokens = append(tokens, "<|"+code+"|>")
	}
	tokens = append(tokens, "<|translate|>", "<|transcribe|>", "<|startoflm|>", "<|startofprev|>",
		"<|nospeech|>", "<|notimestamps|>")
	for i := 0; i < 1501; i++ {
		tokens = append(tokens, fmt.Sprintf("<|%.2f|>", float64(i)*0.02))
	}
	return tokens
}

// TokenizerJSON returns the contents of the tokenizer.json file, with a language token for each of languages.
func TokenizerJSON(languages []string) []byte {
	vocab := make(map[string]int)
	for b := 0; b < 256; b++ {
		vocab[string(byteRunes[b])] = b
	}
	var merges [][2]string
	for _, word := range MergedWords {
		runes := []rune(byteLevel(word))
		prefix := string(runes[0])
		for _, r := range runes[1:] {
			merged := prefix + string(r)
			if _, found := vocab[merged]; !found {
				vocab[merged] = len(vocab)
				merges = append(merges, [2]string{prefix, string(r)})
			}
			prefix = merged
		}
	}
	var addedTokens []map[string]any
	for i, content := range ControlTokens(languages) {
		addedTokens = append(addedTokens, map[string]any{
			"id": EOT + i, "content": content, "single_word": false, "lstrip": false, "rstrip": false,
			"normalized": false, "special": true,
		})
	}
	content, err := json.Marshal(map[string]any{
		"version":        "1.0",
		"truncation":     nil,
		"padding":        nil,
		"added_tokens":   addedTokens,
		"normalizer":     nil,
		"pre_tokenizer":  map[string]any{"type": "ByteLevel", "add_prefix_space": false, "trim_offsets": true},
		"post_processor": nil,
		"decoder":        map[string]any{"type": "ByteLevel", "add_prefix_space": true, "trim_offsets": true},
		"model": map[string]any{
			"type":   "BPE",
			"vocab":  vocab,
			"merges": merges,
		},
	})
	if err != nil {
		panic(err)
	}
	return content
}

// WriteFile writes the tokenizer.json file to a temporary directory of the test, and returns its path.
func WriteFile(t testing.TB, languages []string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), "tokenizer.json")
	if err := os.WriteFile(filePath, TokenizerJSON(languages), 0644); err != nil {
		t.Fatalf("failed to write %q: %v", filePath, err)
	}
	return filePath
}
