package whisper

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// asciiPunctuation are the characters that, alone, form a word of their own.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// SplitToWordTokens splits the tokens into words, returning the text of each word and the tokens
// it is made of. The concatenation of the returned groups is always equal to tokens.
//
// For spaceless languages (see IsSpacelessLanguage) each complete unicode character is a word,
// see SplitTokensOnUnicode. Otherwise, see SplitTokensOnSpaces.
func (t *Tokenizer) SplitToWordTokens(tokens []int) (words []string, groups [][]int) {
	if IsSpacelessLanguage(t.languageCode) {
		return t.SplitTokensOnUnicode(tokens)
	}
	return t.SplitTokensOnSpaces(tokens)
}

// SplitTokensOnUnicode splits tokens into the shortest groups that decode to complete unicode characters.
//
// A multibyte character may be split across tokens, in which case decoding the first tokens yields the
// replacement character U+FFFD. Tokens are accumulated until the decoding of the group no longer has a
// U+FFFD that isn't also present, at the same position, in the decoding of the whole sequence.
// Timestamps are rendered as in DecodeWithTimestamps.
func (t *Tokenizer) SplitTokensOnUnicode(tokens []int) (words []string, groups [][]int) {
	full := []rune(t.DecodeWithTimestamps(tokens))
	offset := 0 // In runes, into full.
	start := 0  // Index of the first token of the current group.
	for i := range tokens {
		current := tokens[start : i+1]
		decoded := t.DecodeWithTimestamps(current)
		replacementIdx := runeIndex(decoded, utf8.RuneError)
		if replacementIdx >= 0 {
			fullIdx := offset + replacementIdx
			if fullIdx >= len(full) || full[fullIdx] != utf8.RuneError {
				continue
			}
		}
		words = append(words, decoded)
		groups = append(groups, slices.Clone(current))
		offset += utf8.RuneCountInString(decoded)
		start = i + 1
	}
	if start < len(tokens) {
		words = append(words, t.DecodeWithTimestamps(tokens[start:]))
		groups = append(groups, slices.Clone(tokens[start:]))
	}
	return words, groups
}

// SplitTokensOnSpaces splits tokens into words, starting from the groups of SplitTokensOnUnicode.
//
// A group starts a new word if its first token is a control token, if its text starts with a space, or
// if its (stripped) text is only ASCII punctuation. Otherwise, it is appended to the previous word.
func (t *Tokenizer) SplitTokensOnSpaces(tokens []int) (words []string, groups [][]int) {
	subwords, subwordGroups := t.SplitTokensOnUnicode(tokens)
	for i, subword := range subwords {
		group := subwordGroups[i]
		special := group[0] >= t.specials.EOT
		withSpace := strings.HasPrefix(subword, " ")
		punctuation := isPunctuation(strings.TrimSpace(subword))
		if special || withSpace || punctuation || len(words) == 0 {
			words = append(words, subword)
			groups = append(groups, group)
			continue
		}
		last := len(words) - 1
		words[last] += subword
		groups[last] = append(groups[last], group...)
	}
	return words, groups
}

// runeIndex returns the index in runes of the first r in s, or -1.
func runeIndex(s string, r rune) int {
	idx := 0
	for _, c := range s {
		if c == r {
			return idx
		}
		idx++
	}
	return -1
}

// isPunctuation reports whether s is made only of ASCII punctuation. The empty string is.
func isPunctuation(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(asciiPunctuation, r) {
			return false
		}
	}
	return true
}
