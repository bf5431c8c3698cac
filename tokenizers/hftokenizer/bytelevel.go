package hftokenizer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// byteToRune and runeToByte implement GPT-2's reversible mapping of bytes to printable unicode characters,
// used by byte-level BPE vocabularies: printable latin-1 bytes map to themselves, the others to 256+n.
var (
	byteToRune [256]rune
	runeToByte = make(map[rune]byte, 256)
)

func init() {
	isPrintable := func(b int) bool {
		return (b >= '!' && b <= '~') || (b >= 0xA1 && b <= 0xAC) || (b >= 0xAE && b <= 0xFF)
	}
	n := 0
	for b := 0; b < 256; b++ {
		r := rune(b)
		if !isPrintable(b) {
			r = rune(256 + n)
			n++
		}
		byteToRune[b] = r
		runeToByte[r] = byte(b)
	}
}

// byteLevelEncode maps each byte of s to its byte-level rune.
func byteLevelEncode(s string) string {
	var sb strings.Builder
	sb.Grow(2 * len(s))
	for i := 0; i < len(s); i++ {
		sb.WriteRune(byteToRune[s[i]])
	}
	return sb.String()
}

// byteLevelDecode appends to buf the bytes represented by the byte-level token.
// Runes outside the byte-level alphabet are appended as UTF-8.
func byteLevelDecode(buf []byte, token string) []byte {
	for _, r := range token {
		if b, ok := runeToByte[r]; ok {
			buf = append(buf, b)
		} else {
			buf = utf8.AppendRune(buf, r)
		}
	}
	return buf
}

// wsClass is the set of whitespace characters of the pre-tokenization regexp.
// Go's `\s` is ASCII only, the GPT-2 regexp is unicode aware.
const wsClass = `\s\x{0B}\x{85}\p{Z}`

// gpt2SplitRegexp is GPT-2's pre-tokenization pattern without its `\s+(?!\S)` lookahead,
// which gpt2Split emulates.
var gpt2SplitRegexp = regexp.MustCompile(
	`'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^` + wsClass + `\p{L}\p{N}]+|[` + wsClass + `]+`)

var wsOnlyRegexp = regexp.MustCompile(`^[` + wsClass + `]+$`)

// gpt2Split splits text in the GPT-2 pre-tokens. A run of whitespace followed by a non-whitespace
// character leaves its last character to the following pre-token.
func gpt2Split(text string) []string {
	var pieces []string
	for pos := 0; pos < len(text); {
		loc := gpt2SplitRegexp.FindStringIndex(text[pos:])
		if loc == nil {
			pieces = append(pieces, text[pos:])
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if start > pos {
			pieces = append(pieces, text[pos:start])
		}
		match := text[start:end]
		if end < len(text) && utf8.RuneCountInString(match) > 1 && wsOnlyRegexp.MatchString(match) {
			_, lastSize := utf8.DecodeLastRuneInString(match)
			end -= lastSize
			match = text[start:end]
		}
		pieces = append(pieces, match)
		pos = end
	}
	return pieces
}

var whitespaceSplitRegexp = regexp.MustCompile(`\w+|[^\w\s]+`)

// preTokenize splits text into words according to the pre-tokenizer configuration.
// For byte-level pre-tokenizers the words are returned byte-level encoded.
func (t *Tokenizer) preTokenize(text string) []string {
	return applyPreTokenizer(t.tokenizer.PreTokenizer, []string{text})
}

func applyPreTokenizer(pt *PreTokenizer, pieces []string) []string {
	if pt == nil {
		return pieces
	}
	var result []string
	switch pt.Type {
	case "Sequence":
		result = pieces
		for i := range pt.PreTokenizers {
			result = applyPreTokenizer(&pt.PreTokenizers[i], result)
		}
	case "ByteLevel":
		useRegex := pt.UseRegex == nil || *pt.UseRegex
		for _, piece := range pieces {
			if pt.AddPrefixSpace && !strings.HasPrefix(piece, " ") {
				piece = " " + piece
			}
			words := []string{piece}
			if useRegex {
				words = gpt2Split(piece)
			}
			for _, word := range words {
				result = append(result, byteLevelEncode(word))
			}
		}
	case "Whitespace":
		for _, piece := range pieces {
			result = append(result, whitespaceSplitRegexp.FindAllString(piece, -1)...)
		}
	case "WhitespaceSplit":
		for _, piece := range pieces {
			result = append(result, strings.Fields(piece)...)
		}
	default:
		result = pieces
	}
	return result
}

// normalize applies the normalizer configuration to text.
func (t *Tokenizer) normalize(text string) string {
	return applyNormalizer(t.tokenizer.Normalizer, text)
}

func applyNormalizer(n *Normalizer, text string) string {
	if n == nil {
		return text
	}
	switch n.Type {
	case "Sequence":
		for i := range n.Normalizers {
			text = applyNormalizer(&n.Normalizers[i], text)
		}
		return text
	case "NFC":
		return norm.NFC.String(text)
	case "NFD":
		return norm.NFD.String(text)
	case "NFKC":
		return norm.NFKC.String(text)
	case "NFKD":
		return norm.NFKD.String(text)
	case "Lowercase":
		return strings.ToLower(text)
	default:
		return text
	}
}
