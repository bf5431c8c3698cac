// Package hftokenizer implements a tokenizer for HuggingFace's tokenizer.json format, for the
// byte-level BPE models (GPT-2 family) used by Whisper.
//
// It implements both api.Tokenizer and api.Vocabulary.
package hftokenizer

import (
	"encoding/json"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/gomlx/go-whisper/hub"
	"github.com/gomlx/go-whisper/internal/lossy"
	"github.com/gomlx/go-whisper/tokenizers/api"
	"github.com/pkg/errors"
)

// TokenizerJSON represents the structure of HuggingFace's tokenizer.json file.
type TokenizerJSON struct {
	Version      string        `json:"version"`
	AddedTokens  []AddedToken  `json:"added_tokens"`
	Normalizer   *Normalizer   `json:"normalizer"`
	PreTokenizer *PreTokenizer `json:"pre_tokenizer"`
	Decoder      *Decoder      `json:"decoder"`
	Model        Model         `json:"model"`
}

// AddedToken represents a token added to the vocabulary, usually a special (control) token.
type AddedToken struct {
	ID         int    `json:"id"`
	Content    string `json:"content"`
	SingleWord bool   `json:"single_word"`
	Lstrip     bool   `json:"lstrip"`
	Rstrip     bool   `json:"rstrip"`
	Normalized bool   `json:"normalized"`
	Special    bool   `json:"special"`
}

// Normalizer represents the normalizer configuration.
type Normalizer struct {
	Type        string       `json:"type"`
	Normalizers []Normalizer `json:"normalizers"`
}

// PreTokenizer represents the pre-tokenizer configuration.
type PreTokenizer struct {
	Type           string         `json:"type"`
	AddPrefixSpace bool           `json:"add_prefix_space"`
	UseRegex       *bool          `json:"use_regex"`
	PreTokenizers  []PreTokenizer `json:"pretokenizers"`
}

// Decoder represents the decoder configuration.
type Decoder struct {
	Type     string    `json:"type"`
	Decoders []Decoder `json:"decoders"`
}

// Model represents the BPE tokenizer model.
type Model struct {
	Type            string         `json:"type"`
	Vocab           map[string]int `json:"vocab"`
	Merges          []Merge        `json:"merges"`
	UnkToken        *string        `json:"unk_token"`
	EndOfWordSuffix string         `json:"end_of_word_suffix"`
}

// Merge is one BPE merge rule. In tokenizer.json it is either stored as "left right", or,
// in newer versions of the format, as ["left", "right"].
type Merge struct {
	Left, Right string
}

// UnmarshalJSON implements json.Unmarshaler, accepting both formats of merges.
func (m *Merge) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return errors.Errorf("invalid merge %s: expected 2 elements", data)
		}
		m.Left, m.Right = pair[0], pair[1]
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return errors.Wrapf(err, "invalid merge %s", data)
	}
	left, right, found := strings.Cut(joined, " ")
	if !found {
		return errors.Errorf("invalid merge %q: expected \"left right\"", joined)
	}
	m.Left, m.Right = left, right
	return nil
}

// Tokenizer implements the api.Tokenizer and api.Vocabulary interfaces for HuggingFace tokenizer.json files.
//
// It is immutable after construction, and safe for concurrent use.
type Tokenizer struct {
	config     *api.Config
	tokenizer  *TokenizerJSON
	idToToken  map[int]string
	mergeRanks map[Merge]int

	// addedTokens maps content -> id. addedIDs maps the ids back to whether the token is special.
	addedTokens  map[string]int
	addedIDs     map[int]bool
	addedPattern *regexp.Regexp

	unkID, padID, bosID, eosID int
}

var (
	// Compile time assert that Tokenizer implements api.Tokenizer interface.
	_ api.Tokenizer = &Tokenizer{}

	// Compile time assert that Tokenizer implements api.Vocabulary interface.
	_ api.Vocabulary = &Tokenizer{}
)

// New creates a HuggingFace tokenizer from the tokenizer.json file of the repo.
// It implements a tokenizers.TokenizerConstructor function signature.
func New(config *api.Config, repo *hub.Repo) (api.Tokenizer, error) {
	if !repo.HasFile("tokenizer.json") {
		return nil, errors.Errorf("\"tokenizer.json\" file not found in repo %q", repo)
	}
	tokenizerFile, err := repo.DownloadFile("tokenizer.json")
	if err != nil {
		return nil, errors.Wrapf(err, "can't download tokenizer.json file")
	}
	return NewFromFile(config, tokenizerFile)
}

// NewFromFile creates a HuggingFace tokenizer from a local tokenizer.json file path.
// The file is memory-mapped while it is parsed.
func NewFromFile(config *api.Config, filePath string) (*Tokenizer, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open tokenizer.json file %q", filePath)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %q", filePath)
	}
	if info.Size() == 0 {
		return nil, errors.Errorf("tokenizer.json file %q is empty", filePath)
	}
	content, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to memory-map %q", filePath)
	}
	defer func() { _ = content.Unmap() }()
	t, err := NewFromContent(config, content)
	if err != nil {
		return nil, errors.WithMessagef(err, "while reading %q", filePath)
	}
	return t, nil
}

// NewFromContent creates a HuggingFace tokenizer from tokenizer.json content.
// Only "BPE" models are supported.
func NewFromContent(config *api.Config, content []byte) (*Tokenizer, error) {
	var tj TokenizerJSON
	if err := json.Unmarshal(content, &tj); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tokenizer.json")
	}
	if tj.Model.Type != "BPE" && tj.Model.Type != "" {
		return nil, errors.Errorf("tokenizer.json model type %q not supported, only \"BPE\"", tj.Model.Type)
	}

	t := &Tokenizer{
		config:      config,
		tokenizer:   &tj,
		idToToken:   make(map[int]string, len(tj.Model.Vocab)+len(tj.AddedTokens)),
		mergeRanks:  make(map[Merge]int, len(tj.Model.Merges)),
		addedTokens: make(map[string]int, len(tj.AddedTokens)),
		addedIDs:    make(map[int]bool, len(tj.AddedTokens)),
		unkID:       -1,
		padID:       -1,
		bosID:       -1,
		eosID:       -1,
	}
	for token, id := range tj.Model.Vocab {
		t.idToToken[id] = token
	}
	for rank, merge := range tj.Model.Merges {
		if _, found := t.mergeRanks[merge]; !found {
			t.mergeRanks[merge] = rank
		}
	}
	for _, at := range tj.AddedTokens {
		t.addedTokens[at.Content] = at.ID
		t.addedIDs[at.ID] = at.Special
		t.idToToken[at.ID] = at.Content
	}
	t.addedPattern = compileAddedTokensPattern(tj.AddedTokens)
	t.resolveSpecialTokens()
	return t, nil
}

// compileAddedTokensPattern returns a regexp that matches any of the added tokens, preferring the longest.
// It returns nil if there are no added tokens.
func compileAddedTokensPattern(addedTokens []AddedToken) *regexp.Regexp {
	if len(addedTokens) == 0 {
		return nil
	}
	contents := make([]string, 0, len(addedTokens))
	for _, at := range addedTokens {
		if at.Content != "" {
			contents = append(contents, at.Content)
		}
	}
	if len(contents) == 0 {
		return nil
	}
	// Go's regexp alternation is leftmost-first: longer contents go first.
	sort.SliceStable(contents, func(i, j int) bool { return len(contents[i]) > len(contents[j]) })
	for i, c := range contents {
		contents[i] = regexp.QuoteMeta(c)
	}
	return regexp.MustCompile(strings.Join(contents, "|"))
}

// resolveSpecialTokens maps special tokens from the model and config to their IDs.
func (t *Tokenizer) resolveSpecialTokens() {
	lookup := func(token api.TokenString) int {
		if token == "" {
			return -1
		}
		if id, ok := t.TokenToID(string(token)); ok {
			return id
		}
		return -1
	}
	if t.tokenizer.Model.UnkToken != nil {
		t.unkID = lookup(api.TokenString(*t.tokenizer.Model.UnkToken))
	}
	if t.config != nil {
		if t.unkID == -1 {
			t.unkID = lookup(t.config.UnkToken)
		}
		t.padID = lookup(t.config.PadToken)
		t.bosID = lookup(t.config.BosToken)
		t.eosID = lookup(t.config.EosToken)
	}
	// GPT-2 family models use "<|endoftext|>" for all of them.
	if t.eosID == -1 {
		t.eosID = lookup("<|endoftext|>")
	}
	if t.bosID == -1 {
		t.bosID = t.eosID
	}
}

// Encode converts text to a sequence of token IDs. No control tokens are added, but added tokens
// present in the text are encoded to their ids.
func (t *Tokenizer) Encode(text string) []int {
	var ids []int
	t.splitOnAddedTokens(text, func(segment string, addedID int) {
		if addedID >= 0 {
			ids = append(ids, addedID)
			return
		}
		for _, word := range t.preTokenize(t.normalize(segment)) {
			ids = append(ids, t.bpeTokenize(word)...)
		}
	})
	return ids
}

// splitOnAddedTokens calls fn for each segment of text, in order: addedID is the id of the
// added token matched by segment, or -1 for ordinary text.
func (t *Tokenizer) splitOnAddedTokens(text string, fn func(segment string, addedID int)) {
	if t.addedPattern == nil {
		if text != "" {
			fn(text, -1)
		}
		return
	}
	pos := 0
	for _, loc := range t.addedPattern.FindAllStringIndex(text, -1) {
		if loc[0] > pos {
			fn(text[pos:loc[0]], -1)
		}
		match := text[loc[0]:loc[1]]
		fn(match, t.addedTokens[match])
		pos = loc[1]
	}
	if pos < len(text) {
		fn(text[pos:], -1)
	}
}

// Decode converts a sequence of token IDs back to text.
// Unknown ids and special added tokens are skipped, other added tokens are rendered by their content.
func (t *Tokenizer) Decode(ids []int) string {
	var buf []byte
	for _, id := range ids {
		token, ok := t.idToToken[id]
		if !ok {
			continue
		}
		if special, isAdded := t.addedIDs[id]; isAdded {
			if !special {
				buf = append(buf, token...)
			}
			continue
		}
		buf = t.decodeToken(buf, token)
	}
	return lossy.String(buf)
}

// decodeToken appends the bytes represented by the vocabulary token to buf, according to the decoder.
func (t *Tokenizer) decodeToken(buf []byte, token string) []byte {
	switch t.decoderType() {
	case "ByteLevel":
		return byteLevelDecode(buf, token)
	case "BPEDecoder":
		suffix := t.tokenizer.Model.EndOfWordSuffix
		if suffix != "" && strings.HasSuffix(token, suffix) {
			return append(append(buf, strings.TrimSuffix(token, suffix)...), ' ')
		}
		return append(buf, token...)
	default:
		return append(buf, token...)
	}
}

// decoderType returns the effective decoder: for a "Sequence" decoder, the first ByteLevel or BPEDecoder in it.
func (t *Tokenizer) decoderType() string {
	d := t.tokenizer.Decoder
	if d == nil {
		return ""
	}
	if d.Type != "Sequence" {
		return d.Type
	}
	for _, child := range d.Decoders {
		if child.Type == "ByteLevel" || child.Type == "BPEDecoder" {
			return child.Type
		}
	}
	return ""
}

// SpecialTokenID returns the ID for a given special token.
func (t *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	var id = -1
	switch token {
	case api.TokUnknown:
		id = t.unkID
	case api.TokPad:
		id = t.padID
	case api.TokBeginningOfSentence:
		id = t.bosID
	case api.TokEndOfSentence:
		id = t.eosID
	}
	if id < 0 {
		return 0, errors.Errorf("special token %s not found", token)
	}
	return id, nil
}

// TokenToID converts a token string to its ID. Added tokens take precedence over the model vocabulary.
func (t *Tokenizer) TokenToID(token string) (int, bool) {
	if id, ok := t.addedTokens[token]; ok {
		return id, true
	}
	id, ok := t.tokenizer.Model.Vocab[token]
	return id, ok
}

// IDToToken converts a token ID to its string, as stored in the vocabulary (byte-level encoded).
func (t *Tokenizer) IDToToken(id int) (string, bool) {
	token, ok := t.idToToken[id]
	return token, ok
}

// VocabSize returns the number of distinct ids known by the tokenizer.
func (t *Tokenizer) VocabSize() int {
	return len(t.idToToken)
}

// AddedTokensList returns the list of added tokens sorted by ID.
func (t *Tokenizer) AddedTokensList() []AddedToken {
	result := make([]AddedToken, len(t.tokenizer.AddedTokens))
	copy(result, t.tokenizer.AddedTokens)
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}
