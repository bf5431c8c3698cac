// Package gowhisper holds the version of the set of tools to convert between Whisper model tokens
// and words, timestamps and transcripts.
//
// The main sub-packages are:
//
//   - tokenizers/whisper: the Whisper tokenizer wrapper (special tokens, timestamps, encoding of prompts
//     and word lists, decoding and word alignment).
//   - tokenizers: vocabularies (tokenizer.json) the Whisper tokenizer is built on.
//   - transcript: segment-level alignment, word timing and storage of aligned words.
//   - hub: to download tokenizer files from HuggingFace Hub.
package gowhisper

// Version of the library.
// Manually kept in sync with project releases.
var Version = "v0.0.0-dev"
