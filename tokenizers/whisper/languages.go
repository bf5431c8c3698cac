package whisper

import "slices"

// tasks supported by multilingual models, in the order they are listed in error messages.
var tasks = []string{
	"transcribe",
	"translate",
}

// languageCodes supported by multilingual models, sorted, except for "yue" added by later models.
var languageCodes = []string{
	"af", "am", "ar", "as", "az", "ba", "be", "bg", "bn", "bo",
	"br", "bs", "ca", "cs", "cy", "da", "de", "el", "en", "es",
	"et", "eu", "fa", "fi", "fo", "fr", "gl", "gu", "ha", "haw",
	"he", "hi", "hr", "ht", "hu", "hy", "id", "is", "it", "ja",
	"jw", "ka", "kk", "km", "kn", "ko", "la", "lb", "ln", "lo",
	"lt", "lv", "mg", "mi", "mk", "ml", "mn", "mr", "ms", "mt",
	"my", "ne", "nl", "nn", "no", "oc", "pa", "pl", "ps", "pt",
	"ro", "ru", "sa", "sd", "si", "sk", "sl", "sn", "so", "sq",
	"sr", "su", "sv", "sw", "ta", "te", "tg", "th", "tk", "tl",
	"tr", "tt", "uk", "ur", "uz", "vi", "yi", "yo", "zh", "yue",
}

// spacelessLanguages don't separate words with spaces.
var spacelessLanguages = map[string]bool{
	"zh": true, "ja": true, "th": true, "lo": true, "my": true, "yue": true,
}

// Tasks returns the tasks accepted by multilingual tokenizers.
func Tasks() []string { return slices.Clone(tasks) }

// LanguageCodes returns the language codes accepted by multilingual tokenizers.
func LanguageCodes() []string { return slices.Clone(languageCodes) }

// IsSupportedTask reports whether task is one of Tasks.
func IsSupportedTask(task string) bool { return slices.Contains(tasks, task) }

// IsSupportedLanguage reports whether code is one of LanguageCodes.
func IsSupportedLanguage(code string) bool { return slices.Contains(languageCodes, code) }

// IsSpacelessLanguage reports whether words of the language are written without separating spaces
// (Chinese, Japanese, Thai, Lao, Burmese and Cantonese).
//
// Encoding of words and splitting of tokens into words both depend on it.
func IsSpacelessLanguage(code string) bool { return spacelessLanguages[code] }
