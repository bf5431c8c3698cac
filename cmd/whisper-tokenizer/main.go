// whisper-tokenizer encodes and decodes Whisper token sequences, splits them into words, and aligns
// transcribed segments into timed words.
//
// Usage:
//
//	whisper-tokenizer [flags] <command> [args]
//
// Commands:
//
//	sot                                 print the start sequence of the prompt
//	encode <text>                       encode a text prompt
//	encode-words <words.yaml>           encode a list of timed words
//	decode <id>...                      decode text tokens
//	decode-ts <id>...                   decode with the timestamps rendered
//	split <id>...                       split tokens into words
//	timestamp <seconds>...              timestamp token text and id
//	align <segments.yaml> <out.parquet> align the words of the segments
//
// The configuration is read from the -config YAML file and WHISPERTOK_* environment variables, and
// command line flags take precedence.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gomlx/go-whisper/internal/config"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagConfig            = flag.String("config", "", "path to a YAML config file")
	flagTokenizer         = flag.String("tokenizer", "", "path to a local tokenizer.json file")
	flagBackend           = flag.String("backend", "", "implementation reading tokenizer.json: hf (default) or sugarme")
	flagRepo              = flag.String("repo", "", "HuggingFace repository to download the tokenizer from, e.g. openai/whisper-small")
	flagMultilingual      = flag.Bool("multilingual", false, "multilingual model: uses -language and -task")
	flagTask              = flag.String("task", "", "task of multilingual models: transcribe or translate")
	flagLanguage          = flag.String("language", "", "language code of multilingual models, e.g. en, fr, ja")
	flagWithoutTimestamps = flag.Bool("without-timestamps", false, "don't prepend the timestamp token to encoded text")
	flagMaxLength         = flag.Int("max-length", 0, "maximum number of tokens of the model context")
	flagMaxParallel       = flag.Int("max-parallel", 0, "maximum number of segments aligned in parallel, defaults to the number of CPUs")
)

func main() {
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()
	defer klog.Flush()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := run(ctx, flag.Args()); err != nil {
		klog.Errorf("%+v", err)
		klog.Flush()
		os.Exit(1)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	_, _ = fmt.Fprintf(out, "Usage: %s [flags] <command> [args]\n\nCommands:\n", os.Args[0])
	for _, cmd := range commands {
		_, _ = fmt.Fprintf(out, "  %-36s %s\n", cmd.name+" "+cmd.args, cmd.help)
	}
	_, _ = fmt.Fprintf(out, "\nFlags:\n")
	flag.PrintDefaults()
}

// loadConfig reads the configuration and applies the flags explicitly set on top of it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*flagConfig)
	if err != nil {
		return nil, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tokenizer":
			cfg.Tokenizer.File = *flagTokenizer
		case "backend":
			cfg.Tokenizer.Backend = *flagBackend
		case "repo":
			cfg.Tokenizer.File = ""
			cfg.Tokenizer.Repo = *flagRepo
		case "multilingual":
			cfg.Whisper.Multilingual = *flagMultilingual
		case "task":
			cfg.Whisper.Task = *flagTask
		case "language":
			cfg.Whisper.Language = *flagLanguage
		case "without-timestamps":
			cfg.Whisper.WithoutTimestamps = *flagWithoutTimestamps
		case "max-length":
			cfg.Whisper.MaxLength = *flagMaxLength
		case "max-parallel":
			cfg.Align.MaxParallel = *flagMaxParallel
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return errors.New("no command given")
	}
	cmd, found := findCommand(args[0])
	if !found {
		flag.Usage()
		return errors.Errorf("unknown command %q", args[0])
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tok, err := cfg.LoadTokenizer()
	if err != nil {
		return err
	}
	klog.V(1).Infof("tokenizer: language=%q, start sequence %v", tok.LanguageCode(), tok.StartSequence())
	env := &commandEnv{ctx: ctx, cfg: cfg, tok: tok, out: os.Stdout}
	return cmd.run(env, args[1:])
}
