package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gomlx/go-whisper/internal/config"
	"github.com/gomlx/go-whisper/tokenizers/whisper"
	"github.com/gomlx/go-whisper/transcript"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// commandEnv holds what commands need to run.
type commandEnv struct {
	ctx context.Context
	cfg *config.Config
	tok *whisper.Tokenizer
	out io.Writer
}

type command struct {
	name, args, help string
	run              func(env *commandEnv, args []string) error
}

var commands = []command{
	{"sot", "", "print the start sequence of the prompt", runSOT},
	{"encode", "<text>", "encode a text prompt", runEncode},
	{"encode-words", "<words.yaml>", "encode a list of timed words", runEncodeWords},
	{"decode", "<id>...", "decode text tokens", runDecode},
	{"decode-ts", "<id>...", "decode with the timestamps rendered", runDecodeWithTimestamps},
	{"split", "<id>...", "split tokens into words", runSplit},
	{"timestamp", "<seconds>...", "timestamp token text and id", runTimestamp},
	{"align", "<segments.yaml> <out.parquet>", "align the words of the segments", runAlign},
}

func findCommand(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printIDs(out io.Writer, ids []int) error {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.Itoa(id)
	}
	_, err := fmt.Fprintln(out, strings.Join(strs, " "))
	return err
}

func parseIDs(args []string) ([]int, error) {
	if len(args) == 1 {
		args = strings.Fields(strings.NewReplacer(",", " ", "[", " ", "]", " ").Replace(args[0]))
	}
	ids := make([]int, len(args))
	for i, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, errors.Wrapf(whisper.ErrInvalidInput, "invalid token id %q", arg)
		}
		ids[i] = id
	}
	return ids, nil
}

func checkArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return errors.Wrapf(whisper.ErrInvalidInput, "expected %d argument(s): %s", n, usage)
	}
	return nil
}

func runSOT(env *commandEnv, args []string) error {
	if err := checkArgs(args, 0, "sot"); err != nil {
		return err
	}
	return printIDs(env.out, env.tok.StartSequence())
}

func runEncode(env *commandEnv, args []string) error {
	return printIDs(env.out, env.tok.EncodeText(strings.Join(args, " ")))
}

func runEncodeWords(env *commandEnv, args []string) error {
	if err := checkArgs(args, 1, "encode-words <words.yaml>"); err != nil {
		return err
	}
	words, err := transcript.LoadWords(args[0])
	if err != nil {
		return err
	}
	ids, err := env.tok.EncodeWords(words)
	if err != nil {
		return err
	}
	return printIDs(env.out, ids)
}

func runDecode(env *commandEnv, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.out, env.tok.Decode(ids))
	return err
}

func runDecodeWithTimestamps(env *commandEnv, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.out, env.tok.DecodeWithTimestamps(ids))
	return err
}

func runSplit(env *commandEnv, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	words, groups := env.tok.SplitToWordTokens(ids)
	t := newTable("#", "Word", "Tokens")
	for i, word := range words {
		groupStrs := make([]string, len(groups[i]))
		for j, id := range groups[i] {
			groupStrs[j] = strconv.Itoa(id)
		}
		t.Row(strconv.Itoa(i), strconv.Quote(word), strings.Join(groupStrs, " "))
	}
	_, err = fmt.Fprintln(env.out, t)
	return err
}

func runTimestamp(env *commandEnv, args []string) error {
	if len(args) == 0 {
		return errors.Wrap(whisper.ErrInvalidInput, "expected one or more times in seconds")
	}
	t := newTable("Seconds", "Token", "ID")
	for _, arg := range args {
		seconds, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return errors.Wrapf(whisper.ErrInvalidInput, "invalid time %q", arg)
		}
		text, err := env.tok.TimestampToTokenText(seconds)
		if err != nil {
			return err
		}
		id, err := env.tok.TimeToTokenID(seconds)
		if err != nil {
			return err
		}
		t.Row(arg, text, strconv.Itoa(id))
	}
	_, err := fmt.Fprintln(env.out, t)
	return err
}

func runAlign(env *commandEnv, args []string) error {
	if err := checkArgs(args, 2, "align <segments.yaml> <out.parquet>"); err != nil {
		return err
	}
	segments, err := transcript.LoadSegments(args[0])
	if err != nil {
		return err
	}
	spans, err := transcript.AlignSegments(env.ctx, env.tok, segments, transcript.Options{MaxParallel: env.cfg.Align.MaxParallel})
	if err != nil {
		return err
	}
	if err := transcript.WriteParquet(args[1], spans); err != nil {
		return err
	}
	t := newTable("Segment", "Start", "End", "Word", "Probability")
	var count int
	for _, segmentSpans := range spans {
		for _, span := range segmentSpans {
			t.Row(strconv.Itoa(span.Segment), fmt.Sprintf("%.2f", span.Start), fmt.Sprintf("%.2f", span.End),
				strconv.Quote(span.Text), fmt.Sprintf("%.3f", span.Probability))
			count++
		}
	}
	klog.Infof("aligned %d words in %d segments, saved to %q", count, len(segments), args[1])
	_, err = fmt.Fprintln(env.out, t)
	return err
}
