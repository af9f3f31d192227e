// Command mdv2 converts wire markdown into Telegram MarkdownV2.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/codex-k8s/telegram-jotting-pal/internal/markdown"
)

type cli struct {
	Escape escapeCmd `cmd:"" help:"Print the MarkdownV2 rendition of FILE or stdin."`
	Check  checkCmd  `cmd:"" help:"Exit non-zero when FILE or stdin cannot be converted."`
}

type streams struct {
	in  io.Reader
	out io.Writer
}

func (s *streams) read(file string) (string, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(s.in)
		return string(data), err
	}
	data, err := os.ReadFile(file)
	return string(data), err
}

type escapeCmd struct {
	File          string `arg:"" optional:"" help:"Input file, stdin when omitted."`
	PlainFallback bool   `name:"plain-fallback" help:"Print the input unchanged when it cannot be converted."`
}

func (c *escapeCmd) Run(s *streams) error {
	input, err := s.read(c.File)
	if err != nil {
		return err
	}
	out, err := markdown.Escape(input)
	if err != nil {
		if !c.PlainFallback {
			return err
		}
		out = input
	}
	_, err = io.WriteString(s.out, out)
	return err
}

type checkCmd struct {
	File string `arg:"" optional:"" help:"Input file, stdin when omitted."`
}

func (c *checkCmd) Run(s *streams) error {
	input, err := s.read(c.File)
	if err != nil {
		return err
	}
	if _, err := markdown.Parse(input); err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, "ok")
	return err
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var c cli
	parser, err := kong.New(&c,
		kong.Name("mdv2"),
		kong.Description("Convert wire markdown into Telegram MarkdownV2."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run(&streams{in: stdin, out: stdout})
}

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "mdv2: %v\n", err)
	if errors.Is(err, markdown.ErrUnparsable) {
		os.Exit(2)
	}
	os.Exit(1)
}
