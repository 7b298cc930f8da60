// Command channelctl runs channel transformations locally, without the API or its storage.
//
// Usage:
//
//	channelctl transform -channel channel.yaml -in order.xml [-out invoice.json] [-absent skip|null]
//	channelctl parse -format XML -in order.xml
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"channelapi/internal/channelfile"
	"channelapi/internal/engine"
	"channelapi/internal/model"
	"channelapi/internal/parser"
)

const usage = `usage: channelctl <command> [flags]

commands:
  transform   apply a channel file to a document
  parse       print a document as its JSON tree
`

var errUsage = errors.New("invalid usage")

func main() {
	log.SetFlags(0)
	log.SetPrefix("channelctl: ")

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	switch args[0] {
	case "transform":
		return runTransform(args[1:], stdin, stdout, stderr)
	case "parse":
		return runParse(args[1:], stdin, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
}

func runTransform(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("transform", flag.ContinueOnError)
	fs.SetOutput(stderr)
	channelPath := fs.String("channel", "", "path to the channel YAML file (required)")
	in := fs.String("in", "-", "input document, - for stdin")
	out := fs.String("out", "-", "output file, - for stdout")
	absent := fs.String("absent", "skip", "absent source policy: skip or null")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *channelPath == "" {
		fmt.Fprintln(stderr, "transform: -channel is required")
		fs.Usage()
		return errUsage
	}

	policy, err := engine.ParseAbsentPolicy(*absent)
	if err != nil {
		return err
	}
	ch, err := channelfile.LoadFile(*channelPath)
	if err != nil {
		return err
	}
	raw, err := readInput(*in, stdin)
	if err != nil {
		return err
	}

	source, err := parser.Parse(ch.SourceFormat, raw)
	if err != nil {
		return err
	}
	target, err := engine.New(policy).Transform(source, ch.TargetTemplate, ch.Mappings)
	if err != nil {
		return err
	}
	rendered, err := parser.Render(ch.TargetFormat, target)
	if err != nil {
		return err
	}
	return writeOutput(*out, stdout, rendered)
}

func runParse(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "", "document format: XML or JSON (required)")
	in := fs.String("in", "-", "input document, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := model.ParseFormat(*format)
	if err != nil {
		return err
	}
	raw, err := readInput(*in, stdin)
	if err != nil {
		return err
	}
	v, err := parser.Parse(f, raw)
	if err != nil {
		return err
	}
	rendered, err := parser.RenderJSON(v)
	if err != nil {
		return err
	}
	_, err = stdout.Write(rendered)
	return err
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read input %s: %w", name, err)
	}
	return b, nil
}

func writeOutput(name string, stdout io.Writer, data []byte) error {
	if name == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output %s: %w", name, err)
	}
	return nil
}
