// qpackbench is a small CLI driving the qpack codec directly: encode
// and decode a header set, or benchmark this package against
// quic-go/qpack over the same input.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	quicqpack "github.com/quic-go/qpack"

	"github.com/yourusername/qpack/qpack"
)

const version = "0.1.0"

func main() {
	encodeCmd := flag.NewFlagSet("encode", flag.ExitOnError)
	encodeHeaders := encodeCmd.String("headers", ":method=GET,:path=/,x-custom=value", "comma-separated name=value header list")
	encodeVerbose := encodeCmd.Bool("v", false, "verbose output")

	benchCmd := flag.NewFlagSet("bench", flag.ExitOnError)
	benchHeaders := benchCmd.String("headers", ":method=GET,:path=/,x-custom=value", "comma-separated name=value header list")
	benchIters := benchCmd.Int("n", 100000, "number of iterations")

	versionCmd := flag.NewFlagSet("version", flag.ExitOnError)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "encode":
		encodeCmd.Parse(os.Args[2:])
		if err := runEncode(*encodeHeaders, *encodeVerbose); err != nil {
			fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
			os.Exit(1)
		}

	case "bench":
		benchCmd.Parse(os.Args[2:])
		if err := runBench(*benchHeaders, *benchIters); err != nil {
			fmt.Fprintf(os.Stderr, "bench failed: %v\n", err)
			os.Exit(1)
		}

	case "version":
		versionCmd.Parse(os.Args[2:])
		fmt.Printf("qpackbench version %s\n", version)

	case "help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`qpackbench - QPACK encode/decode driver

Usage:
  qpackbench <command> [options]

Commands:
  encode   Encode a header set, print its encoded sizes, then decode it back and print the headers
  bench    Compare encode throughput against quic-go/qpack
  version  Show version information
  help     Show this help message

Examples:
  qpackbench encode -headers=":method=GET,:path=/"
  qpackbench bench -n=500000`)
}

func parseHeaders(s string) []qpack.HeaderField {
	var fields []qpack.HeaderField
	for _, pair := range strings.Split(s, ",") {
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		fields = append(fields, qpack.HeaderField{Name: kv[0], Value: kv[1]})
	}
	return fields
}

func runEncode(headerSpec string, verbose bool) error {
	fields := parseHeaders(headerSpec)
	if len(fields) == 0 {
		return fmt.Errorf("no headers parsed from %q", headerSpec)
	}

	enc := qpack.NewEncoder(nil)
	if err := enc.StartHeader(0); err != nil {
		return err
	}
	var block []byte
	for _, f := range fields {
		var err error
		block, err = enc.Encode(block, f)
		if err != nil {
			return fmt.Errorf("encode %s: %w", f.Name, err)
		}
	}
	block, err := enc.EndHeader(block)
	if err != nil {
		return fmt.Errorf("end header: %w", err)
	}
	instr := enc.DrainEncoderStream(-1)

	fmt.Printf("header block: %d bytes\n", len(block))
	fmt.Printf("encoder stream instructions: %d bytes\n", len(instr))

	dec := qpack.NewDecoder(nil)
	var got []qpack.HeaderOut
	dec.HeaderBlockDone = func(streamID uint64, headers []qpack.HeaderOut) { got = headers }
	dec.WriteDecoderInstruction = func([]byte) {}

	if len(instr) > 0 {
		if err := dec.EncoderStreamInput(instr); err != nil {
			return fmt.Errorf("decode encoder stream: %w", err)
		}
	}
	if err := dec.HeaderBlockInput(0, block, true); err != nil {
		return fmt.Errorf("decode header block: %w", err)
	}

	for _, h := range got {
		if verbose {
			fmt.Printf("  %s: %s (never-index=%v)\n", h.Name, h.Value, h.NeverIndex)
		} else {
			fmt.Printf("  %s: %s\n", h.Name, h.Value)
		}
	}
	return nil
}

func runBench(headerSpec string, iters int) error {
	fields := parseHeaders(headerSpec)
	if len(fields) == 0 {
		return fmt.Errorf("no headers parsed from %q", headerSpec)
	}

	start := time.Now()
	for i := 0; i < iters; i++ {
		enc := qpack.NewEncoder(nil)
		_ = enc.StartHeader(uint64(i))
		var block []byte
		for _, f := range fields {
			block, _ = enc.Encode(block, f)
		}
		_, _ = enc.EndHeader(block)
	}
	ownElapsed := time.Since(start)

	refFields := make([]quicqpack.HeaderField, 0, len(fields))
	for _, f := range fields {
		refFields = append(refFields, quicqpack.HeaderField{Name: f.Name, Value: f.Value})
	}
	start = time.Now()
	for i := 0; i < iters; i++ {
		var buf strings.Builder
		refEnc := quicqpack.NewEncoder(&buf)
		for _, f := range refFields {
			_ = refEnc.WriteField(f)
		}
		_ = refEnc.Close()
	}
	refElapsed := time.Since(start)

	fmt.Printf("this package:     %d iterations in %s (%s/op)\n", iters, ownElapsed, ownElapsed/time.Duration(iters))
	fmt.Printf("quic-go/qpack:    %d iterations in %s (%s/op)\n", iters, refElapsed, refElapsed/time.Duration(iters))
	return nil
}
