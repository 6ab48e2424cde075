// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command rdpdump decodes an RDP command list and reports what the command
// processor made of it.
//
// The input is a raw dump of big-endian 32-bit command words, as captured
// from the DP command registers. It runs on a GPU-less device, so only the
// decoding and the work handed to the renderer are exercised.
//
// Usage:
//
//	rdpdump [-v] [-log debug] [-renderer recording|gpu] dump.bin
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/rdp"
	"github.com/gogpu/rdp/command"
	"github.com/gogpu/rdp/recording"
)

func main() {
	var (
		verbose  = flag.Bool("v", false, "list every command handed to the renderer")
		logLevel = flag.String("log", "warn", "log level: debug, info, warn or error")
		rend     = flag.String("renderer", "recording", "renderer to decode into: recording or gpu")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] dump.bin\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "rdpdump: %v\n", err)
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	rdp.SetLogger(log)

	if err := run(flag.Arg(0), *rend, *verbose, os.Stdout, log); err != nil {
		log.Error("rdpdump failed", "err", err)
		os.Exit(1)
	}
}

// readWords reads big-endian command words. A trailing partial word is
// reported and dropped.
func readWords(r io.Reader, log *slog.Logger) ([]uint32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if rem := len(data) % 4; rem != 0 {
		log.Warn("dump ends inside a word", "trailing_bytes", rem)
		data = data[:len(data)-rem]
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(data[i*4:])
	}
	return words, nil
}

func run(path, rendererName string, verbose bool, w io.Writer, log *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	words, err := readWords(f, log)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	defer instance.Destroy()
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no adapter")
	}
	dev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer dev.Device.Destroy()

	opts := []rdp.Option{
		rdp.WithLogger(log),
		rdp.WithRDRAMSize(4 << 10),
		rdp.WithHiddenRDRAMSize(4 << 10),
	}
	var rec *recording.Recorder
	if rendererName == "recording" {
		rec = recording.NewRecorder(recording.WithCapacity(len(words) / 2))
		opts = append(opts, rdp.WithRenderer(rec))
	} else {
		opts = append(opts, rdp.WithRendererName(rendererName))
	}

	p, err := rdp.New(dev.Device, dev.Queue, opts...)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.Submit(words); err != nil {
		return err
	}
	if err := p.Idle(); err != nil {
		return err
	}

	report(w, len(words), p.Stats(), rec, verbose)
	return nil
}

// report prints the counters of one run. Meta commands the tool adds
// itself are left out.
func report(w io.Writer, words int, s rdp.Stats, rec *recording.Recorder, verbose bool) {
	pr := message.NewPrinter(language.English)

	type opCount struct {
		op command.Op
		n  uint64
	}
	var (
		counts []opCount
		total  uint64
	)
	for op, n := range s.Dispatch.Ops {
		if n > 0 && !command.Op(op).IsMeta() {
			counts = append(counts, opCount{command.Op(op), n})
			total += n
		}
	}

	pr.Fprintf(w, "words:     %d\n", words)
	pr.Fprintf(w, "commands:  %d\n", total)
	pr.Fprintf(w, "draws:     %d\n", s.Dispatch.Draws)
	pr.Fprintf(w, "unknown:   %d\n", s.Dispatch.Unknown)
	pr.Fprintf(w, "dropped:   %d\n", s.Ring.Dropped)

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].n != counts[j].n {
			return counts[i].n > counts[j].n
		}
		return counts[i].op < counts[j].op
	})
	if len(counts) > 0 {
		pr.Fprintln(w)
	}
	for _, c := range counts {
		pr.Fprintf(w, "  %-30s %d\n", c.op, c.n)
	}

	if rec == nil || !verbose {
		return
	}
	pr.Fprintln(w)
	for i, c := range rec.Commands() {
		pr.Fprintf(w, "%6d  %s  %+v\n", i, c.Type(), c)
	}
}
