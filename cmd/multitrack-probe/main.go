// ABOUTME: Source inspection and schedule dry run tool
// ABOUTME: Prints track info and the render requests issued after each seek
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/Sendspin/multitrack-go/internal/config"
	"github.com/Sendspin/multitrack-go/pkg/clock"
	"github.com/Sendspin/multitrack-go/pkg/multitrack"
	"github.com/Sendspin/multitrack-go/pkg/render/memory"
	"github.com/Sendspin/multitrack-go/pkg/schedule"
	"github.com/Sendspin/multitrack-go/pkg/source"
)

var (
	configPath = pflag.StringP("config", "c", "", "Session file (TOML)")
	seeks      = pflag.StringSlice("at", []string{"0"}, "Timeline positions to dry-run (e.g. 0,2.5s,1m)")
	debug      = pflag.Bool("debug", false, "Enable debug logging")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: multitrack-probe [flags] path[@delay[:gain]]...\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.WarnLevel)
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer) error {
	session := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		session = loaded
	}
	for _, spec := range pflag.Args() {
		t, err := config.ParseTrack(spec)
		if err != nil {
			return err
		}
		session.Tracks = append(session.Tracks, t)
	}
	if len(session.Tracks) == 0 {
		pflag.Usage()
		return fmt.Errorf("no tracks given")
	}

	positions := make([]time.Duration, 0, len(*seeks))
	for _, s := range *seeks {
		d, err := config.ParseDuration(s)
		if err != nil {
			return err
		}
		positions = append(positions, d)
	}

	engine := memory.NewEngine(nil)
	o, err := multitrack.New(multitrack.Config{
		Engine: engine,
		Clock:  clock.NewManual(),
	})
	if err != nil {
		return err
	}
	defer o.Close()

	for _, t := range session.Tracks {
		if _, err := o.AppendFile(t.Path, t.Delay.Duration, t.GainOrDefault()); err != nil {
			fmt.Fprintf(out, "skip: %v\n", err)
		}
	}
	if o.Len() == 0 {
		return fmt.Errorf("no readable tracks")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tFORMAT\tFRAMES\tDELAY\tSPAN\tTITLE\tARTIST")
	for i, item := range o.Tracks() {
		f := item.Format()
		var meta source.Metadata
		if d, ok := item.Source.(*source.Decoded); ok {
			meta = d.Metadata()
		}
		fmt.Fprintf(w, "%d\t%s\t%s %dHz %dch %d-bit\t%d\t%s\t%s\t%s\t%s\n",
			i, item.Name(), f.Codec, f.SampleRate, f.Channels, f.BitDepth,
			item.SourceFrames(), item.Delay, item.Duration().Round(time.Millisecond),
			meta.Title, meta.Artist)
	}
	_ = w.Flush()

	ref := o.ReferenceFormat()
	fmt.Fprintf(out, "\ngroup: %s, reference %dHz %dch\n", o.Duration().Round(time.Millisecond), ref.SampleRate, ref.Channels)

	sinks := engine.Sinks()
	for _, pos := range positions {
		at := o.SeekTo(pos)
		fmt.Fprintf(out, "\nat %s:\n", at)
		for i, sink := range sinks {
			fmt.Fprintf(out, "  %d %-20s %s\n", i, o.Tracks()[i].Name(), describe(sink.Queue()))
		}
	}
	return nil
}

// describe renders a sink queue in scheduler request notation
func describe(queue []memory.Command) string {
	if len(queue) == 0 {
		return "silent"
	}
	s := ""
	for i, cmd := range queue {
		if i > 0 {
			s += " "
		}
		s += schedule.Request{
			Full: cmd.Kind == memory.KindFull,
			From: cmd.From,
			To:   cmd.To,
			At:   cmd.At,
		}.String()
	}
	return s
}
