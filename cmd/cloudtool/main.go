// cloudtool is a CLI utility for shapes and landmark recordings.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Faultbox/handcloud/internal/capture"
	"github.com/Faultbox/handcloud/internal/genai"
	"github.com/Faultbox/handcloud/pkg/math"
	"github.com/Faultbox/handcloud/pkg/shape"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "shapes", "ls":
		cmdShapes()
	case "sample":
		cmdSample(args)
	case "record", "rec":
		cmdRecord(args)
	case "inspect":
		cmdInspect(args)
	case "generate", "gen":
		cmdGenerate(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`cloudtool - handcloud shape and recording utility

Usage:
  cloudtool <command> [options]

Commands:
  shapes                              List built-in shapes in cycle order
  sample [-n count] <shape>           Print point cloud statistics
  record [-d seconds] <ws-url> <out>  Record a landmark stream to JSON lines
  inspect <file.jsonl>                Summarize a recording
  generate [-n count] <url> <prompt>  Request a cloud from a generator

Examples:
  cloudtool sample -n 5000 planet
  cloudtool record -d 30 ws://localhost:8765/hands session.jsonl
  cloudtool inspect session.jsonl
  cloudtool generate http://localhost:9000/shape "a paper crane"`)
}

func cmdShapes() {
	for i, id := range shape.IDs() {
		fmt.Printf("%d  %s\n", i+1, id)
	}
}

func cmdSample(args []string) {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	count := fs.Int("n", 1500, "Number of points")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: cloudtool sample [-n count] <shape>")
		os.Exit(1)
	}

	id := shape.Parse(fs.Arg(0))
	if !id.Known() {
		fmt.Fprintf(os.Stderr, "Unknown shape %q, sampling sphere\n", id)
	}
	printCloud(string(id), shape.Generate(id, *count, nil))
}

func printCloud(name string, pts []math.Vec3) {
	var lo, hi, sum math.Vec3
	for i, p := range pts {
		if i == 0 {
			lo, hi = p, p
		}
		lo = math.Vec3{X: min(lo.X, p.X), Y: min(lo.Y, p.Y), Z: min(lo.Z, p.Z)}
		hi = math.Vec3{X: max(hi.X, p.X), Y: max(hi.Y, p.Y), Z: max(hi.Z, p.Z)}
		sum = sum.Add(p)
	}
	var mean math.Vec3
	if len(pts) > 0 {
		mean = sum.Scale(1 / float32(len(pts)))
	}

	fmt.Printf("Shape:  %s\n", name)
	fmt.Printf("Points: %d\n", len(pts))
	fmt.Printf("Radius: %.3f\n", shape.Bounds(pts))
	fmt.Printf("Min:    (%.3f, %.3f, %.3f)\n", lo.X, lo.Y, lo.Z)
	fmt.Printf("Max:    (%.3f, %.3f, %.3f)\n", hi.X, hi.Y, hi.Z)
	fmt.Printf("Mean:   (%.3f, %.3f, %.3f)\n", mean.X, mean.Y, mean.Z)
}

func cmdRecord(args []string) {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	seconds := fs.Int("d", 0, "Stop after N seconds (0 = until interrupted)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: cloudtool record [-d seconds] <ws-url> <out.jsonl>")
		os.Exit(1)
	}

	out, err := os.Create(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	w := bufio.NewWriter(out)
	defer w.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *seconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*seconds)*time.Second)
		defer cancel()
	}

	frames := make(chan capture.Frame, 64)
	src := capture.NewWebSocketSource(fs.Arg(0), time.Second, 5*time.Second)
	go func() {
		_ = src.Run(ctx, frames)
		close(frames)
	}()

	written := 0
	for f := range frames {
		line, err := capture.EncodeFrame(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding frame: %v\n", err)
			continue
		}
		w.Write(line)
		w.WriteByte('\n')
		written++
	}

	fmt.Printf("Recorded: %s (%d frames)\n", fs.Arg(1), written)
}

func cmdInspect(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: cloudtool inspect <file.jsonl>")
		os.Exit(1)
	}

	r := &capture.Replay{Path: args[0]}
	frames, err := r.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	handCounts := make(map[int]int)
	dropped := 0
	var first, last time.Time
	for _, f := range frames {
		handCounts[len(f.Hands)]++
		dropped += f.Dropped
		if !f.At.IsZero() {
			if first.IsZero() {
				first = f.At
			}
			last = f.At
		}
	}

	fmt.Printf("Recording: %s\n", args[0])
	fmt.Printf("Frames:    %d\n", len(frames))
	if !first.IsZero() {
		fmt.Printf("Duration:  %s\n", last.Sub(first).Round(time.Millisecond))
	}
	fmt.Printf("Dropped:   %d malformed hands\n", dropped)
	fmt.Println()
	fmt.Println("Frames by hand count:")
	for n := 0; n <= 4; n++ {
		if c := handCounts[n]; c > 0 {
			fmt.Printf("  %d hands  %d\n", n, c)
		}
	}
}

func cmdGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	count := fs.Int("n", 1500, "Number of points to request")
	timeout := fs.Duration("t", 30*time.Second, "Request timeout")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: cloudtool generate [-n count] <url> <prompt>")
		os.Exit(1)
	}

	client := genai.New(fs.Arg(0), *timeout)
	pts, err := client.Generate(context.Background(), fs.Arg(1), *count)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printCloud(fs.Arg(1), pts)
}
