package capture

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/handcloud/internal/logger"
)

// DefaultReplayInterval paces recordings whose frames carry no timestamps.
const DefaultReplayInterval = 33 * time.Millisecond

// Replay plays frames from a JSON-lines recording, one DecodeFrame message
// per line. When lines carry timestamps their spacing is preserved;
// otherwise frames are spaced by Interval. Delivered frames are stamped
// with the wall clock.
type Replay struct {
	Path     string
	Interval time.Duration
	Loop     bool
}

// Load reads and decodes the whole recording. Blank and malformed lines are
// skipped.
func (r *Replay) Load() ([]Frame, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read replay %s", r.Path)
	}

	var frames []Frame
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		f, err := DecodeFrame(text)
		if err != nil {
			logger.Debug("skipping replay line", zap.Int("line", line), zap.Error(err))
			continue
		}
		frames = append(frames, f)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan replay")
	}
	return frames, nil
}

// Run sends the recording to out, looping if configured. A recording that
// ends without looping is followed by an empty frame.
func (r *Replay) Run(ctx context.Context, out chan<- Frame) error {
	frames, err := r.Load()
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		logger.Warn("replay is empty", zap.String("path", r.Path))
		return nil
	}
	logger.Info("replaying landmarks", zap.String("path", r.Path), zap.Int("frames", len(frames)))

	for {
		for i, f := range frames {
			if i > 0 {
				if err := sleepCtx(ctx, r.gap(frames[i-1], f)); err != nil {
					return nil
				}
			}
			f.At = time.Now()
			select {
			case out <- f:
			case <-ctx.Done():
				return nil
			}
		}
		if !r.Loop {
			SendLost(ctx, out)
			return nil
		}
		if err := sleepCtx(ctx, r.interval()); err != nil {
			return nil
		}
	}
}

func (r *Replay) interval() time.Duration {
	if r.Interval > 0 {
		return r.Interval
	}
	return DefaultReplayInterval
}

func (r *Replay) gap(prev, next Frame) time.Duration {
	if !prev.At.IsZero() && !next.At.IsZero() {
		if d := next.At.Sub(prev.At); d > 0 {
			return d
		}
	}
	return r.interval()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
