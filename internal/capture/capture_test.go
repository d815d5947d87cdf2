package capture

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/handcloud/internal/gesture"
	"github.com/Faultbox/handcloud/internal/logger"
)

func testHand(x float32) gesture.Hand {
	var h gesture.Hand
	for i := range h {
		h[i] = gesture.Landmark{X: x, Y: float32(i) / 100, Z: -0.01}
	}
	return h
}

func TestDecodeFrame(t *testing.T) {
	data, err := EncodeFrame(Frame{Hands: []gesture.Hand{testHand(0.25), testHand(0.75)}})
	require.NoError(t, err)

	f, err := DecodeFrame(data)
	require.NoError(t, err)
	require.Len(t, f.Hands, 2)
	assert.Zero(t, f.Dropped)
	assert.True(t, f.At.IsZero())
	assert.Equal(t, testHand(0.25), f.Hands[0])
	assert.Equal(t, testHand(0.75), f.Hands[1])
}

func TestDecodeFrameTimestamp(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"t":1700000000123,"hands":[]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), f.At.UnixMilli())
	assert.Empty(t, f.Hands)
}

func TestDecodeFrameDropsMalformedHands(t *testing.T) {
	valid := `[` + strings.Repeat(`[0.1,0.2,0],`, 20) + `[0.1,0.2,0]]`
	missing := `[` + strings.Repeat(`[0.1,0.2],`, 19) + `[0.1,0.2]]`  // 20 points
	flat := `[` + strings.Repeat(`[0.1],`, 20) + `[0.1]]`              // no y

	f, err := DecodeFrame([]byte(`{"hands":[` + valid + `,` + missing + `,` + flat + `]}`))
	require.NoError(t, err)
	assert.Len(t, f.Hands, 1)
	assert.Equal(t, 2, f.Dropped)
}

func TestDecodeFrameTwoCoordinates(t *testing.T) {
	hand := `[` + strings.Repeat(`[0.4,0.6],`, 20) + `[0.4,0.6]]`
	f, err := DecodeFrame([]byte(`{"hands":[` + hand + `]}`))
	require.NoError(t, err)
	require.Len(t, f.Hands, 1)
	assert.Equal(t, gesture.Landmark{X: 0.4, Y: 0.6}, f.Hands[0][gesture.Wrist])
}

func TestDecodeFrameInvalidJSON(t *testing.T) {
	_, err := DecodeFrame([]byte(`{"hands":`))
	assert.Error(t, err)
}

// detector serves every accepted connection with msgs, then closes it.
func detector(t *testing.T, msgs ...string) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range msgs {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(s.Close)
	return s, "ws" + strings.TrimPrefix(s.URL, "http")
}

func receive(t *testing.T, ch <-chan Frame) Frame {
	t.Helper()
	select {
	case f := <-ch:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func TestWebSocketSourceForwardsFrames(t *testing.T) {
	good, err := EncodeFrame(Frame{Hands: []gesture.Hand{testHand(0.5)}})
	require.NoError(t, err)
	_, url := detector(t, "not json", string(good))

	src := NewWebSocketSource(url, 10*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Frame, 4)
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, out) }()

	f := receive(t, out)
	require.Len(t, f.Hands, 1)
	assert.Equal(t, testHand(0.5), f.Hands[0])
	assert.False(t, f.At.IsZero(), "frames without t are stamped on arrival")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWebSocketSourceReconnects(t *testing.T) {
	msg, err := EncodeFrame(Frame{Hands: []gesture.Hand{testHand(0.1)}})
	require.NoError(t, err)
	_, url := detector(t, string(msg))

	src := NewWebSocketSource(url, 10*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Frame, 4)
	go func() { _ = src.Run(ctx, out) }()

	// The server closes after each message, so a second hand proves a redial.
	assert.Len(t, receive(t, out).Hands, 1)
	assert.Empty(t, receive(t, out).Hands, "a dropped connection reports no hands")
	assert.Len(t, receive(t, out).Hands, 1)
}

func TestWebSocketSourceReportsLostHand(t *testing.T) {
	msg, err := EncodeFrame(Frame{Hands: []gesture.Hand{testHand(0.1)}})
	require.NoError(t, err)
	_, url := detector(t, string(msg))

	src := NewWebSocketSource(url, time.Hour, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Frame, 4)
	go func() { _ = src.Run(ctx, out) }()

	require.Len(t, receive(t, out).Hands, 1)
	lost := receive(t, out)
	assert.Empty(t, lost.Hands)
	assert.False(t, lost.At.IsZero())
}

func TestWebSocketSourceLogsUnderCaptureName(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })

	good, err := EncodeFrame(Frame{Hands: []gesture.Hand{testHand(0.5)}})
	require.NoError(t, err)
	_, url := detector(t, "not json", string(good))

	src := NewWebSocketSource(url, time.Hour, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Frame, 4)
	done := make(chan struct{})
	go func() {
		_ = src.Run(ctx, out)
		close(done)
	}()
	receive(t, out)
	cancel()
	<-done

	malformed := logs.FilterMessage("malformed landmark frame").All()
	require.Len(t, malformed, 1)
	assert.Equal(t, "capture", malformed[0].LoggerName)
}

func TestSendLostStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, SendLost(ctx, make(chan Frame)))
	assert.True(t, SendLost(context.Background(), make(chan Frame, 1)))
}

func TestWebSocketSourceUnavailable(t *testing.T) {
	s, url := detector(t)
	s.Close()

	src := NewWebSocketSource(url, 5*time.Millisecond, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := src.Run(ctx, make(chan Frame))
	assert.NoError(t, err, "an absent detector is not fatal")
}

func writeReplay(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func TestReplayLoadSkipsBadLines(t *testing.T) {
	a, err := EncodeFrame(Frame{Hands: []gesture.Hand{testHand(0.2)}})
	require.NoError(t, err)
	b, err := EncodeFrame(Frame{})
	require.NoError(t, err)

	r := &Replay{Path: writeReplay(t, string(a), "", "garbage", string(b))}
	frames, err := r.Load()
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Len(t, frames[0].Hands, 1)
	assert.Empty(t, frames[1].Hands)
}

func TestReplayRun(t *testing.T) {
	a, err := EncodeFrame(Frame{Hands: []gesture.Hand{testHand(0.2)}})
	require.NoError(t, err)
	b, err := EncodeFrame(Frame{Hands: []gesture.Hand{testHand(0.8)}})
	require.NoError(t, err)

	r := &Replay{Path: writeReplay(t, string(a), string(b)), Interval: time.Millisecond}
	out := make(chan Frame, 4)
	require.NoError(t, r.Run(context.Background(), out))
	close(out)

	var got []Frame
	for f := range out {
		got = append(got, f)
	}
	require.Len(t, got, 3)
	assert.Equal(t, testHand(0.2), got[0].Hands[0])
	assert.Equal(t, testHand(0.8), got[1].Hands[0])
	assert.False(t, got[1].At.Before(got[0].At))
	assert.Empty(t, got[2].Hands, "the end of a recording reports no hands")
}

func TestReplayMissingFile(t *testing.T) {
	r := &Replay{Path: filepath.Join(t.TempDir(), "missing.jsonl")}
	assert.Error(t, r.Run(context.Background(), make(chan Frame, 1)))
}

func TestReplayGapUsesTimestamps(t *testing.T) {
	r := &Replay{Interval: time.Second}
	base := time.UnixMilli(1_000)
	assert.Equal(t, 40*time.Millisecond, r.gap(Frame{At: base}, Frame{At: base.Add(40 * time.Millisecond)}))
	assert.Equal(t, time.Second, r.gap(Frame{}, Frame{At: base}))
	assert.Equal(t, DefaultReplayInterval, (&Replay{}).interval())
}
