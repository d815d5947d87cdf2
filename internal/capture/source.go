package capture

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/handcloud/internal/logger"
)

// Source produces landmark frames until ctx is done. Run returns nil on
// cancellation; any other error means the source gave up.
type Source interface {
	Run(ctx context.Context, out chan<- Frame) error
}

// WebSocketSource reads frames from a detector that streams JSON text
// messages over a websocket.
type WebSocketSource struct {
	URL            string
	ReconnectDelay time.Duration
	ReadTimeout    time.Duration // zero disables the read deadline
	Dialer         *websocket.Dialer
}

// NewWebSocketSource creates a source for url.
func NewWebSocketSource(url string, reconnect, readTimeout time.Duration) *WebSocketSource {
	return &WebSocketSource{
		URL:            url,
		ReconnectDelay: reconnect,
		ReadTimeout:    readTimeout,
	}
}

// Run dials the detector and forwards frames to out. When the connection
// drops or cannot be established it waits ReconnectDelay and dials again.
// Only the first failure of a streak is logged at warn. A dropped
// connection is followed by an empty frame so consumers see the hand as lost.
func (s *WebSocketSource) Run(ctx context.Context, out chan<- Frame) error {
	log := logger.Named("capture")
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	delay := s.ReconnectDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	failing := false
	for {
		conn, _, err := dialer.DialContext(ctx, s.URL, nil)
		if err == nil {
			log.Info("capture connected", zap.String("url", s.URL))
			failing = false
			err = s.readLoop(ctx, conn, log, out)
			_ = conn.Close()
			if ctx.Err() == nil && !SendLost(ctx, out) {
				return nil
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		if !failing {
			log.Warn("capture unavailable, retrying", zap.String("url", s.URL), zap.Duration("delay", delay), zap.Error(err))
			failing = true
		} else {
			log.Debug("capture retry failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (s *WebSocketSource) readLoop(ctx context.Context, conn *websocket.Conn, log *zap.Logger, out chan<- Frame) error {
	// Unblock ReadMessage when the context is cancelled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		if s.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
				return errors.Wrap(err, "failed to set read deadline")
			}
		}
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "failed to read message")
		}
		if msgType != websocket.TextMessage {
			continue
		}

		f, err := DecodeFrame(data)
		if err != nil {
			log.Debug("malformed landmark frame", zap.Error(err))
			continue
		}
		if f.Dropped > 0 {
			log.Debug("dropped malformed hands", zap.Int("dropped", f.Dropped))
		}
		if f.At.IsZero() {
			f.At = time.Now()
		}

		select {
		case out <- f:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SendLost tells the consumer that no hand is visible any more. It reports
// false if ctx was cancelled first.
func SendLost(ctx context.Context, out chan<- Frame) bool {
	select {
	case out <- Frame{At: time.Now()}:
		return true
	case <-ctx.Done():
		return false
	}
}
