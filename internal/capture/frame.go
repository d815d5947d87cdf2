// Package capture delivers hand landmark frames from an external detector.
package capture

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/Faultbox/handcloud/internal/gesture"
)

// Frame is one detector sample: zero or more hands seen at the same instant.
type Frame struct {
	Hands []gesture.Hand
	At    time.Time

	// Dropped counts hands in the message that did not carry exactly
	// gesture.LandmarkCount landmarks.
	Dropped int
}

// wireFrame is the JSON shape produced by the detector:
//
//	{"t": 1712345678901, "hands": [[[x,y,z], ... 21 points], ...]}
//
// t is optional, in unix milliseconds.
type wireFrame struct {
	T     int64         `json:"t,omitempty"`
	Hands [][][]float32 `json:"hands"`
}

// DecodeFrame parses one detector message. Hands with the wrong landmark
// count or landmarks with fewer than two coordinates are skipped and counted
// in Frame.Dropped. A missing z reads as 0.
func DecodeFrame(data []byte) (Frame, error) {
	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return Frame{}, errors.Wrap(err, "failed to decode landmark frame")
	}

	f := Frame{Hands: make([]gesture.Hand, 0, len(w.Hands))}
	if w.T > 0 {
		f.At = time.UnixMilli(w.T)
	}

	for _, raw := range w.Hands {
		h, ok := decodeHand(raw)
		if !ok {
			f.Dropped++
			continue
		}
		f.Hands = append(f.Hands, h)
	}
	return f, nil
}

func decodeHand(raw [][]float32) (gesture.Hand, bool) {
	var h gesture.Hand
	if len(raw) != gesture.LandmarkCount {
		return h, false
	}
	for i, p := range raw {
		switch len(p) {
		case 2:
			h[i] = gesture.Landmark{X: p[0], Y: p[1]}
		case 3:
			h[i] = gesture.Landmark{X: p[0], Y: p[1], Z: p[2]}
		default:
			return h, false
		}
	}
	return h, true
}

// EncodeFrame is the inverse of DecodeFrame. Replay recordings and tests use it.
func EncodeFrame(f Frame) ([]byte, error) {
	w := wireFrame{Hands: make([][][]float32, len(f.Hands))}
	if !f.At.IsZero() {
		w.T = f.At.UnixMilli()
	}
	for i := range f.Hands {
		pts := make([][]float32, gesture.LandmarkCount)
		for j, l := range f.Hands[i] {
			pts[j] = []float32{l.X, l.Y, l.Z}
		}
		w.Hands[i] = pts
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode landmark frame")
	}
	return data, nil
}
