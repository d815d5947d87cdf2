// Package audio plays the explosion sound effect.
package audio

import (
	"bytes"
	"fmt"
	"io"
	gomath "math"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// DefaultSampleRate is the default sample rate for audio playback.
const DefaultSampleRate = beep.SampleRate(44100)

// BurstDuration is the length of the synthesized explosion.
const BurstDuration = 600 * time.Millisecond

// Manager handles sound effect playback.
type Manager struct {
	mu sync.RWMutex

	initialized bool
	sampleRate  beep.SampleRate

	volume float64 // 0.0 to 1.0
	muted  bool

	// clap replaces the synthesized burst when set
	clap *beep.Buffer

	// SFX mixer for concurrent sound effects
	sfxMixer *beep.Mixer
}

// New creates a new audio manager.
func New(volume float64, muted bool) *Manager {
	return &Manager{
		sampleRate: DefaultSampleRate,
		volume:     clamp(volume, 0, 1),
		muted:      muted,
		sfxMixer:   &beep.Mixer{},
	}
}

// Init initializes the audio system.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30))
	if err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	speaker.Play(m.sfxMixer)

	m.initialized = true
	return nil
}

// Close shuts down the audio system.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		speaker.Clear()
	}
	m.initialized = false
}

// IsInitialized returns whether the audio system is initialized.
func (m *Manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SetVolume sets the effect volume (0.0 to 1.0).
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clamp(vol, 0, 1)
}

// Volume returns the effect volume.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// ToggleMute flips the mute flag and returns the new value.
func (m *Manager) ToggleMute() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = !m.muted
	return m.muted
}

// Muted reports whether effects are muted.
func (m *Manager) Muted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.muted
}

// LoadClap replaces the synthesized explosion with a WAV file.
func (m *Manager) LoadClap(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read clap sound: %w", err)
	}
	buf, err := decodeWAV(data, m.sampleRate)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.clap = buf
	m.mu.Unlock()
	return nil
}

// decodeWAV decodes and, if needed, resamples WAV data into a buffer.
func decodeWAV(data []byte, rate beep.SampleRate) (*beep.Buffer, error) {
	streamer, format, err := wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	defer streamer.Close()

	var resampled beep.Streamer = streamer
	if format.SampleRate != rate {
		resampled = beep.Resample(4, format.SampleRate, rate, streamer)
		format.SampleRate = rate
	}

	buf := beep.NewBuffer(format)
	buf.Append(resampled)
	return buf, nil
}

// PlayExplosion plays the explosion effect. It is a no-op while muted.
func (m *Manager) PlayExplosion() error {
	m.mu.RLock()
	initialized := m.initialized
	vol := m.volume
	muted := m.muted
	clap := m.clap
	m.mu.RUnlock()

	if !initialized {
		return fmt.Errorf("audio not initialized")
	}
	if muted || vol <= 0 {
		return nil
	}

	var src beep.Streamer
	if clap != nil {
		src = clap.Streamer(0, clap.Len())
	} else {
		src = Burst(m.sampleRate, BurstDuration, nil)
	}

	speaker.Lock()
	m.sfxMixer.Add(newVolume(src, vol))
	speaker.Unlock()
	return nil
}

// Burst synthesizes a white-noise burst with an exponential decay and a
// low-passed body, lasting d. A nil rng uses the global source.
func Burst(rate beep.SampleRate, d time.Duration, rng *rand.Rand) beep.Streamer {
	total := rate.N(d)
	if total <= 0 {
		total = 1
	}
	// Reach about -60dB at the end of the burst.
	decay := gomath.Log(1000) / float64(total)
	noise := rand.Float64
	if rng != nil {
		noise = rng.Float64
	}

	pos := 0
	var low float64
	gen := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			white := noise()*2 - 1
			low += 0.08 * (white - low)
			env := gomath.Exp(-decay * float64(pos))
			v := env * (0.35*white + 0.65*low*3)
			v = clamp(v, -1, 1)
			samples[i] = [2]float64{v, v}
			pos++
		}
		return len(samples), true
	})
	return beep.Take(total, gen)
}

// newVolume scales s by a linear 0-1 volume. Log2(0) is -Inf, so zero
// volume is marked silent instead.
func newVolume(s beep.Streamer, vol float64) *effects.Volume {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: gomath.Log2(vol)}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
