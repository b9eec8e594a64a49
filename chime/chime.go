// Package chime plays the celebration sound on the local speaker.
package chime

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog/log"
)

const (
	sampleRate = beep.SampleRate(44100)

	// B5 then E6
	firstNote     = 987.77
	secondNote    = 1318.51
	firstDuration = 90 * time.Millisecond
	lastDuration  = 220 * time.Millisecond
)

// Player is a crossword.Sink backed by the system speaker. Until Init
// succeeds, PlayCelebration is a no-op.
type Player struct {
	mu     sync.Mutex
	volume float64
	ready  bool
}

// New returns a player at the given volume in [0, 1].
func New(volume float64) *Player {
	return &Player{volume: volume}
}

// Init opens the speaker.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ready {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	p.ready = true
	return nil
}

// PlayCelebration queues the chime and returns immediately.
func (p *Player) PlayCelebration() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ready {
		return
	}
	s, err := Chime(sampleRate, p.volume)
	if err != nil {
		log.Debug().Err(err).Msg("chime")
		return
	}
	speaker.Play(s)
}

// Close releases the speaker.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ready {
		speaker.Close()
		p.ready = false
	}
}

// Chime builds the two-note celebration sound.
func Chime(rate beep.SampleRate, volume float64) (beep.Streamer, error) {
	first, err := note(rate, firstNote, firstDuration)
	if err != nil {
		return nil, err
	}
	last, err := note(rate, secondNote, lastDuration)
	if err != nil {
		return nil, err
	}
	return withVolume(beep.Seq(first, last), volume), nil
}

func note(rate beep.SampleRate, freq float64, d time.Duration) (beep.Streamer, error) {
	tone, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil, err
	}
	n := rate.N(d)
	return fadeOut(beep.Take(n, tone), n), nil
}

// fadeOut ramps the stream linearly down to silence over total samples.
func fadeOut(s beep.Streamer, total int) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		for i := 0; i < n; i++ {
			gain := 1 - float64(pos)/float64(total)
			samples[i][0] *= gain
			samples[i][1] *= gain
			pos++
		}
		return n, ok
	})
}

// math.Log2(0) is -Inf, so zero volume is expressed as silence.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
