package speech

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrInterrupted is the distinguishable cause for an utterance preempted by
// a priority item or StopAll. It is expected, and must never be surfaced to
// the user as a speech failure.
var ErrInterrupted = errors.New("speech interrupted")

type Options struct {
	Lang   string  `json:"lang"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

func DefaultOptions() Options {
	return Options{Lang: "ja-JP", Rate: 0.8, Pitch: 1.0, Volume: 1.0}
}

// Synthesizer is the voice platform collaborator. Speak blocks until the
// utterance finishes, and must return ErrInterrupted when ctx is cancelled
// mid-utterance.
type Synthesizer interface {
	Speak(ctx context.Context, text string, opts Options) error
}

// LogSynthesizer stands in for a device voice: it logs the utterance and
// occupies the voice channel for a duration proportional to text length.
type LogSynthesizer struct {
	logger  *zap.Logger
	perRune time.Duration
}

func NewLogSynthesizer(logger *zap.Logger) *LogSynthesizer {
	return &LogSynthesizer{logger: logger, perRune: 60 * time.Millisecond}
}

func (s *LogSynthesizer) Speak(ctx context.Context, text string, opts Options) error {
	s.logger.Info("speaking", zap.String("text", text), zap.String("lang", opts.Lang))

	duration := time.Duration(len([]rune(text))) * s.perRune
	select {
	case <-time.After(duration):
		return nil
	case <-ctx.Done():
		return ErrInterrupted
	}
}
