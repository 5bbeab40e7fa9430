// Package capture records one spoken utterance from a live input stream. It
// calibrates to the ambient noise, classifies fixed-size blocks by RMS energy
// and stops after a run of silence or an overall timeout.
package capture

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"earshot/audio"
)

var (
	// ErrDeviceUnavailable means the input stream could not be opened. No
	// blocks were read.
	ErrDeviceUnavailable = errors.New("capture: audio device unavailable")
	// ErrReadFailure means a read failed after the stream was open. The
	// stream has been released by the time it is returned.
	ErrReadFailure = errors.New("capture: audio read failed")
)

type State int

const (
	Calibrating State = iota
	WaitingForSpeech
	Speaking
	Done
)

func (s State) String() string {
	switch s {
	case Calibrating:
		return "calibrating"
	case WaitingForSpeech:
		return "waiting"
	case Speaking:
		return "speaking"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is how a session that did not fail ended.
type Outcome int

const (
	// OutcomeSilence: speech followed by a full silent run.
	OutcomeSilence Outcome = iota
	// OutcomeTimeout: the timeout fired while speaking. The audio is kept
	// but the utterance may be cut mid-word.
	OutcomeTimeout
	// OutcomeNoSpeech: the timeout fired before any block crossed the threshold.
	OutcomeNoSpeech
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSilence:
		return "silence"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeNoSpeech:
		return "no_speech"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Observer receives progress from a running session, on the capturing
// goroutine. Level is called once per block, so implementations must return
// promptly and hand slow work, such as redrawing a UI, to another goroutine.
type Observer interface {
	StateChanged(state State)
	Calibrated(cal Calibration)
	Level(rms float64, speech bool)
}

type NopObserver struct{}

func (NopObserver) StateChanged(State)     {}
func (NopObserver) Calibrated(Calibration) {}
func (NopObserver) Level(float64, bool)    {}

type Option func(*Engine)

// WithClock replaces time.Now for the timeout clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithSessionID tags the utterance. A random id is used otherwise.
func WithSessionID(id string) Option {
	return func(e *Engine) { e.sessionID = id }
}

type Engine struct {
	src       audio.Opener
	device    *audio.DeviceInfo
	cfg       Config
	now       func() time.Time
	observer  Observer
	sessionID string
}

// New validates cfg and returns an engine reading from device (nil for the
// system default). The engine runs one session per Capture call.
func New(src audio.Opener, device *audio.DeviceInfo, cfg Config, opts ...Option) (*Engine, error) {
	if src == nil {
		return nil, errors.New("capture: nil audio source")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		src:      src,
		device:   device,
		cfg:      cfg,
		now:      time.Now,
		observer: NopObserver{},
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Capture runs one session. An empty utterance is a normal result. Errors
// wrap ErrDeviceUnavailable, ErrReadFailure or the context error, and the
// stream is closed before Capture returns in every case.
func (e *Engine) Capture(ctx context.Context) (*Utterance, error) {
	sessionID := e.sessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	stream, err := e.src.Open(e.device, audio.StreamConfig{
		SampleRate: uint32(e.cfg.SampleRate),
		Channels:   1,
		Format:     audio.FormatFloat32,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	defer stream.Close()

	s := &session{
		Engine: e,
		stream: stream,
		frames: e.cfg.BlockFrames(),
	}
	u, err := s.run(ctx)
	e.observer.StateChanged(Done)
	if err != nil {
		return nil, err
	}
	u.SessionID = sessionID
	return u, nil
}

type session struct {
	*Engine
	stream audio.Stream
	frames int
}

func (s *session) run(ctx context.Context) (*Utterance, error) {
	s.observer.StateChanged(Calibrating)
	calBlocks := s.cfg.CalibrationBlocks()
	levels := make([]float64, 0, calBlocks)
	for range calBlocks {
		block, err := s.read(ctx)
		if err != nil {
			return nil, s.readError(ctx, err)
		}
		level := RMS(block)
		levels = append(levels, level)
		s.observer.Level(level, false)
	}
	cal := Calibrate(levels, s.cfg.ThresholdMultiplier, s.cfg.MinThreshold)
	s.observer.Calibrated(cal)

	var (
		pre           = newPreRoll(s.cfg.PreRollBlocks())
		silenceBlocks = s.cfg.SilenceBlocks()
		blocks        [][]float32
		state         = WaitingForSpeech
		silent        int
		outcome       = OutcomeTimeout
	)
	s.observer.StateChanged(state)

	// The timeout clock starts after calibration.
	start := s.now()
	var elapsed time.Duration
loop:
	for {
		now := s.now()
		elapsed = now.Sub(start)
		if elapsed > s.cfg.Timeout {
			break
		}

		readCtx, cancel := context.WithTimeout(ctx, readBudget(s.cfg.Timeout, elapsed, s.cfg.BlockDuration))
		block, err := s.read(readCtx)
		cancel()
		if err != nil {
			if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				elapsed = s.now().Sub(start)
				break
			}
			return nil, s.readError(ctx, err)
		}

		level := RMS(block)
		speech := IsSpeech(level, cal.Threshold)
		s.observer.Level(level, speech)

		switch state {
		case WaitingForSpeech:
			if !speech {
				pre.Push(block)
				continue
			}
			blocks = append(pre.Drain(), block)
			silent = 0
			state = Speaking
			s.observer.StateChanged(state)
		case Speaking:
			blocks = append(blocks, block)
			if speech {
				silent = 0
				continue
			}
			silent++
			if silent >= silenceBlocks {
				outcome = OutcomeSilence
				elapsed = s.now().Sub(start)
				break loop
			}
		}
	}

	if len(blocks) == 0 {
		outcome = OutcomeNoSpeech
	}
	return newUtterance(blocks, s.cfg, cal, outcome, elapsed), nil
}

func (s *session) read(ctx context.Context) ([]float32, error) {
	block, err := s.stream.ReadBlock(ctx, s.frames)
	if err != nil {
		return nil, err
	}
	if len(block) != s.frames {
		return nil, fmt.Errorf("short block: got %d samples, want %d", len(block), s.frames)
	}
	return block, nil
}

func (s *session) readError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("capture: %w", ctxErr)
	}
	return fmt.Errorf("%w: %w", ErrReadFailure, err)
}

// readBudget is how long a single read may wait: whatever is left of the
// timeout plus one block, saturating instead of overflowing for very long
// timeouts.
func readBudget(timeout, elapsed, block time.Duration) time.Duration {
	remaining := timeout - elapsed
	if remaining > math.MaxInt64-block {
		return math.MaxInt64
	}
	return remaining + block
}
