package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"earshot/audio"
	"earshot/beep"
	"earshot/capture"
	"earshot/clipboard"
	"earshot/config"
	"earshot/log"
	"earshot/metrics"
	"earshot/transcriber"
)

type textCorrector interface {
	Correct(ctx context.Context, text string) (string, error)
	Model() string
}

type deliverer interface {
	Deliver(text string) (clipboard.Delivery, error)
}

// app wires one listen cycle: capture, transcribe, correct, deliver.
type app struct {
	cfg       *config.Config
	audio     audio.Opener
	device    *audio.DeviceInfo
	tr        transcriber.Transcriber
	corrector textCorrector // nil skips correction
	sink      deliverer
	metrics   *metrics.Metrics
	out       io.Writer
	observer  capture.Observer // optional, receives capture progress
}

type listenResult struct {
	SessionID string
	Utterance *capture.Utterance
	Raw       string // transcript before correction and prefix
	Text      string // delivered text, empty when nothing was heard
	Delivery  clipboard.Delivery
	Metrics   []string
}

func (a *app) format() string {
	if f := a.cfg.Transcription.Format; f != "" {
		return f
	}
	return "wav"
}

func (a *app) listen(ctx context.Context) (*listenResult, error) {
	id := uuid.NewString()
	log.SessionStart(id, deviceLabel(a.device), a.tr.Name(), a.format())

	next := a.observer
	if next == nil {
		next = capture.NopObserver{}
	}
	engine, err := capture.New(a.audio, a.device, a.cfg.Capture,
		capture.WithSessionID(id),
		capture.WithObserver(&sessionObserver{session: id, next: next}),
	)
	if err != nil {
		return nil, err
	}

	beep.PlayStart()
	u, err := engine.Capture(ctx)
	if err != nil {
		beep.PlayError()
		log.CaptureError(id, err)
		a.metrics.RecordCaptureError(err)
		return nil, err
	}
	beep.PlayEnd()
	a.metrics.RecordUtterance(u)
	log.CaptureEnd(id, u.Outcome.String(), u.Blocks, u.Duration(), u.Elapsed)

	res := &listenResult{SessionID: id, Utterance: u}
	if u.Empty() {
		fmt.Fprintln(a.out, "No speech detected.")
		return res, nil
	}
	if u.Truncated() {
		log.Warnf("session %s: listening timed out mid-speech, audio truncated", id)
	}

	tres, err := a.transcribe(ctx, u)
	if err != nil {
		return res, err
	}
	res.Metrics = tres.Metrics
	if tres.Batch != nil {
		b := tres.Batch
		log.TranscriptionMetrics(id, log.Metrics{
			AudioLengthS:     b.AudioLengthS,
			RawSizeKB:        b.RawSizeKB,
			CompressedSizeKB: b.CompressedSizeKB,
			CompressionPct:   b.CompressionPct,
			EncodeTimeMs:     b.EncodeTimeMs,
			DNSTimeMs:        b.DNSTimeMs,
			ConnectTimeMs:    b.ConnectTimeMs,
			TLSTimeMs:        b.TLSTimeMs,
			TTFBMs:           b.TTFBMs,
			TotalTimeMs:      b.TotalTimeMs,
		}, a.format(), a.tr.Name(), b.ConnReused, b.TLSProtocol)
	}
	if tres.NoSpeech || strings.TrimSpace(tres.Text) == "" {
		fmt.Fprintln(a.out, "No speech detected.")
		return res, nil
	}

	res.Raw = tres.Text
	text := a.correct(ctx, id, tres.Text)
	text = a.cfg.ApplyPrefix(text)

	d, err := a.sink.Deliver(text)
	res.Text, res.Delivery = text, d
	if err != nil {
		return res, fmt.Errorf("deliver transcript: %w", err)
	}
	if d.CopyErr != nil {
		log.Warnf("clipboard copy failed, printed instead: %v", d.CopyErr)
	}
	if d.PasteErr != nil {
		log.Warnf("autopaste failed: %v", d.PasteErr)
	}
	log.TranscriptionText(text)
	return res, nil
}

func (a *app) transcribe(ctx context.Context, u *capture.Utterance) (transcriber.SessionResult, error) {
	start := time.Now()
	sess, err := a.tr.NewSession(ctx, transcriber.SessionConfig{
		Format:     a.format(),
		Language:   a.tr.GetLanguage(),
		SampleRate: u.SampleRate,
	})
	if err != nil {
		a.metrics.RecordTranscription(a.tr.Name(), time.Since(start), err)
		return transcriber.SessionResult{}, fmt.Errorf("transcription: %w", err)
	}
	sess.Feed(u.PCM16())
	res, err := sess.Close()
	a.metrics.RecordTranscription(a.tr.Name(), time.Since(start), err)
	if err != nil {
		log.Errorf("transcription error: %v", err)
		return res, fmt.Errorf("transcription: %w", err)
	}
	return res, nil
}

// correct returns the corrected text, or text itself when correction is off
// or fails.
func (a *app) correct(ctx context.Context, session, text string) string {
	if a.corrector == nil {
		return text
	}
	start := time.Now()
	fixed, err := a.corrector.Correct(ctx, text)
	if err != nil {
		log.Warnf("session %s: grammar correction failed, using raw transcript: %v", session, err)
		return text
	}
	log.Correction(session, a.corrector.Model(), fixed != text, time.Since(start))
	return fixed
}
