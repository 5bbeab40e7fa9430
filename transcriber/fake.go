package transcriber

import (
	"context"
	"fmt"
	"sync"
)

type FakeTranscriber struct {
	text  string
	err   error
	lang  string
	model string

	mu       sync.Mutex
	sessions int
	fed      int
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{text: text, err: err, model: "fake"}
}

func (f *FakeTranscriber) Name() string            { return "fake" }
func (f *FakeTranscriber) Model() string           { return f.model }
func (f *FakeTranscriber) SetModel(model string)   { f.model = model }
func (f *FakeTranscriber) SetLanguage(lang string) { f.lang = lang }
func (f *FakeTranscriber) GetLanguage() string     { return f.lang }
func (f *FakeTranscriber) Warm()                   {}

// Sessions reports how many sessions were opened.
func (f *FakeTranscriber) Sessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions
}

// Fed reports how many samples were fed across all sessions.
func (f *FakeTranscriber) Fed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fed
}

func (f *FakeTranscriber) NewSession(_ context.Context, cfg SessionConfig) (Session, error) {
	f.mu.Lock()
	f.sessions++
	f.mu.Unlock()
	return &fakeSession{parent: f, text: f.text, err: f.err, sampleRate: cfg.SampleRate}, nil
}

type fakeSession struct {
	parent     *FakeTranscriber
	text       string
	err        error
	sampleRate int
	samples    int
}

func (s *fakeSession) Feed(pcm []int16) {
	s.samples += len(pcm)
	s.parent.mu.Lock()
	s.parent.fed += len(pcm)
	s.parent.mu.Unlock()
}

func (s *fakeSession) Close() (SessionResult, error) {
	if s.err != nil {
		return SessionResult{}, fmt.Errorf("fake transcriber error: %w", s.err)
	}
	var audioS float64
	if s.sampleRate > 0 {
		audioS = float64(s.samples) / float64(s.sampleRate)
	}
	return SessionResult{
		Text:     s.text,
		HasText:  s.text != "",
		NoSpeech: s.text == "",
		Batch: &BatchStats{
			AudioLengthS: audioS,
			TotalTimeMs:  10,
		},
		Metrics: []string{"total: 10ms (fake)"},
	}, nil
}
