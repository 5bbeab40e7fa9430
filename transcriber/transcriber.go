package transcriber

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

type Segment struct {
	Text             string
	Start            float64
	End              float64
	NoSpeechProb     float64
	AvgLogProb       float64
	CompressionRatio float64
	Temperature      float64
}

type Result struct {
	Text         string
	Metrics      *NetworkMetrics
	RateLimit    string
	Confidence   float64
	NoSpeechProb float64
	AvgLogProb   float64
	Duration     float64
	Segments     []Segment
	// NoSpeech is set when the provider judged every segment to be silence,
	// even if it still returned text.
	NoSpeech bool
}

// Transcriber uploads one finished utterance per session and returns its text.
type Transcriber interface {
	Name() string
	Model() string
	SetModel(model string)
	SetLanguage(lang string)
	GetLanguage() string
	// Warm opens a connection to the API ahead of the first upload.
	Warm()
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)
}

type baseTranscriber struct {
	client *TracedClient
	apiURL string
	apiKey string
	model  string
	lang   string
}

func (b *baseTranscriber) SetLanguage(lang string) { b.lang = lang }

func (b *baseTranscriber) GetLanguage() string { return b.lang }

func (b *baseTranscriber) Model() string { return b.model }

func (b *baseTranscriber) SetModel(model string) {
	if model != "" {
		b.model = model
	}
}

// SetEndpoint points the transcriber at a different API URL.
func (b *baseTranscriber) SetEndpoint(url string) { b.apiURL = url }

func (b *baseTranscriber) Warm() { b.client.Warm(b.apiURL) }

// Providers in the order New picks them when none is named.
var providerKeys = []struct {
	name string
	env  string
}{
	{"openai", "OPENAI_API_KEY"},
	{"groq", "GROQ_API_KEY"},
	{"deepgram", "DEEPGRAM_API_KEY"},
}

// New builds the named provider, or the first one with an API key set in the
// environment when provider is empty.
func New(provider string) (Transcriber, error) {
	if provider == "" {
		for _, p := range providerKeys {
			if os.Getenv(p.env) != "" {
				provider = p.name
				break
			}
		}
		if provider == "" {
			return nil, fmt.Errorf("set OPENAI_API_KEY, GROQ_API_KEY or DEEPGRAM_API_KEY environment variable")
		}
	}

	for _, p := range providerKeys {
		if p.name != provider {
			continue
		}
		key := os.Getenv(p.env)
		if key == "" {
			return nil, fmt.Errorf("provider %s requires %s", provider, p.env)
		}
		switch provider {
		case "openai":
			return NewOpenAI(key), nil
		case "groq":
			return NewGroq(key), nil
		case "deepgram":
			return NewDeepgram(key), nil
		}
	}
	return nil, fmt.Errorf("unknown provider %q (want openai, groq or deepgram)", provider)
}
