package transcriber

type SessionConfig struct {
	Format     string // "wav" or "flac"
	Language   string
	SampleRate int
}

type BatchStats struct {
	AudioLengthS     float64
	RawSizeKB        float64
	CompressedSizeKB float64
	CompressionPct   float64
	EncodeTimeMs     float64
	DNSTimeMs        float64
	ConnectTimeMs    float64
	TLSTimeMs        float64
	TTFBMs           float64
	TotalTimeMs      float64
	ConnReused       bool
	TLSProtocol      string
	Confidence       float64
}

type SessionResult struct {
	Text      string
	HasText   bool
	NoSpeech  bool
	RateLimit string // "remaining/limit" or empty
	Batch     *BatchStats
	Metrics   []string // pre-formatted lines for the TUI
}

// Session collects the PCM of one utterance. Close encodes the tail, uploads
// and returns the transcript. Feed must not be called after Close.
type Session interface {
	Feed(pcm []int16)
	Close() (SessionResult, error)
}
