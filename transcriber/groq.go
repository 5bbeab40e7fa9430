package transcriber

import "context"

const (
	groqURL          = "https://api.groq.com/openai/v1/audio/transcriptions"
	DefaultGroqModel = "whisper-large-v3-turbo"

	// Whisper's own decoding heuristic: a segment is silence when it is
	// likely no-speech and the decoder was not confident either.
	noSpeechProbCutoff = 0.6
	avgLogProbCutoff   = -1.0
)

type Groq struct {
	baseTranscriber
}

func NewGroq(apiKey string) *Groq {
	return &Groq{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient(),
			apiURL: groqURL,
			apiKey: apiKey,
			model:  DefaultGroqModel,
		},
	}
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	if cfg.Language != "" {
		g.SetLanguage(cfg.Language)
	}
	return newBatchSession(ctx, cfg, g.transcribe)
}

type whisperSegment struct {
	Text             string  `json:"text"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
	AvgLogProb       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	Temperature      float64 `json:"temperature"`
}

type verboseResponse struct {
	Text     string           `json:"text"`
	Duration float64          `json:"duration"`
	Segments []whisperSegment `json:"segments"`
}

func (g *Groq) transcribe(ctx context.Context, audioData []byte, format, _ string) (*Result, error) {
	resp, err := g.postAudioForm(ctx, audioData, format, formField{"response_format", "verbose_json"})
	if err != nil {
		return nil, err
	}

	var body verboseResponse
	if err := decodeResponse("groq", resp, &body); err != nil {
		return nil, err
	}

	result := &Result{
		Text:      body.Text,
		Metrics:   resp.Metrics,
		RateLimit: rateLimit(resp.Header, requestRemaining, requestLimit),
		Duration:  body.Duration,
	}
	if len(body.Segments) == 0 {
		return result, nil
	}

	var logProbSum float64
	silent := true
	for _, seg := range body.Segments {
		result.NoSpeechProb = max(result.NoSpeechProb, seg.NoSpeechProb)
		logProbSum += seg.AvgLogProb
		if seg.NoSpeechProb <= noSpeechProbCutoff || seg.AvgLogProb >= avgLogProbCutoff {
			silent = false
		}
		result.Segments = append(result.Segments, Segment(seg))
	}
	result.AvgLogProb = logProbSum / float64(len(body.Segments))
	// Whisper tends to hallucinate short phrases over noise; drop them.
	result.NoSpeech = silent
	return result, nil
}
