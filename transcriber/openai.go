package transcriber

import "context"

const (
	openAIURL          = "https://api.openai.com/v1/audio/transcriptions"
	DefaultOpenAIModel = "gpt-4o-mini-transcribe"
)

type OpenAI struct {
	baseTranscriber
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient(),
			apiURL: openAIURL,
			apiKey: apiKey,
			model:  DefaultOpenAIModel,
		},
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	if cfg.Language != "" {
		o.SetLanguage(cfg.Language)
	}
	return newBatchSession(ctx, cfg, o.transcribe)
}

// The gpt-4o transcribe models only answer with plain json; there are no
// segments to judge speech probability from.
func (o *OpenAI) transcribe(ctx context.Context, audioData []byte, format, _ string) (*Result, error) {
	resp, err := o.postAudioForm(ctx, audioData, format, formField{"response_format", "json"})
	if err != nil {
		return nil, err
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := decodeResponse("openai", resp, &body); err != nil {
		return nil, err
	}

	return &Result{
		Text:      body.Text,
		Metrics:   resp.Metrics,
		RateLimit: rateLimit(resp.Header, requestRemaining, requestLimit),
	}, nil
}
