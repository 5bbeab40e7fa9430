package transcriber

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
)

const (
	deepgramURL          = "https://api.deepgram.com/v1/listen"
	DefaultDeepgramModel = "nova-3"
)

type Deepgram struct {
	baseTranscriber
}

func NewDeepgram(apiKey string) *Deepgram {
	return &Deepgram{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient(),
			apiURL: deepgramURL,
			apiKey: apiKey,
			model:  DefaultDeepgramModel,
		},
	}
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	if cfg.Language != "" {
		d.SetLanguage(cfg.Language)
	}
	return newBatchSession(ctx, cfg, d.transcribe)
}

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
		Channels int     `json:"channels"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *Deepgram) requestURL() (string, error) {
	u, err := url.Parse(d.apiURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", d.model)
	q.Set("smart_format", "true")
	if d.lang != "" {
		q.Set("language", d.lang)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (d *Deepgram) transcribe(ctx context.Context, audioData []byte, _, contentType string) (*Result, error) {
	reqURL, err := d.requestURL()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(audioData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}

	var body deepgramResponse
	if err := decodeResponse("deepgram", resp, &body); err != nil {
		return nil, err
	}

	result := &Result{
		Metrics: resp.Metrics,
		RateLimit: rateLimit(resp.Header,
			[]string{"x-dg-ratelimit-remaining", "x-ratelimit-remaining", "ratelimit-remaining"},
			[]string{"x-dg-ratelimit-limit", "x-ratelimit-limit", "ratelimit-limit"}),
		Duration: body.Metadata.Duration,
	}
	if ch := body.Results.Channels; len(ch) > 0 && len(ch[0].Alternatives) > 0 {
		alt := ch[0].Alternatives[0]
		result.Text = alt.Transcript
		result.Confidence = alt.Confidence
	}
	return result, nil
}
