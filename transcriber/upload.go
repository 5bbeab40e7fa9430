package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
)

type formField struct{ name, value string }

// postAudioForm uploads audio as the "file" part of an OpenAI-style
// multipart transcription request.
func (b *baseTranscriber) postAudioForm(ctx context.Context, audioData []byte, format string, fields ...formField) (*TracedResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+format)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, err
	}

	fields = append([]formField{{"model", b.model}}, fields...)
	if b.lang != "" {
		fields = append(fields, formField{"language", b.lang})
	}
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return b.client.Do(req)
}

// decodeResponse checks the status and unmarshals the JSON body into v.
func decodeResponse(provider string, resp *TracedResponse, v any) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s API error %d: %s", provider, resp.StatusCode, string(resp.Body))
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("%s response parse error: %w", provider, err)
	}
	return nil
}

// rateLimit formats the first matching remaining/limit header pair as
// "remaining/limit", or "" when the provider sent neither.
func rateLimit(h http.Header, remainingKeys, limitKeys []string) string {
	remaining := firstNonEmpty(h, remainingKeys...)
	limit := firstNonEmpty(h, limitKeys...)
	if remaining == "?" && limit == "?" {
		return ""
	}
	return remaining + "/" + limit
}

var (
	requestRemaining = []string{"x-ratelimit-remaining-requests"}
	requestLimit     = []string{"x-ratelimit-limit-requests"}
)
