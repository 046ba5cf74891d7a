package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"ScreenPilot/internal/config"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ErrTranscription is returned when the transcription service fails or
// returns an empty result. Terminal for the session.
var ErrTranscription = errors.New("transcription failed")

// Credentials supplies the bearer token for the hosted services. The
// pipeline asks for it at the start of every cycle so mid-run key changes
// are picked up.
type Credentials interface {
	Load() error
	APIKey() string
}

// Pipeline turns a raw microphone buffer into transcribed question text:
// persist, transcode, clean up, transcribe. Each stage fails independently
// and no stage retries.
type Pipeline struct {
	transcoder Transcoder
	creds      Credentials
	httpClient *http.Client
	url        string
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
}

// NewPipeline creates an audio input pipeline posting to the given
// transcription endpoint.
func NewPipeline(transcoder Transcoder, creds Credentials, httpClient *http.Client, url string, logger *slog.Logger, tracer trace.Tracer, meter metric.Meter) *Pipeline {
	return &Pipeline{
		transcoder: transcoder,
		creds:      creds,
		httpClient: httpClient,
		url:        url,
		logger:     logger,
		tracer:     tracer,
		meter:      meter,
	}
}

// Process runs the full record-to-text sequence for one session. rawPath and
// mp3Path are the session's transient buffer and transcoded upload paths.
func (p *Pipeline) Process(ctx context.Context, raw []byte, rawPath, mp3Path string) (string, error) {
	// Pick up key changes made since the previous cycle.
	if err := p.creds.Load(); err != nil {
		p.logger.Warn("failed to reload credentials, using cached key", "error", err)
	}

	if err := os.WriteFile(rawPath, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to save microphone buffer: %w", err)
	}

	if err := p.transcoder.Transcode(ctx, rawPath, mp3Path); err != nil {
		return "", err
	}

	// The raw buffer is only needed for transcoding; deletion failure is
	// logged, not escalated.
	if err := os.Remove(rawPath); err != nil {
		p.logger.Warn("failed to delete microphone buffer", "path", rawPath, "error", err)
	}

	text, err := p.transcribe(ctx, mp3Path)
	if err != nil {
		return "", err
	}
	return text, nil
}

// transcribe uploads the MP3 as an authenticated multipart form and expects
// a plain-text body back.
func (p *Pipeline) transcribe(ctx context.Context, mp3Path string) (string, error) {
	ctx, span := p.tracer.Start(ctx, "transcription_api_call")
	defer span.End()

	start := time.Now()

	f, err := os.Open(mp3Path)
	if err != nil {
		return "", fmt.Errorf("failed to open audio upload: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", "audio-input.mp3")
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to copy audio into form: %w", err)
	}
	form.WriteField("model", config.TranscriptionModel)
	form.WriteField("response_format", "text")
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.creds.APIKey())
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrTranscription, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API error: %s - %s", ErrTranscription, resp.Status, string(respBody))
	}

	duration := time.Since(start)
	histogram, err := p.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err == nil {
		histogram.Record(ctx, float64(duration.Milliseconds()))
	}

	text := strings.TrimSpace(string(respBody))
	if text == "" {
		return "", fmt.Errorf("%w: empty transcription", ErrTranscription)
	}

	p.logger.Info("transcribed recording", "chars", len(text))
	return text, nil
}
