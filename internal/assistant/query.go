package assistant

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ScreenPilot/internal/backend"
	"ScreenPilot/internal/config"
	"ScreenPilot/internal/session"

	"go.opentelemetry.io/otel/metric"
)

// ErrNoAnswer is the sentinel for a failed multimodal query: service error,
// network error or malformed response. The conversation is left unmodified
// for that turn so the context stays consistent with what the model has
// actually seen.
var ErrNoAnswer = errors.New("no answer from vision service")

// query sends the screenshot artifact and question to the multimodal model
// with the full conversation context. On success the completed user and
// assistant turns are appended atomically and the answer is returned.
func (a *Assistant) query(ctx context.Context, sess *session.Session, question string) (string, error) {
	ctx, span := a.tracer.Start(ctx, "vision_api_call")
	defer span.End()

	start := time.Now()

	img, err := os.ReadFile(sess.ScreenshotPath())
	if err != nil {
		return "", fmt.Errorf("%w: failed to read screenshot artifact: %v", ErrNoAnswer, err)
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(img)

	userMsg := session.UserMessage(question, dataURL)
	messages := append(a.conversation.Snapshot(), userMsg)

	reqBody := backend.VisionRequest{
		Model:     config.VisionModel,
		MaxTokens: config.VisionMaxTokens,
		Messages:  messages,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.chatURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.settings.APIKey())
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoAnswer, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrNoAnswer, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API error: %s - %s", ErrNoAnswer, resp.Status, string(body))
	}

	var apiResp backend.VisionResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("%w: failed to unmarshal response: %v", ErrNoAnswer, err)
	}

	duration := time.Since(start)
	histogram, err := a.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err == nil {
		histogram.Record(ctx, float64(duration.Milliseconds()))
	}

	a.recordUsage(ctx, apiResp.Usage)

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrNoAnswer)
	}
	content := apiResp.Choices[0].Message.Content

	a.conversation.AppendTurn(userMsg, session.TextMessage("assistant", content))
	return content, nil
}

// synthesizeAndPlay streams synthesized speech for answerText to the
// session's answer file and launches platform playback. Failures here only
// suppress audio: the textual answer has already been delivered, so
// everything is logged and nothing is surfaced.
func (a *Assistant) synthesizeAndPlay(ctx context.Context, sess *session.Session, answerText string) {
	ctx, span := a.tracer.Start(ctx, "speech_api_call")
	defer span.End()

	reqBody := backend.SpeechRequest{
		Model:          config.SpeechModel,
		Input:          answerText,
		Voice:          config.SpeechVoice,
		ResponseFormat: "mp3",
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		a.logger.Error("failed to marshal speech request", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.speechURL, bytes.NewBuffer(jsonData))
	if err != nil {
		a.logger.Error("failed to create speech request", "error", err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.settings.APIKey())
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("speech synthesis request failed", "session", sess.ID, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		a.logger.Error("speech synthesis error", "session", sess.ID, "status", resp.Status, "body", string(body))
		return
	}

	// Stream the audio to disk as it arrives.
	f, err := os.Create(sess.AnswerAudioPath())
	if err != nil {
		a.logger.Error("failed to create answer audio file", "session", sess.ID, "error", err)
		return
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		a.logger.Error("failed to stream answer audio", "session", sess.ID, "error", err)
		return
	}
	if err := f.Close(); err != nil {
		a.logger.Error("failed to close answer audio file", "session", sess.ID, "error", err)
		return
	}

	a.setState(sess, session.StatePlaying)
	if a.player == nil {
		return
	}
	path := sess.AnswerAudioPath()
	go func() {
		if err := a.player.Play(context.Background(), path); err != nil {
			a.logger.Error("failed to play answer audio", "session", sess.ID, "error", err)
		}
	}()
}

// recordUsage turns the service's usage block into counters.
func (a *Assistant) recordUsage(ctx context.Context, usage map[string]interface{}) {
	if usage == nil {
		return
	}

	for key, value := range usage {
		if intVal, ok := value.(float64); ok {
			counter, err := a.meter.Int64Counter(
				fmt.Sprintf("llm.usage.%s", key),
				metric.WithDescription(fmt.Sprintf("LLM usage metric: %s", key)),
			)
			if err != nil {
				a.logger.Warn("failed to create counter", "key", key, "error", err)
				continue
			}
			counter.Add(ctx, int64(intVal))
		}
	}
}
