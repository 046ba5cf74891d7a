package backend

// SpeechRequest represents the request body for the speech synthesis API.
// The response is a raw audio byte stream, not JSON.
type SpeechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}
