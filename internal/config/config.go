package config

const (
	InputVoice = "voice"
	InputText  = "text"
)

// Fixed identifiers for the hosted services.
const (
	VisionModel        = "gpt-4-vision-preview"
	VisionMaxTokens    = 850
	TranscriptionModel = "whisper-1"
	SpeechModel        = "tts-1"
	SpeechVoice        = "echo"
)

// Default endpoints; tests point these at httptest servers.
const (
	DefaultChatURL          = "https://api.openai.com/v1/chat/completions"
	DefaultTranscriptionURL = "https://api.openai.com/v1/audio/transcriptions"
	DefaultSpeechURL        = "https://api.openai.com/v1/audio/speech"
)

// SystemPrompt is the fixed leading instruction of every conversation.
const SystemPrompt = "You are helping users with questions about their applications based on screenshots, always answer in at most one sentence."

// Config holds application configuration
type Config struct {
	ShellCommand string // path to the UI shell binary (stdio transport)
	ShellURL     string // websocket URL of an already-running UI shell
	Debug        bool

	ChatURL          string
	TranscriptionURL string
	SpeechURL        string
}

// ServiceURLs returns the three service endpoints, filling in defaults
// for any left empty.
func (c *Config) ServiceURLs() (chat, transcription, speech string) {
	chat, transcription, speech = c.ChatURL, c.TranscriptionURL, c.SpeechURL
	if chat == "" {
		chat = DefaultChatURL
	}
	if transcription == "" {
		transcription = DefaultTranscriptionURL
	}
	if speech == "" {
		speech = DefaultSpeechURL
	}
	return chat, transcription, speech
}
