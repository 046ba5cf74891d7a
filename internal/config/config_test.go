package config

import "testing"

func TestServiceURLDefaults(t *testing.T) {
	var cfg Config
	chat, transcription, speech := cfg.ServiceURLs()

	if chat != DefaultChatURL {
		t.Errorf("chat = %q", chat)
	}
	if transcription != DefaultTranscriptionURL {
		t.Errorf("transcription = %q", transcription)
	}
	if speech != DefaultSpeechURL {
		t.Errorf("speech = %q", speech)
	}
}

func TestServiceURLOverrides(t *testing.T) {
	cfg := Config{ChatURL: "http://localhost:1/chat"}
	chat, transcription, speech := cfg.ServiceURLs()

	if chat != "http://localhost:1/chat" {
		t.Errorf("chat = %q", chat)
	}
	if transcription != DefaultTranscriptionURL || speech != DefaultSpeechURL {
		t.Errorf("unset endpoints should keep defaults: %q %q", transcription, speech)
	}
}
