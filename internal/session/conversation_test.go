package session

import "testing"

func TestConversationStartsWithSystemMessage(t *testing.T) {
	c := NewConversation("be brief")

	if got := c.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	msgs := c.Snapshot()
	if msgs[0].Role != "system" {
		t.Errorf("first message role = %q, want system", msgs[0].Role)
	}
	if msgs[0].Text() != "be brief" {
		t.Errorf("system text = %q", msgs[0].Text())
	}
}

func TestConversationLengthAfterTurns(t *testing.T) {
	c := NewConversation("sys")

	for n := 1; n <= 3; n++ {
		c.AppendTurn(
			UserMessage("question", "data:image/png;base64,AA=="),
			TextMessage("assistant", "answer"),
		)
		if got, want := c.Len(), 1+2*n; got != want {
			t.Errorf("after %d turns Len() = %d, want %d", n, got, want)
		}
	}
}

func TestConversationNoDeduplication(t *testing.T) {
	c := NewConversation("sys")

	// Identical questions with the identical image are still distinct turns.
	for i := 0; i < 2; i++ {
		c.AppendTurn(
			UserMessage("same question", "data:image/png;base64,AA=="),
			TextMessage("assistant", "same answer"),
		)
	}

	if got := c.Len(); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}
	msgs := c.Snapshot()
	if msgs[1].Text() != msgs[3].Text() {
		t.Error("expected two identical user turns to both be present")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewConversation("sys")
	snap := c.Snapshot()
	snap = append(snap, TextMessage("user", "not appended"))
	_ = snap

	if got := c.Len(); got != 1 {
		t.Errorf("extending a snapshot mutated the conversation: Len() = %d", got)
	}
}

func TestUserMessageShape(t *testing.T) {
	m := UserMessage("what is this", "data:image/png;base64,AA==")

	if m.Role != "user" {
		t.Errorf("role = %q", m.Role)
	}
	if len(m.Parts) != 2 {
		t.Fatalf("parts = %d, want 2", len(m.Parts))
	}
	if m.Parts[0].Type != "text" || m.Parts[0].Text != "what is this" {
		t.Errorf("text part = %+v", m.Parts[0])
	}
	if m.Parts[1].Type != "image_url" || m.Parts[1].ImageURL == nil || m.Parts[1].ImageURL.URL != "data:image/png;base64,AA==" {
		t.Errorf("image part = %+v", m.Parts[1])
	}
}
