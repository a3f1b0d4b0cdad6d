package export

import (
	"github.com/iksnae/modular-chat/internal/chat"
)

// 2024-05-01T12:00:00.000Z
const baseMillis = int64(1714564800000)

func testTranscript(id string) *chat.Transcript {
	return &chat.Transcript{
		Session: chat.Session{ID: id, Title: "Weekly plan"},
		Messages: []chat.Message{
			{Role: chat.RoleUser, Text: "Hello, what can you do?", Meta: "You", Timestamp: baseMillis},
			{Role: chat.RoleAgent, Text: "I can **search** documents.", Meta: "Steps: 2", Timestamp: baseMillis + 1500},
		},
	}
}

func emptyTranscript(id string) *chat.Transcript {
	return &chat.Transcript{Session: chat.Session{ID: id, Title: "New chat"}, Messages: []chat.Message{}}
}
