package gmailclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("rosters@example.com", "w2@example.com", "Shift assigned", "Hi")

	assert.Equal(t,
		"From: rosters@example.com\r\nTo: w2@example.com\r\nSubject: Shift assigned\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\nHi",
		msg)
}

func TestBuildMessage_NoSender(t *testing.T) {
	msg := buildMessage("", "w2@example.com", "Subject", "Body")

	assert.NotContains(t, msg, "From:")
	assert.Contains(t, msg, "To: w2@example.com\r\n")
}
