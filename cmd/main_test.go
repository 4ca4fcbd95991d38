package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Leganyst/ordering-platform/internal/logging"
)

func TestAnnounceAdmin_PasswordStaysOutOfLogs(t *testing.T) {
	var logs, console bytes.Buffer
	logging.Init(logging.Config{Level: "info", Format: "json", Output: &logs})
	t.Cleanup(func() { logging.Init(logging.Config{}) })

	announceAdmin(&console, "Xy7pQ2mZ")

	assert.Contains(t, console.String(), "Xy7pQ2mZ")
	assert.Contains(t, logs.String(), "admin user created")
	assert.NotContains(t, logs.String(), "Xy7pQ2mZ")
}
