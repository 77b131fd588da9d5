package weave

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNopLoggerDiscardsEverything(t *testing.T) {
	var l Logger = NopLogger{}
	assert.NotPanics(t, func() {
		l.Debug("d")
		l.Info("i", "k", "v")
		l.Warn("w")
		l.Error("e")
	})
}

func TestSlogLoggerFromWritesThroughGivenHandler(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	l := NewSlogLoggerFrom(base)

	l.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNewSlogLoggerReturnsUsableLogger(t *testing.T) {
	l := NewSlogLogger()
	assert.NotNil(t, l)
}
