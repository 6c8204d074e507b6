package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liszten/kpiComp/pkg/config"
)

func newBufferLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewWithWriter(&buf, &config.Config{Env: "development", LogLevel: level, LogFormat: "json"}), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" DEBUG ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNewWithWriter_LevelIsPerLogger(t *testing.T) {
	quiet, quietBuf := newBufferLogger(t, "warn")
	loud, loudBuf := newBufferLogger(t, "debug")

	quiet.Info("Sector peers cached")
	loud.Debug("Sector peers cached")

	assert.Zero(t, quietBuf.Len(), "info is below warn")
	entry := decodeLine(t, loudBuf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "kpicomp", entry["service"])
	assert.Equal(t, "development", entry["env"])
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Config{LogLevel: "info", LogFormat: "console"})

	log.WithTicker("AAPL").Info("Analysis completed")

	out := buf.String()
	assert.Contains(t, out, "Analysis completed")
	assert.Contains(t, out, "AAPL")
	assert.False(t, strings.HasPrefix(out, "{"), "console output is not JSON")
}

func TestPipelineFields(t *testing.T) {
	log, buf := newBufferLogger(t, "debug")

	log.WithTicker("AAPL").
		WithSector("Technology").
		WithPeer("MSFT").
		WithDuration(1500 * time.Millisecond).
		WithError(errors.New("unexpected status code: 502")).
		Warn("Skipping peer")

	entry := decodeLine(t, buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Skipping peer", entry["message"])
	assert.Equal(t, "AAPL", entry[FieldTicker])
	assert.Equal(t, "Technology", entry[FieldSector])
	assert.Equal(t, "MSFT", entry[FieldPeer])
	assert.Equal(t, float64(1500), entry[FieldDuration])
	assert.Equal(t, "unexpected status code: 502", entry["error"])
}

func TestWithJob(t *testing.T) {
	log, buf := newBufferLogger(t, "info")

	log.WithJob("sector_warmup").WithFields(map[string]interface{}{
		"sectors": 11,
		"failed":  0,
	}).Info("Sector warmup completed")

	entry := decodeLine(t, buf)
	assert.Equal(t, "sector_warmup", entry[FieldJob])
	assert.Equal(t, float64(11), entry["sectors"])
	assert.Equal(t, float64(0), entry["failed"])
}

func TestWithField_DoesNotMutateParent(t *testing.T) {
	log, buf := newBufferLogger(t, "info")

	_ = log.WithField("sector", "Energy")
	log.Info("Universe refreshed")

	entry := decodeLine(t, buf)
	assert.NotContains(t, entry, "sector")
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() {
		log.WithPeer("XOM").WithError(errors.New("x")).Error("discarded")
	})
}
