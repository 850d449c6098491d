package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := zlog
	zlog = zerolog.New(&buf)
	t.Cleanup(func() { zlog = prev })
	return &buf
}

func TestWithSubject(t *testing.T) {
	buf := captureLogs(t)

	WithSubject("page", 12).Info().Msg("content created")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "page", line["subject_type"])
	assert.EqualValues(t, 12, line["subject_id"])
	assert.Equal(t, "content created", line["message"])
}

func TestWithRequestID(t *testing.T) {
	buf := captureLogs(t)

	WithRequestID("ab12cd34").Error().Str("path", "/x").Msg("request failed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ab12cd34", line["request_id"])
	assert.Equal(t, "error", line["level"])
}
