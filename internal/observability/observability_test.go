package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogging(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var buf bytes.Buffer
	SetupLogging("production", &buf)
	Log.Info("user online", "user_id", "u1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "user online", line["msg"])
	assert.Equal(t, "u1", line["user_id"])

	buf.Reset()
	SetupLogging("development", &buf)
	Log.Debug("verbose")
	assert.Contains(t, buf.String(), "msg=verbose")
}

func TestTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(false)
	require.NoError(t, err)

	span, ctx := NewSpan(context.Background(), "test")
	assert.NotNil(t, ctx)
	span.SetError(errors.New("boom"))
	span.SetError(nil)
	span.End()

	assert.NoError(t, shutdown(context.Background()))
}
