package remote

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormgate/wormgate/errors"
)

func TestClientConfigMissingKey(t *testing.T) {
	e := NewSSHExecutor("/nonexistent/id_ed25519")

	_, err := e.clientConfig("root")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestClientConfigMalformedKey(t *testing.T) {
	dir := t.TempDir()
	keyPath := dir + "/id_ed25519"
	require.NoError(t, writeFile(keyPath, "not a key"))

	e := NewSSHExecutor(keyPath)
	_, err := e.clientConfig("root")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestExecuteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewSSHExecutor("/nonexistent/id_ed25519")
	err := e.Execute(ctx, "root", "203.0.113.7", 22, "true")

	require.Error(t, err)
	assert.Equal(t, errors.ErrTransport, errors.GetCode(err))
}

func TestLogWriterSplitsLines(t *testing.T) {
	var buf bytes.Buffer
	old := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(old)

	w := newLogWriter("[REMOTE test]")
	_, err := w.Write([]byte("first\nsec"))
	require.NoError(t, err)
	_, err = w.Write([]byte("ond\n"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[REMOTE test] first")
	assert.Contains(t, out, "[REMOTE test] second")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
