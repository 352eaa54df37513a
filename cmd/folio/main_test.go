package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/folio/internal/application/handlers"
	"github.com/ersonp/folio/internal/domain/errs"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *errs.Payload   `json:"error"`
}

// execute runs the CLI with args and decodes the printed envelope.
func execute(t *testing.T, args ...string) (envelope, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	var env envelope
	require.NoError(t, json.Unmarshal(out.Bytes(), &env), out.String())
	return env, err
}

func mustSucceed(t *testing.T, args ...string) json.RawMessage {
	t.Helper()
	env, err := execute(t, args...)
	require.NoError(t, err)
	require.Equal(t, handlers.StatusOK, env.Status, "%+v", env.Error)
	return env.Data
}

func TestCLI_PageLifecycle(t *testing.T) {
	t.Chdir(t.TempDir())

	mustSucceed(t, "init")
	mustSucceed(t, "sites", "create", "travel", "-d", "Cities")

	var created struct {
		ID    string `json:"id"`
		RevID string `json:"rev_id"`
	}
	data := mustSucceed(t, "page", "create", "--site", "travel",
		"--input", `{"slug":"lisbon","title":{"en":"Lisbon"},"body":{"en":"# Intro\nHello\n## History\nOld text\n"},"original_language":"en"}`,
		"-m", "create", "--actor", "alice")
	require.NoError(t, json.Unmarshal(data, &created))
	require.NotEmpty(t, created.RevID)

	var edited handlers.EditResult
	data = mustSucceed(t, "page", "rewrite-section", "lisbon", "--site", "travel",
		"--lang", "en", "--heading", "History", "--content", "New text",
		"--expected-rev", created.RevID, "-m", "rewrite history")
	require.NoError(t, json.Unmarshal(data, &edited))
	assert.Equal(t, "# Intro\nHello\n## History\nNew text\n", edited.Body)

	var history handlers.HistoryResult
	data = mustSucceed(t, "page", "history", "Lisbon", "--site", "travel")
	require.NoError(t, json.Unmarshal(data, &history))
	require.Len(t, history.Revisions, 2)
	assert.Equal(t, edited.RevID, history.Revisions[0].RevID)

	env, err := execute(t, "page", "rewrite-section", "lisbon", "--site", "travel",
		"--lang", "en", "--heading", "History", "--content", "Stale",
		"--expected-rev", created.RevID, "-m", "stale")
	assert.ErrorIs(t, err, errReported)
	require.NotNil(t, env.Error)
	assert.Equal(t, errs.PreconditionFailed, env.Error.Kind)

	env, _ = execute(t, "page", "delete", "lisbon", "--site", "travel", "-m", "remove")
	require.NotNil(t, env.Error)
	assert.Equal(t, errs.Forbidden, env.Error.Kind)

	mustSucceed(t, "page", "delete", "lisbon", "--site", "travel", "-m", "remove", "--admin")
	env, _ = execute(t, "page", "show", "lisbon", "--site", "travel")
	require.NotNil(t, env.Error)
	assert.Equal(t, errs.NotFound, env.Error.Kind)

	var entries []map[string]any
	data = mustSucceed(t, "log", "revision.update", "--site", "travel")
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Len(t, entries, 1)
}

func TestCLI_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	env, err := execute(t, "page", "list", "--site", "travel")
	assert.ErrorIs(t, err, errReported)
	require.NotNil(t, env.Error)
	assert.Equal(t, errs.InvalidRequest, env.Error.Kind)

	mustSucceed(t, "init")

	env, _ = execute(t, "init")
	assert.Equal(t, errs.Conflict, env.Error.Kind)

	env, _ = execute(t, "page", "list")
	assert.Equal(t, errs.InvalidRequest, env.Error.Kind)

	env, _ = execute(t, "page", "list", "--site", "missing")
	assert.Equal(t, errs.NotFound, env.Error.Kind)

	env, _ = execute(t, "search", "lisbon")
	assert.Equal(t, errs.InvalidRequest, env.Error.Kind)
}

func TestCLI_Kinds(t *testing.T) {
	var kinds []map[string]any
	require.NoError(t, json.Unmarshal(mustSucceed(t, "kinds"), &kinds))
	assert.Len(t, kinds, 5)
}
