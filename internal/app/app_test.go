package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"classifybot/internal/classify"
	"classifybot/internal/config"
	"classifybot/internal/domain"
	"classifybot/internal/feedback"
	"classifybot/internal/history"
	"classifybot/internal/integrations/llm"
	"classifybot/internal/knowledge"
	"classifybot/internal/storage"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelReply = `{"summary":"S","keywords":["a","b","c"],"predictions":[{"rank":1,"department":"Logistics","reason":"r"}]}`

func testOpener(t *testing.T, reply string) opener {
	t.Helper()
	dir := t.TempDir()
	return func(ctx context.Context, withModel bool) (*runtime, error) {
		backend, err := storage.NewFileBackend(dir)
		if err != nil {
			return nil, err
		}
		rt := &runtime{
			cfg: config.Config{
				LLMProvider:  "ollama",
				LLMModel:     "llama3.1",
				StoreBackend: "file",
				DataDir:      dir,
			},
			backend:  backend,
			history:  history.NewStore(backend),
			feedback: feedback.NewStore(backend),
		}
		completer := llm.CompleterFunc(func(context.Context, string) (string, error) { return reply, nil })
		rt.service = classify.NewService(completer, knowledge.Base{Departments: "Logistics"}, rt.feedback, rt.history)
		return rt, nil
	}
}

func run(t *testing.T, open opener, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, open)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestClassifyCorrectHistoryFlow(t *testing.T) {
	open := testOpener(t, modelReply)

	out, err := run(t, open, "", "classify", "Request X")
	require.NoError(t, err)
	var res classify.Result
	require.NoError(t, sonic.ConfigStd.UnmarshalFromString(out, &res))
	assert.Equal(t, "Logistics", res.Prediction.Predictions[0].Department)
	require.NotEmpty(t, res.HistoryID)

	_, err = run(t, open, "", "correct", "--id", res.HistoryID, "--department", "Operations")
	require.NoError(t, err)

	_, err = run(t, open, "", "keywords", "--id", res.HistoryID, "--keyword", "drone", "-k", "budget, 2024")
	require.NoError(t, err)

	out, err = run(t, open, "", "history", "list")
	require.NoError(t, err)
	var records []domain.ClassificationRecord
	require.NoError(t, sonic.ConfigStd.UnmarshalFromString(out, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Operations", records[0].FinalDepartment)
	assert.Equal(t, []string{"drone", "budget, 2024"}, records[0].Keywords)

	out, err = run(t, open, "", "feedback", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"department": "Operations"`)
	assert.Contains(t, out, `"input": "Request X"`)
}

func TestClassifyReadsStdin(t *testing.T) {
	open := testOpener(t, modelReply)
	out, err := run(t, open, "Request from stdin\n", "classify")
	require.NoError(t, err)
	assert.Contains(t, out, `"history_id"`)

	out, err = run(t, open, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"input": "Request from stdin"`)
}

func TestClassifyReadsFile(t *testing.T) {
	open := testOpener(t, modelReply)
	path := filepath.Join(t.TempDir(), "request.txt")
	require.NoError(t, os.WriteFile(path, []byte("Request in file"), 0o644))

	_, err := run(t, open, "", "classify", "--file", path)
	require.NoError(t, err)

	_, err = run(t, open, "", "classify", "--file", path, "inline")
	require.Error(t, err)
}

func TestClassifyEmptyContentFails(t *testing.T) {
	_, err := run(t, testOpener(t, modelReply), "", "classify", "  ")
	assert.ErrorIs(t, err, classify.ErrEmptyContent)
}

func TestHistoryDeleteAndClear(t *testing.T) {
	open := testOpener(t, modelReply)
	var ids []string
	for _, in := range []string{"one", "two"} {
		out, err := run(t, open, "", "classify", in)
		require.NoError(t, err)
		var res classify.Result
		require.NoError(t, sonic.ConfigStd.UnmarshalFromString(out, &res))
		ids = append(ids, res.HistoryID)
	}

	_, err := run(t, open, "", "history", "delete", ids[0])
	require.NoError(t, err)
	out, err := run(t, open, "", "history", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, ids[0])
	assert.Contains(t, out, ids[1])

	_, err = run(t, open, "", "history", "clear")
	require.Error(t, err)

	_, err = run(t, open, "", "history", "clear", "--yes")
	require.NoError(t, err)
	out, err = run(t, open, "", "history", "list")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestCorrectRequiresDepartment(t *testing.T) {
	_, err := run(t, testOpener(t, modelReply), "", "correct", "--content", "Request X")
	assert.ErrorIs(t, err, classify.ErrDepartmentRequired)
}

func TestReviewDigestPrints(t *testing.T) {
	open := testOpener(t, "no structured answer")
	_, err := run(t, open, "", "classify", "Request Z")
	require.NoError(t, err)

	out, err := run(t, open, "", "review", "digest")
	require.NoError(t, err)
	assert.Contains(t, out, "1 classification(s) waiting for review")
	assert.Contains(t, out, "[needs-review] Request Z")

	_, err = run(t, open, "", "review", "digest", "--post")
	require.Error(t, err)
}

func TestOpenBackendUnknown(t *testing.T) {
	_, err := openBackend(context.Background(), config.Config{StoreBackend: "s3"})
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)
}

func TestOpenBackendSQLite(t *testing.T) {
	b, err := openBackend(context.Background(), config.Config{
		StoreBackend: "sqlite",
		DBPath:       filepath.Join(t.TempDir(), "classifybot.db"),
	})
	require.NoError(t, err)
	require.NoError(t, b.Close())
}

func TestRunDoctor(t *testing.T) {
	dir := t.TempDir()
	depts := filepath.Join(dir, "departments.txt")
	reg := filepath.Join(dir, "regulation.md")
	require.NoError(t, os.WriteFile(depts, []byte("Logistics"), 0o644))
	require.NoError(t, os.WriteFile(reg, []byte("Article 1"), 0o644))

	rt, err := testOpener(t, modelReply)(context.Background(), false)
	require.NoError(t, err)
	rt.cfg.DepartmentsPath = depts
	rt.cfg.RegulationPath = reg
	rt.cfg.LLMBaseURL = "http://localhost:11434"

	var out bytes.Buffer
	err = runDoctor(context.Background(), &out, rt, func(context.Context, string) ([]string, error) {
		return []string{"llama3.1:latest"}, nil
	})
	require.NoError(t, err, out.String())
	assert.Contains(t, out.String(), "[ok  ] model llama3.1 pulled")

	out.Reset()
	err = runDoctor(context.Background(), &out, rt, func(context.Context, string) ([]string, error) {
		return nil, errors.New("connection refused")
	})
	require.Error(t, err)
	assert.Contains(t, out.String(), "[FAIL] connection refused")
}

func TestHasModel(t *testing.T) {
	assert.True(t, hasModel([]string{"llama3.1:latest"}, "llama3.1"))
	assert.True(t, hasModel([]string{"llama3.1:8b"}, "llama3.1:8b"))
	assert.False(t, hasModel([]string{"mistral:latest"}, "llama3.1"))
}
