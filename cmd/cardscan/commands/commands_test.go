package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardscan/cmd/cardscan/ui"
	"cardscan/pkg/ocr"
	"cardscan/process"
)

type fileEngine struct{}

func (fileEngine) Name() string { return "file" }

func (fileEngine) Recognize(_ context.Context, in ocr.Input) (string, error) {
	b, err := os.ReadFile(in.Path)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", ocr.ErrUnreadableImage
	}
	return string(b), nil
}

// run executes the CLI with a fake engine in a clean environment.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range []string{"CARDSCAN_CONFIG", "CARDSCAN_DIR", "CARDSCAN_OUTPUT", "CARDSCAN_WORKERS", "CARDSCAN_PREPROCESS", "CARDSCAN_IMAGE_TIMEOUT", "CARDSCAN_INCLUDE_FAILURES"} {
		t.Setenv(k, "")
	}
	var out, errOut bytes.Buffer
	prevOut, prevErr := ui.Out, ui.Err
	ui.Out, ui.Err = &out, &errOut
	t.Cleanup(func() { ui.Out, ui.Err = prevOut, prevErr })

	root := newRootCommand(&app{newEngine: func() ocr.Engine { return fileEngine{} }})
	root.SetArgs(append(args, "--quiet", "--no-color"))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func cardsDir(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jane.png"), []byte("Jane Doe\nCTO\nAcme Corp\n+1 555 123 4567\njane@acme.io\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), nil, 0o644))
	return dir
}

func TestExtractCommand(t *testing.T) {
	dir := cardsDir(t)
	out, err := run(t, "extract", dir)
	require.NoError(t, err)
	report := filepath.Join(dir, "extracted_contacts.txt")
	assert.Contains(t, out, "Extraction complete. Results saved to: "+report)

	b, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Equal(t, "--- Contact from jane.png ---\nName: Jane Doe\nJob Title: CTO\nCompany: Acme Corp\nPhone: +1 555 123 4567\nEmail: jane@acme.io\n\n", string(b))
}

func TestExtractCommandFlags(t *testing.T) {
	dir := cardsDir(t)
	target := filepath.Join(t.TempDir(), "all.txt")
	_, err := run(t, "extract", dir, "-o", target, "--include-failures", "-w", "3")
	require.NoError(t, err)
	b, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(b), "--- Contact from broken.jpg ---")
	assert.Contains(t, string(b), "Status: ocr-failed")
}

func TestExtractCommandUsesEnvDir(t *testing.T) {
	dir := cardsDir(t)
	t.Setenv("CARDSCAN_DIR", dir)
	t.Chdir(t.TempDir())
	root := newRootCommand(&app{newEngine: func() ocr.Engine { return fileEngine{} }})
	var out bytes.Buffer
	prev := ui.Out
	ui.Out = &out
	t.Cleanup(func() { ui.Out = prev })
	root.SetArgs([]string{"extract", "--quiet", "--format", "xlsx"})
	root.SetErr(&bytes.Buffer{})
	require.NoError(t, root.ExecuteContext(t.Context()))
	assert.FileExists(t, filepath.Join(dir, "extracted_contacts.xlsx"))
}

func TestExtractCommandErrors(t *testing.T) {
	_, err := run(t, "extract")
	assert.ErrorContains(t, err, "no directory given")

	_, err = run(t, "extract", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, process.ErrReadDir)

	_, err = run(t, "extract", cardsDir(t), "-o", filepath.Join(t.TempDir(), "no", "such", "out.txt"))
	assert.ErrorIs(t, err, process.ErrWriteReport)

	_, err = run(t, "extract", cardsDir(t), "--preprocess", "sepia")
	assert.Error(t, err)

	_, err = run(t, "extract", cardsDir(t), "--format", "csv")
	assert.Error(t, err)
}

func TestOCRCommand(t *testing.T) {
	dir := cardsDir(t)
	out, err := run(t, "ocr", filepath.Join(dir, "jane.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "Raw text")
	assert.Contains(t, out, "jane@acme.io")
	assert.Contains(t, out, "Job Title")

	out, err = run(t, "ocr", "--raw", filepath.Join(dir, "jane.png"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nCTO\nAcme Corp\n+1 555 123 4567\njane@acme.io\n\n", out)
}

func TestReportCommandNeedsDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	_, err := run(t, "report")
	assert.ErrorContains(t, err, "dsn is required")
}
