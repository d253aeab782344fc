package rescan

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardscan/internal/testdb"
	"cardscan/models"
	"cardscan/pkg/contact"
	"cardscan/pkg/ocr"
	"cardscan/process"
)

type fixedText struct{ text string }

func (f fixedText) Extract(_ context.Context, path string) ocr.Result {
	if f.text == "" {
		return ocr.Result{Path: path, Status: ocr.StatusEmpty}
	}
	return ocr.Result{Path: path, Text: f.text, Status: ocr.StatusOK}
}

func TestRunRecoversFailedCards(t *testing.T) {
	store, err := process.OpenStore(testdb.DSN(t), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	img := filepath.Join(t.TempDir(), "retry.png")
	require.NoError(t, os.WriteFile(img, []byte("x"), 0o644))
	card := models.Card{FileName: "retry.png", StorePath: img, Status: string(ocr.StatusFailed), FailedReason: "boom"}
	require.NoError(t, store.SaveCard(t.Context(), &card, nil))
	gone := models.Card{FileName: "gone.png", StorePath: filepath.Join(t.TempDir(), "gone.png"), Status: string(ocr.StatusEmpty)}
	require.NoError(t, store.SaveCard(t.Context(), &gone, nil))

	var out bytes.Buffer
	sum, err := Run(t.Context(), store, fixedText{text: "Ann Lee\nCFO\nUmbrella\n"}, contact.Default, Options{Out: &out})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sum.Recovered, 1)
	assert.GreaterOrEqual(t, sum.Missing, 1)
	assert.Contains(t, out.String(), "file=retry.png status=ocr-failed->ok")

	var got models.Card
	require.NoError(t, store.DB.Preload("Contact").First(&got, card.ID).Error)
	assert.Equal(t, string(ocr.StatusOK), got.Status)
	assert.Empty(t, got.FailedReason)
	require.NotNil(t, got.Contact)
	assert.Equal(t, "Ann Lee", got.Contact.Name)
}
