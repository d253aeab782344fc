package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardscan/internal/testdb"
	"cardscan/models"
	"cardscan/pkg/ocr"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(testdb.DSN(t), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreSaveRun(t *testing.T) {
	s := openTestStore(t)
	dir := sampleDir(t)
	opts := options(dir, &fileEngine{})
	opts.Store = s

	sum, err := Run(t.Context(), opts)
	require.NoError(t, err)

	var run models.ScanRun
	require.NoError(t, s.DB.Preload("Cards.Contact").Where("run_id = ?", sum.RunID).First(&run).Error)
	assert.Equal(t, 3, run.Processed)
	assert.Equal(t, 1, run.Failed)
	require.Len(t, run.Cards, 3)

	byName := map[string]models.Card{}
	for _, c := range run.Cards {
		byName[c.FileName] = c
	}
	jane := byName["b_card.jpg"]
	assert.Equal(t, string(ocr.StatusOK), jane.Status)
	require.NotNil(t, jane.Contact)
	assert.Equal(t, "Jane Doe", jane.Contact.Name)
	assert.Equal(t, "image/jpeg", jane.ContentType)

	broken := byName["broken.jpeg"]
	assert.Equal(t, string(ocr.StatusFailed), broken.Status)
	assert.NotEmpty(t, broken.FailedReason)
	assert.Nil(t, broken.Contact)
}
