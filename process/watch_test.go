package process

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardscan/pkg/config"
)

func TestWatchRebuildsReport(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"b.png": "Bob\nSales\nInitech\n"})
	report := filepath.Join(dir, config.DefaultOutput)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, options(dir, &fileEngine{})) }()

	contains := func(s string) func() bool {
		return func() bool {
			b, err := os.ReadFile(report)
			return err == nil && strings.Contains(string(b), s)
		}
	}
	require.Eventually(t, contains("--- Contact from b.png ---"), 5*time.Second, 50*time.Millisecond)

	writeFiles(t, dir, map[string]string{"a.jpg": "Alice\nCEO\nHooli\nalice@hooli.com\n"})
	require.Eventually(t, contains("--- Contact from a.jpg ---"), 5*time.Second, 50*time.Millisecond)

	b, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Less(t, strings.Index(string(b), "a.jpg"), strings.Index(string(b), "b.png"), "report stays sorted")
	assert.Contains(t, string(b), "Email: alice@hooli.com")

	require.NoError(t, os.Remove(filepath.Join(dir, "b.png")))
	require.Eventually(t, func() bool { return !contains("b.png")() && contains("a.jpg")() }, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchUnreadableDirectory(t *testing.T) {
	err := Watch(t.Context(), options(filepath.Join(t.TempDir(), "nope"), &fileEngine{}))
	assert.ErrorIs(t, err, ErrReadDir)
}
