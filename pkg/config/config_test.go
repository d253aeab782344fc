package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CARDSCAN_CONFIG", "")
	for _, k := range []string{"CARDSCAN_DIR", "CARDSCAN_WORKERS", "CARDSCAN_LANG", "DB_DSN", "DB_AUTO_MIGRATE"} {
		t.Setenv(k, "")
	}
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, []string{"eng"}, cfg.Languages())
	assert.True(t, cfg.DBAutoMigrate)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	p := filepath.Join(dir, "cardscan.yaml")
	require.NoError(t, os.WriteFile(p, []byte("dir: /cards\nworkers: 3\nlanguage: eng+ind\ninclude_failures: true\nimage_timeout: 45s\n"), 0o644))

	t.Setenv("CARDSCAN_WORKERS", "8")
	t.Setenv("CARDSCAN_DIR", "")
	t.Setenv("DB_AUTO_MIGRATE", "no")
	t.Setenv("CARDSCAN_IMAGE_TIMEOUT", "")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/cards", cfg.Dir)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.IncludeFailures)
	assert.Equal(t, 45*time.Second, cfg.ImageTimeout)
	assert.False(t, cfg.DBAutoMigrate)
	assert.Equal(t, []string{"eng", "ind"}, cfg.Languages())
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CARDSCAN_LANG=deu\nCARDSCAN_OUTPUT=from-dotenv.txt\n"), 0o644))
	t.Setenv("CARDSCAN_LANG", "fra")
	t.Setenv("CARDSCAN_CONFIG", "")
	t.Cleanup(func() { os.Unsetenv("CARDSCAN_OUTPUT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"fra"}, cfg.Languages())
	assert.Equal(t, "from-dotenv.txt", cfg.Output)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CARDSCAN_CONFIG", "")
	t.Setenv("CARDSCAN_WORKERS", "many")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("CARDSCAN_WORKERS", "2")
	t.Setenv("CARDSCAN_IMAGE_TIMEOUT", "soon")
	_, err = Load("")
	assert.Error(t, err)
	t.Setenv("CARDSCAN_IMAGE_TIMEOUT", "")

	t.Setenv("CARDSCAN_WORKERS", "-2")
	_, err = Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
