package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
)

func openTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestMissingFileYieldsEmptySettings(t *testing.T) {
	store := openTestStore(t)

	assert.Equal(t, Settings{}, store.Settings())
}

func TestSetPersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.api_key", "sk-test-123"))
	require.NoError(t, store.Set("pipeline.chunk_size", "300"))
	require.NoError(t, store.Set("pipeline.enable_reranking", "false"))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)

	settings := reopened.Settings()
	assert.Equal(t, "sk-test-123", settings.LLM.APIKey)
	assert.Equal(t, 300, settings.Pipeline.ChunkSize)
	require.NotNil(t, settings.Pipeline.EnableReranking)
	assert.False(t, *settings.Pipeline.EnableReranking)
}

func TestSetRejectsUnknownKey(t *testing.T) {
	store := openTestStore(t)

	err := store.Set("pipeline.chunk_sizee", "300")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSetRejectsKeyWithoutSection(t *testing.T) {
	store := openTestStore(t)

	err := store.Set("api_key", "value")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigFilePermissions(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set("embedding.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestPipelineConfigDefaultsWhenAbsent(t *testing.T) {
	var settings Settings

	cfg := settings.PipelineConfig()

	defaults := domain.DefaultConfig()
	assert.Equal(t, defaults.ChunkSize, cfg.ChunkSize)
	assert.Equal(t, defaults.RetrievalK, cfg.RetrievalK)
	assert.True(t, cfg.EnableReranking)
	assert.True(t, cfg.EnableQueryExpansion)
	assert.True(t, cfg.EnableMultiRoundRetrieval)
	assert.Equal(t, defaults.WorkflowTimeout, cfg.WorkflowTimeout)
}

func TestPipelineConfigExplicitValues(t *testing.T) {
	off := false
	settings := Settings{Pipeline: pipelineSettings{
		ChunkSize:           400,
		EnableReranking:     &off,
		WorkflowTimeoutSecs: 90,
		IsolationMode:       string(domain.IsolationCumulative),
	}}

	cfg := settings.PipelineConfig()

	assert.Equal(t, 400, cfg.ChunkSize)
	assert.False(t, cfg.EnableReranking)
	assert.Equal(t, 90*time.Second, cfg.WorkflowTimeout)
	assert.Equal(t, domain.IsolationCumulative, cfg.IsolationMode)
}

func TestPathIsInsideConfigDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}
