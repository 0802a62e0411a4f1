package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:11434", cfg.OllamaHost)
	assert.Equal(t, ".marianalyzer", cfg.DataDir)
	assert.Equal(t, "chunks", cfg.Namespace)
	assert.Equal(t, 400, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 50, cfg.LexicalTopK)
	assert.Equal(t, 50, cfg.VectorTopK)
	assert.Equal(t, 20, cfg.HybridTopK)
	assert.Equal(t, 60, cfg.RRFConstant)
	assert.Equal(t, 0.7, cfg.ConfidenceThreshold)
	assert.Equal(t, 0.85, cfg.ClusteringThreshold)
	assert.Equal(t, 2, cfg.MinClusterSize)
}

func TestLoad_TOMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
ollama_host = "http://ollama.internal:11434"
llm_model = "llama3.1:8b"
clustering_threshold = 0.9
hybrid_top_k = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://ollama.internal:11434", cfg.OllamaHost)
	assert.Equal(t, "llama3.1:8b", cfg.LLMModel)
	assert.Equal(t, 0.9, cfg.ClusteringThreshold)
	assert.Equal(t, 5, cfg.HybridTopK)

	// Untouched settings keep their defaults.
	assert.Equal(t, "nomic-embed-text", cfg.EmbedModel)
	assert.Equal(t, 60, cfg.RRFConstant)
}

func TestLoad_EnvOverridesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`ollama_host = "http://from-toml:11434"`), 0o644))

	t.Setenv("MARIANALYZER_OLLAMA_HOST", "http://from-env:11434")
	t.Setenv("MARIANALYZER_CLUSTERING_THRESHOLD", "0.75")
	t.Setenv("MARIANALYZER_MIN_CLUSTER_SIZE", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:11434", cfg.OllamaHost)
	assert.Equal(t, 0.75, cfg.ClusteringThreshold)
	assert.Equal(t, 3, cfg.MinClusterSize)
}

func TestLoad_FillsDerivedPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MARIANALYZER_DATA_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "metadata.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "vectors"), cfg.VectorPath)
	assert.Equal(t, filepath.Join(dir, "lexical.idx"), cfg.LexicalPath)
}

func TestLoad_ExplicitPathsKept(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`db_path = "/srv/mar/meta.db"`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/mar/meta.db", cfg.DBPath)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.DataDir = filepath.Join(root, "data")
	cfg.fillDerived()

	require.NoError(t, cfg.EnsureDirectories())

	for _, dir := range []string{cfg.DataDir, cfg.VectorPath} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
