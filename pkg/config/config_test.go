package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/aboxlink"
	"github.com/soundprediction/aboxlink/pkg/config"
	"github.com/soundprediction/aboxlink/pkg/embedder"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "NEO4J_URI", "NEO4J_USER", "NEO4J_PASSWORD", "ABOXLINK_VOCABULARY", "ABOXLINK_VOCABULARY_PATH", "ABOXLINK_LINKING_THRESHOLD"} {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	v, err := config.New("")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "builtin:aec", cfg.Vocabulary.Path)
	assert.Equal(t, embedder.ProviderEmbedEverything, cfg.Embedding.Provider)
	assert.Equal(t, aboxlink.DefaultThreshold, cfg.Linking.Threshold)
	assert.Equal(t, 1, cfg.Linking.TopK)
	assert.Equal(t, "turtle", cfg.Output.Format)
	assert.Equal(t, 30*time.Second, cfg.CircuitBreaker.Timeout)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Vocabulary.Watch)
	assert.Equal(t, 500*time.Millisecond, cfg.Vocabulary.Debounce)

	pc := cfg.PipelineConfig()
	assert.Equal(t, aboxlink.NewDefaultConfig(), pc)
	assert.Equal(t, time.Minute, cfg.ChatTimeout())
	require.NotNil(t, cfg.ChatConfig().Temperature)
	assert.InDelta(t, 0.2, *cfg.ChatConfig().Temperature, 1e-6)
}

func TestConfigFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "aboxlink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vocabulary:
  path: ./vocab.yaml
linking:
  threshold: 0.7
  top_k: 3
  focus_subject: Tunnel_A
embedding:
  provider: hashing
  dimensions: 128
output:
  format: ntriples
circuit_breaker:
  timeout: 5s
`), 0o644))

	t.Setenv("ABOXLINK_LINKING_TOP_K", "2")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("NEO4J_URI", "bolt://localhost:7687")

	v, err := config.New(path)
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "./vocab.yaml", cfg.Vocabulary.Path)
	assert.Equal(t, 0.7, cfg.Linking.Threshold)
	assert.Equal(t, 2, cfg.Linking.TopK)
	assert.Equal(t, "hashing", cfg.Embedding.Provider)
	assert.Equal(t, 128, cfg.Embedding.Dimensions)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "sk-test", cfg.NLP.APIKey)
	assert.Equal(t, 5*time.Second, cfg.CircuitBreaker.Timeout)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "neo4j", cfg.Database.Driver)

	pc := cfg.PipelineConfig()
	assert.Equal(t, "Tunnel_A", pc.FocusSubject)
	assert.Equal(t, 2, pc.TopK)
}

func TestVocabularyEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("ABOXLINK_VOCABULARY", "/tmp/v.yaml")

	v, err := config.New("")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/v.yaml", cfg.Vocabulary.Path)
	assert.Equal(t, 500*time.Millisecond, cfg.Vocabulary.Debounce)
	assert.False(t, cfg.Vocabulary.Watch)
}

func TestSectionEnvKeys(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("ABOXLINK_VOCABULARY_PATH", "./plant.yaml")
	t.Setenv("ABOXLINK_VOCABULARY_DEBOUNCE", "2s")
	t.Setenv("ABOXLINK_NLP_API_KEY", "sk-prefixed")
	t.Setenv("ABOXLINK_DATABASE_PASSWORD", "secret")

	v, err := config.New("")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "./plant.yaml", cfg.Vocabulary.Path)
	assert.Equal(t, 2*time.Second, cfg.Vocabulary.Debounce)
	assert.Equal(t, "sk-prefixed", cfg.NLP.APIKey)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, aboxlink.DefaultThreshold, cfg.Linking.Threshold)
}

func TestMissingExplicitConfigFile(t *testing.T) {
	_, err := config.New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	v, err := config.New("")
	require.NoError(t, err)
	v.Set("linking.threshold", 1.5)
	v.Set("linking.top_k", 0)
	v.Set("output.format", "xml")
	v.Set("database.driver", "falkordb")
	v.Set("vocabulary.watch", true)

	_, err = config.Load(v)
	require.Error(t, err)
	for _, want := range []string{"linking.threshold", "linking.top_k", "xml", "falkordb", "vocabulary.watch"} {
		assert.Contains(t, err.Error(), want)
	}
}
