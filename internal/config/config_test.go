package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClientDefaults(t *testing.T) {
	cfg, err := LoadClient("")
	require.NoError(t, err)

	assert.Equal(t, "https://localhost:8001", cfg.BaseURL)
	assert.Equal(t, "/whispers/process_videos", cfg.UploadPath)
	assert.Equal(t, "files", cfg.Field)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.False(t, cfg.InsecureTLS)
	assert.Equal(t, []string{".mp4", ".webm"}, cfg.Extensions)
	require.NoError(t, cfg.Validate())
}

func TestLoadClientEnvOverrides(t *testing.T) {
	t.Setenv("MEDIAUP_BASE_URL", "https://stt.internal:9000")
	t.Setenv("MEDIAUP_TIMEOUT", "0s")
	t.Setenv("MEDIAUP_INSECURE_TLS", "true")
	t.Setenv("MEDIAUP_EXTENSIONS", ".wav")

	cfg, err := LoadClient("")
	require.NoError(t, err)
	assert.Equal(t, "https://stt.internal:9000", cfg.BaseURL)
	assert.Zero(t, cfg.Timeout)
	assert.True(t, cfg.InsecureTLS)
	assert.Equal(t, []string{".wav"}, cfg.Extensions)
}

func TestLoadClientFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mediaup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: http://10.0.0.5:8001
field: file
upload_path: /whispers/process_video2
timeout: 30s
`), 0o644))

	cfg, err := LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8001", cfg.BaseURL)
	assert.Equal(t, "file", cfg.Field)
	assert.Equal(t, 30*time.Second, cfg.Timeout)

	endpoint, err := cfg.Endpoint("")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8001/whispers/process_video2", endpoint)
}

func TestEndpointExplicitWins(t *testing.T) {
	cfg := &Client{BaseURL: "https://localhost:8001", UploadPath: "/whispers/process_videos"}

	got, err := cfg.Endpoint("https://other:8443/upload")
	require.NoError(t, err)
	assert.Equal(t, "https://other:8443/upload", got)

	_, err = cfg.Endpoint("other:8443/upload")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Client{BaseURL: "localhost:8001", Field: "files"}
	assert.Error(t, cfg.Validate())

	cfg = Client{BaseURL: "https://localhost:8001", Field: " "}
	assert.Error(t, cfg.Validate())

	cfg = Client{BaseURL: "https://localhost:8001", Field: "files", Timeout: -time.Second}
	assert.Error(t, cfg.Validate())
}

func TestLoadServer(t *testing.T) {
	cfg, err := LoadServer("")
	require.NoError(t, err)
	assert.Equal(t, "8001", cfg.Port)
	assert.Equal(t, int64(32<<20), cfg.MaxMemory)
	assert.Empty(t, cfg.MembersSeed)

	t.Setenv("MEMBERS_SEED", "/etc/mediaup/members.json")
	cfg, err = LoadServer("")
	require.NoError(t, err)
	assert.Equal(t, "/etc/mediaup/members.json", cfg.MembersSeed)

	t.Setenv("PUBSUB_TOPIC", "transcripts")
	_, err = LoadServer("")
	assert.Error(t, err)

	t.Setenv("GCP_PROJECT_ID", "demo")
	cfg, err = LoadServer("")
	require.NoError(t, err)
	assert.Equal(t, "transcripts", cfg.PubSubTopic)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
