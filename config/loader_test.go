// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- 默认配置测试 ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "file", cfg.Persistence.Type)
	assert.Equal(t, 5*time.Minute, cfg.Persistence.AutoSaveInterval)
	assert.Equal(t, "cogniflow:", cfg.Persistence.Redis.KeyPrefix)

	assert.Equal(t, 10, cfg.Thinking.DefaultMaxThoughts)
	assert.True(t, cfg.Thinking.AllowBranching)
	assert.False(t, cfg.Thinking.RequireHypotheses)

	assert.Equal(t, 0.8, cfg.Assessment.Excellent)
	assert.Equal(t, 0.6, cfg.Assessment.Good)
	assert.Equal(t, 0.4, cfg.Assessment.Acceptable)

	assert.Equal(t, 0.7, cfg.Learning.FeedbackWeight)
	assert.Equal(t, 0.6, cfg.Learning.PatternThreshold)
	assert.Equal(t, 0.5, cfg.Learning.AdaptationAggressiveness)
	assert.Equal(t, 0.4, cfg.Learning.ExampleInfluence)
	assert.Equal(t, 0.65, cfg.Learning.SimilarityThreshold)

	assert.Equal(t, 1000, cfg.Memory.Capacity)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	require.NoError(t, cfg.Validate())
}

// --- Loader 测试 ---

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s

persistence:
  type: redis
  redis:
    addr: "redis.example.com:6379"
    db: 1

learning:
  feedback_weight: 0.9

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "redis", cfg.Persistence.Type)
	assert.Equal(t, "redis.example.com:6379", cfg.Persistence.Redis.Addr)
	assert.Equal(t, 1, cfg.Persistence.Redis.DB)
	// 未在 YAML 中出现的字段保留默认值
	assert.Equal(t, "cogniflow:", cfg.Persistence.Redis.KeyPrefix)
	assert.Equal(t, 0.9, cfg.Learning.FeedbackWeight)
	assert.Equal(t, 0.6, cfg.Learning.PatternThreshold)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("COGNIFLOW_SERVER_HTTP_PORT", "7777")
	t.Setenv("COGNIFLOW_PERSISTENCE_TYPE", "sql")
	t.Setenv("COGNIFLOW_PERSISTENCE_DATABASE_DRIVER", "postgres")
	t.Setenv("COGNIFLOW_PERSISTENCE_AUTO_SAVE_INTERVAL", "30s")
	t.Setenv("COGNIFLOW_LEARNING_EXAMPLE_INFLUENCE", "0.25")
	t.Setenv("COGNIFLOW_SERVER_CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, "sql", cfg.Persistence.Type)
	assert.Equal(t, "postgres", cfg.Persistence.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Persistence.AutoSaveInterval)
	assert.Equal(t, 0.25, cfg.Learning.ExampleInfluence)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
thinking:
  default_max_thoughts: 6
memory:
  capacity: 50
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))
	t.Setenv("COGNIFLOW_THINKING_DEFAULT_MAX_THOUGHTS", "12")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Thinking.DefaultMaxThoughts)
	assert.Equal(t, 50, cfg.Memory.Capacity)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "6666")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, 6666, cfg.Server.HTTPPort)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("COGNIFLOW_LEARNING_FEEDBACK_WEIGHT", "heavy")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestLoader_WithValidator(t *testing.T) {
	t.Setenv("COGNIFLOW_PERSISTENCE_TYPE", "etcd")

	_, err := NewLoader().WithValidator((*Config).Validate).Load()
	assert.Error(t, err)
}

func TestLoader_NonExistentFile(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/non/existent/path/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidYAML := `
server:
  http_port: [invalid
  this is not valid yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	_, err := NewLoader().WithConfigPath(configPath).Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid default config", modify: func(c *Config) {}, wantErr: false},
		{name: "invalid HTTP port", modify: func(c *Config) { c.Server.HTTPPort = 70000 }, wantErr: true},
		{name: "unknown store type", modify: func(c *Config) { c.Persistence.Type = "s3" }, wantErr: true},
		{name: "file store without path", modify: func(c *Config) { c.Persistence.File.Path = "" }, wantErr: true},
		{name: "zero max thoughts", modify: func(c *Config) { c.Thinking.DefaultMaxThoughts = 0 }, wantErr: true},
		{name: "thresholds out of order", modify: func(c *Config) { c.Assessment.Good = 0.9 }, wantErr: true},
		{name: "tunable above one", modify: func(c *Config) { c.Learning.PatternThreshold = 1.5 }, wantErr: true},
		{name: "zero memory capacity", modify: func(c *Config) { c.Memory.Capacity = 0 }, wantErr: true},
		{name: "tls cert without key", modify: func(c *Config) { c.Server.TLSCertFile = "cert.pem" }, wantErr: true},
		{name: "tls pair", modify: func(c *Config) {
			c.Server.TLSCertFile = "cert.pem"
			c.Server.TLSKeyFile = "key.pem"
		}, wantErr: false},
		{name: "memory store needs no path", modify: func(c *Config) {
			c.Persistence.Type = "memory"
			c.Persistence.File.Path = ""
		}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      DatabaseConfig
		contains string
	}{
		{name: "postgres", cfg: DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, Name: "cf", SSLMode: "disable"}, contains: "host=db port=5432"},
		{name: "mysql", cfg: DatabaseConfig{Driver: "mysql", User: "u", Password: "p", Host: "db", Port: 3306, Name: "cf"}, contains: "u:p@tcp(db:3306)/cf"},
		{name: "sqlite", cfg: DatabaseConfig{Driver: "sqlite", Name: "file.db"}, contains: "file.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.cfg.DSN(), tt.contains)
		})
	}
	assert.Empty(t, (&DatabaseConfig{Driver: "oracle"}).DSN())
}
