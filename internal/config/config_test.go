// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/videoflow")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET_KEY", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, c.JWT.AccessTokenExpire)
	assert.Equal(t, ResetPolicyLifetime, c.Quota.ResetPolicy)
	assert.Equal(t, 10, c.RateLimit.FreePerMinute)
	assert.Equal(t, 30, c.RateLimit.PremiumPerMinute)
	assert.Equal(t, 5000, c.Server.Port)
	assert.False(t, c.Storage.Enabled)
	assert.True(t, c.IsDevelopment())
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QUOTA_RESET_POLICY", "periodic")
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRE", "2h")
	t.Setenv("ASSEMBLYAI_API_KEY", "aai-key")
	t.Setenv("PORT", "8081")

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, ResetPolicyPeriodic, c.Quota.ResetPolicy)
	assert.Equal(t, 2*time.Hour, c.JWT.AccessTokenExpire)
	assert.Equal(t, "aai-key", c.Transcription.APIKey)
	assert.Equal(t, "0.0.0.0:8081", c.Server.Address())
}

func TestLoadYAMLFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := []byte("app:\n  name: from-file\nlog:\n  format: text\n")
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	c, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", c.App.Name)
	assert.Equal(t, "text", c.Log.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing jwt secret",
			env:  map[string]string{"JWT_SECRET_KEY": ""},
		},
		{
			name: "unknown reset policy",
			env:  map[string]string{"QUOTA_RESET_POLICY": "weekly"},
		},
		{
			name: "storage without bucket",
			env:  map[string]string{"STORAGE_ENABLED": "true"},
		},
		{
			name: "short secret in production",
			env: map[string]string{
				"ENVIRONMENT":        "production",
				"ASSEMBLYAI_API_KEY": "key",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := load("")
			require.Error(t, err)
		})
	}
}
