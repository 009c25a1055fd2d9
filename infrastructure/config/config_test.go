package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_harness/domain/interfaces"
)

func TestDefaults(t *testing.T) {
	s := FromMap(nil)

	assert.Equal(t, "selenium", s.String(interfaces.KeyFramework, ""))
	assert.Equal(t, 30, s.Int(interfaces.KeyDefaultTimeout, 0))
	assert.Equal(t, 5*time.Second, s.Duration(interfaces.KeyIdleWait, 0))
	assert.False(t, s.Bool(interfaces.KeyHeadless, true))
	assert.Equal(t, "fallback", s.String("no.such.key", "fallback"))
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "harness.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("automation:\n  framework: playwright\ntimeout:\n  default: 12\n"), 0644))

	t.Setenv("HARNESS_TIMEOUT_DEFAULT", "20")

	s, err := Load(LoadOptions{
		EnvFile:    filepath.Join(dir, "missing.env"),
		ConfigFile: cfgFile,
		Overrides:  map[string]interface{}{interfaces.KeyHeadless: true},
	})
	require.NoError(t, err)

	assert.Equal(t, "playwright", s.String(interfaces.KeyFramework, ""))
	assert.Equal(t, 20, s.Int(interfaces.KeyDefaultTimeout, 0), "environment beats file")
	assert.True(t, s.Bool(interfaces.KeyHeadless, false))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("HARNESS_SCREENSHOT_POLICY=always\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("HARNESS_SCREENSHOT_POLICY") })

	s, err := Load(LoadOptions{EnvFile: envFile, ConfigFile: filepath.Join(dir, "none.yaml")})
	require.Error(t, err, "an explicit config file must exist")
	assert.Nil(t, s)

	s, err = Load(LoadOptions{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "always", s.String(interfaces.KeyScreenshotPolicy, ""))
}

func TestTestDataScopedLookup(t *testing.T) {
	s := FromMap(map[string]interface{}{
		"data.username":                  "standard_user",
		"data.password":                  "secret_sauce",
		"data.locked_out_login.username": "locked_out_user",
	})

	d := NewTestData(s, "Locked out login")
	v, ok := d.Value("username")
	require.True(t, ok)
	assert.Equal(t, "locked_out_user", v)

	v, ok = d.Value("Password")
	require.True(t, ok)
	assert.Equal(t, "secret_sauce", v)

	_, ok = d.Value("missing")
	assert.False(t, ok)
}
