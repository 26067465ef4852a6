package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range []string{
		"GEMINI_API_KEY", "VERTEX_ACCESS_TOKEN", "VERTEX_PROJECT_ID",
		"GEMINI_PROXY_LISTEN", "GEMINI_PROXY_PATH", "GEMINI_PROXY_VARIANT", "GEMINI_PROXY_BASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck_RedactsKey(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "super-secret")

	out, err := runCmd(t, "check")
	require.NoError(t, err)
	require.Contains(t, out, "variant:  public-key-v1")
	require.Contains(t, out, "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent?key=REDACTED")
	require.NotContains(t, out, "super-secret")
}

func TestCheck_MissingCredential(t *testing.T) {
	isolate(t)

	out, err := runCmd(t, "check")
	require.NoError(t, err)
	require.Contains(t, out, "unavailable (Missing GEMINI_API_KEY)")
}

func TestCheck_ConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "proxy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
upstream:
  variant: cloud-platform
  access_token: tok
  project_id: proj
  region: europe-west4
`), 0o600))

	out, err := runCmd(t, "check", "--config", path)
	require.NoError(t, err)
	require.Contains(t, out, "https://europe-west4-aiplatform.googleapis.com/v1/projects/proj/locations/europe-west4/publishers/google/models/gemini-1.5-flash:generateContent")
	require.Contains(t, out, "auth:     bearer")
	require.NotContains(t, out, "tok\n")
}

func TestCheck_ExplicitMissingFile(t *testing.T) {
	isolate(t)
	_, err := runCmd(t, "check", "-c", "nope.yaml")
	require.Error(t, err)
}

func TestLoadWithOverrides(t *testing.T) {
	isolate(t)

	cfg, err := loadWithOverrides("", &serveOptions{listen: "127.0.0.1:9000", variant: "public-key-v2"})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	require.Equal(t, "gemini-2.5-flash", cfg.Variant().DefaultModel())

	_, err = loadWithOverrides("", &serveOptions{variant: "bogus"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "upstream.variant")
}
