package main

import (
	"bytes"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/jyotish-ai/server/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMissingConfigurationIsReported(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("POSTGRES_DSN", "")

	_, err := run(t, "set-password", "--password", "s3cret")
	require.True(t, config.IsMissing(err))

	_, err = run(t, "ingest", "--file", "does-not-matter.txt")
	require.True(t, config.IsMissing(err))

	_, err = run(t, "nope")
	require.Error(t, err)
	require.False(t, config.IsMissing(err))
}

func TestSetPasswordStoresOverride(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_URL", "redis://"+mr.Addr())
	t.Setenv("APP_PASSWORD", "")

	_, err := run(t, "set-password")
	require.True(t, config.IsMissing(err))

	out, err := run(t, "set-password", "--password", "s3cret")
	require.NoError(t, err)
	require.Contains(t, out, "algo=sha256")
	require.True(t, mr.Exists("app_config:access_password"))
}
