package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-request", "r.yaml", "-out", "o.mp4", "-plan"})
	require.NoError(t, err)
	assert.Equal(t, options{request: "r.yaml", out: "o.mp4", plan: true}, opts)

	_, err = parseFlags(nil)
	assert.ErrorIs(t, err, errRequestRequired)

	_, err = parseFlags([]string{"-bogus"})
	assert.Error(t, err)
}

func TestRun_RequestErrors(t *testing.T) {
	dir := t.TempDir()

	err := run(context.Background(), []string{"-request", filepath.Join(dir, "missing.yaml")}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "open request")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scenes: [unterminated"), 0600))
	err = run(context.Background(), []string{"-request", bad}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "decode request")
}

func TestShellJoin(t *testing.T) {
	got := shellJoin([]string{"-y", "-filter_complex", "[0:v]null[outv]", "-c:v", "it's", ""})
	assert.Equal(t, `-y -filter_complex '[0:v]null[outv]' -c:v 'it'\''s' ''`, got)
}
