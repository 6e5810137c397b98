package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleCSV = "2020/01/01,10,100,9,11,8\n2020/01/02,12,200,9,15,7\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_NoopSink(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "stocks.csv", exampleCSV)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-config", filepath.Join(dir, "missing.yaml"), "-input", input},
		&stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.JSONEq(t, `{"date":"2020-01-02T00:00:00Z","high":15}`, stdout.String())
	assert.Contains(t, stderr.String(), "pipeline completed")
}

func TestRun_InputFlagOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "stocks.csv", exampleCSV)
	t.Setenv("STOCKPIPE_INPUT_PATH", filepath.Join(dir, "from-env.csv"))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-config", filepath.Join(dir, "missing.yaml"), "-input", input},
		&stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.JSONEq(t, `{"date":"2020-01-02T00:00:00Z","high":15}`, stdout.String())
	assert.NotContains(t, stderr.String(), "from-env.csv")
}

func TestRun_PositionalInput(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "stocks.csv", exampleCSV)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", filepath.Join(dir, "missing.yaml"), input}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), `"high":15`)
}

func TestRun_RedisFromConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "stocks.csv", exampleCSV)
	cfg := writeFile(t, dir, "pipeline.yaml", `
input:
  path: `+input+`
sink:
  type: redis
  key: prices:max
  key_mode: date
  redis:
    addr: `+mr.Addr()+`
logging:
  format: json
`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfg}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	raw, err := mr.Get("prices:max:2020-01-02")
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2020-01-02T00:00:00Z","high":15}`, raw)
	assert.Contains(t, stderr.String(), `"run_id"`)
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	missingCfg := filepath.Join(dir, "missing.yaml")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "no input",
			args: []string{"-config", missingCfg},
			want: "invalid config",
		},
		{
			name: "malformed row",
			args: []string{"-config", missingCfg, "-input", writeFile(t, dir, "bad.csv", "2020/01/01,10,100,9,x,8\n")},
			want: "ingest stage failed",
		},
		{
			name: "empty input",
			args: []string{"-config", missingCfg, "-input", writeFile(t, dir, "empty.csv", "")},
			want: "no records to aggregate",
		},
		{
			name: "bad yaml",
			args: []string{"-config", writeFile(t, dir, "bad.yaml", "sink: [")},
			want: "parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout.String())
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestRun_BadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), []string{"-nope"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: pipeline")
}
