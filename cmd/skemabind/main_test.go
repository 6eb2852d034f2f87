package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

const schemaFile = "testdata/server.yaml"

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	color.NoColor = true
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t, "")
	require.Equal(t, exitUsage, code)
	require.Contains(t, stderr, "Usage:")

	code, stdout, _ := runCLI(t, "", "help")
	require.Equal(t, exitOK, code)
	require.Contains(t, stdout, "skemabind validate")

	code, _, _ = runCLI(t, "", "compile")
	require.Equal(t, exitUsage, code)
}

func TestValidate(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "validate", "-schema", schemaFile, "-no-color", "testdata/valid.json")
	require.Equal(t, exitOK, code, stdout)
	require.Contains(t, stdout, "ok testdata/valid.json")

	code, stdout, _ = runCLI(t, "", "validate", "-schema", schemaFile, "-no-color", "testdata/valid.json", "testdata/invalid.yaml")
	require.Equal(t, exitInvalid, code)
	require.Contains(t, stdout, "ok testdata/valid.json")
	require.Contains(t, stdout, "FAIL testdata/invalid.yaml")
	require.Contains(t, stdout, "/host [required]")
	require.Contains(t, stdout, "/debug [unknown_key]")
}

func TestValidate_FailFast(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "validate", "-schema", schemaFile, "-no-color", "-fail-fast", "testdata/invalid.yaml")
	require.Equal(t, exitInvalid, code)
	issues := 0
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(line, "  /") {
			issues++
		}
	}
	require.Equal(t, 1, issues, stdout)
}

func TestValidate_ManyFromStdin(t *testing.T) {
	in, err := os.ReadFile("testdata/servers.json")
	require.NoError(t, err)
	code, stdout, _ := runCLI(t, string(in), "validate", "-schema", schemaFile, "-no-color", "-many", "-")
	require.Equal(t, exitInvalid, code)
	require.Contains(t, stdout, "FAIL <stdin>")
	require.Contains(t, stdout, "/1/port [too_small]")
	require.NotContains(t, stdout, "/0/")
}

func TestValidate_DuplicateKeys(t *testing.T) {
	code, stdout, _ := runCLI(t, `{"host":"a","host":"b"}`, "validate", "-schema", schemaFile, "-no-color", "-format", "json")
	require.Equal(t, exitInvalid, code)
	require.Contains(t, stdout, "/host [duplicate_key]")
}

func TestValidate_BadFlags(t *testing.T) {
	cases := [][]string{
		{"validate"},
		{"validate", "-schema", "testdata/missing.yaml"},
		{"validate", "-schema", schemaFile, "-format", "toml"},
		{"validate", "-schema", schemaFile, "-unknown", "maybe"},
		{"validate", "-schema", schemaFile, "testdata/missing.json"},
		{"validate", "-nope"},
	}
	for _, args := range cases {
		code, _, _ := runCLI(t, "", args...)
		require.Equal(t, exitUsage, code, "%v", args)
	}
}

func TestRoundtrip(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "roundtrip", "-schema", schemaFile, "-no-color", "testdata/valid.json")
	require.Equal(t, exitOK, code, stdout)
	require.Contains(t, stdout, "ok testdata/valid.json")

	code, stdout, _ = runCLI(t, `{"host": "h", "extra": 1}`, "roundtrip", "-schema", schemaFile, "-unknown", "preserve", "-no-color", "-format", "json")
	require.Equal(t, exitInvalid, code)
	require.Contains(t, stdout, "FAIL <stdin>")
	require.Contains(t, stdout, "[unknown_key]")
}

func TestRoundtrip_ShowsDefaults(t *testing.T) {
	code, stdout, _ := runCLI(t, "host: h\n", "roundtrip", "-schema", schemaFile, "-no-color", "-format", "yaml")
	require.Equal(t, exitInvalid, code)
	require.Contains(t, stdout, "CHANGED <stdin>")
	require.Contains(t, stdout, `+   "port": 8080,`)
	require.Contains(t, stdout, `+   "tls": false`)
	require.Contains(t, stdout, `-   "host": "h"`)
	require.Contains(t, stdout, "  {\n")
}

func TestJSONSchema(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "jsonschema", "-schema", schemaFile)
	require.Equal(t, exitOK, code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	require.Equal(t, false, doc["additionalProperties"])
	require.Equal(t, []any{"host"}, doc["required"])

	out := filepath.Join(t.TempDir(), "nested", "server.json")
	code, _, _ = runCLI(t, "", "jsonschema", "-schema", schemaFile, "-o", out)
	require.Equal(t, exitOK, code)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.JSONEq(t, stdout, string(data))
}

func TestLogLevel(t *testing.T) {
	t.Setenv("LOGGING_LEVEL", "DEBUG")
	require.Equal(t, "debug", logLevel(levelFromEnv("")).String())
	require.Equal(t, "error", logLevel(levelFromEnv("ERROR")).String())
	require.Equal(t, "info", logLevel("production").String())
	require.Equal(t, "warn", logLevel("bogus").String())
}
