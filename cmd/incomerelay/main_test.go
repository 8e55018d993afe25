package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	require.NoError(t, err)
	stderrR, stderrW, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)
	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func setVersionMetadataForTest(t *testing.T, v, commit, built string) {
	t.Helper()

	origVersion, origCommit, origBuildDate := version, gitCommit, buildDate
	version, gitCommit, buildDate = v, commit, built
	t.Cleanup(func() {
		version, gitCommit, buildDate = origVersion, origCommit, origBuildDate
	})
}

const sampleCSV = `Account Name,Jan 2025,Feb 2025,Total
Total Operating Income,100,200,300
    Rental Income,100,200,300
Net Income,40,60,100
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunVersionJSON(t *testing.T) {
	setVersionMetadataForTest(t, "2.0.0", "0123456789abcdef0123", "2025-06-01T10:11:12+02:00")

	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runVersion([]string{"--json"})
	})
	require.Equal(t, 0, code)

	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, versionInfo{Version: "2.0.0", Commit: "0123456789ab", BuildTime: "2025-06-01T08:11:12Z"}, info)
}

func TestRunVersionRejectsArgs(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runVersion([]string{"extra"})
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Usage: incomerelay version")
}

func TestRunCLIUnknownCommand(t *testing.T) {
	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"bogus"})
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown command: bogus")
	assert.Contains(t, stdout, "Usage:")
}

func TestRunCLIHelp(t *testing.T) {
	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"help"})
	})
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "parse <file.csv>")
}

func TestRunParse(t *testing.T) {
	path := writeFile(t, "statement.csv", sampleCSV)

	var out bytes.Buffer
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runParse([]string{path}, &out)
	})
	require.Equal(t, 0, code, stderr)

	var rep struct {
		Metadata struct {
			TotalCategories int      `json:"total_categories"`
			MonthColumns    []string `json:"month_columns"`
		} `json:"metadata"`
		Totals map[string]*float64 `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, 3, rep.Metadata.TotalCategories)
	assert.Equal(t, []string{"Jan 2025", "Feb 2025"}, rep.Metadata.MonthColumns)
	require.NotNil(t, rep.Totals["net_income"])
	assert.InDelta(t, 100.0, *rep.Totals["net_income"], 0.001)
}

func TestRunParseBatchEnvelope(t *testing.T) {
	path := writeFile(t, "statement.csv", sampleCSV)

	var out bytes.Buffer
	code, _, _ := captureOutputWithExitCode(t, func() int {
		return runParse([]string{"--batch", path}, &out)
	})
	require.Equal(t, 0, code)

	var b map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &b))
	assert.Equal(t, "income_statement", b["report_type"])
	assert.Equal(t, "direct_upload", b["source"])
	assert.Regexp(t, `^\d{8}_\d{6}$`, b["batch_id"])
}

func TestRunParseFailures(t *testing.T) {
	bad := writeFile(t, "bad.csv", "Account Name,Jan 2025\nRental Income,100\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no file", nil, "Usage: incomerelay parse"},
		{"missing file", []string{filepath.Join(t.TempDir(), "absent.csv")}, "Failed to read file"},
		{"missing required total", []string{bad}, "Parse failed"},
		{"bad rules path", []string{"--rules", filepath.Join(t.TempDir(), "absent.yaml"), bad}, "Failed to load rules"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code, _, stderr := captureOutputWithExitCode(t, func() int {
				return runParse(tt.args, &out)
			})
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.want)
			assert.Empty(t, out.String())
		})
	}
}

func TestShortenCommit(t *testing.T) {
	assert.Equal(t, "abc", shortenCommit("abc"))
	assert.Equal(t, "0123456789ab", shortenCommit("0123456789abcdef"))
}
