package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

// setupWorkdir isolates HOME and the AWS shared config, sets static
// credentials and changes into an empty working directory.
func setupWorkdir(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(home, "aws-config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(home, "aws-credentials"))
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	work := t.TempDir()
	t.Chdir(work)
	return work
}

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, name := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("content of "+name), 0o600))
	}
}

func execute(ctx context.Context, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Execute(ctx, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func lines(out string) []string {
	var result []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			result = append(result, line)
		}
	}
	sort.Strings(result)
	return result
}

func TestMove_DryRun(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		args  []string
		want  []string
	}{
		{
			name:  "explicit key",
			files: []string{"test.txt"},
			args:  []string{"mv", "test.txt", "s3://mybucket/test2.txt"},
			want:  []string{"(dryrun) move: test.txt to s3://mybucket/test2.txt"},
		},
		{
			name:  "bucket keeps file name",
			files: []string{"test.txt"},
			args:  []string{"mv", "test.txt", "s3://mybucket/"},
			want:  []string{"(dryrun) move: test.txt to s3://mybucket/test.txt"},
		},
		{
			name:  "recursive with exclude",
			files: []string{"photos/a.txt", "photos/b.jpg", "photos/sub/c.txt", "photos/sub/d.jpg"},
			args:  []string{"mv", "photos", "s3://mybucket/photos/", "--recursive", "--exclude", "*.jpg"},
			want: []string{
				"(dryrun) move: photos/a.txt to s3://mybucket/photos/a.txt",
				"(dryrun) move: photos/sub/c.txt to s3://mybucket/photos/sub/c.txt",
			},
		},
		{
			name:  "exclude then include keeps order",
			files: []string{"logs/app.log", "logs/app.txt", "logs/db.log"},
			args:  []string{"mv", "logs", "s3://mybucket/", "--recursive", "--exclude", "*", "--include", "app*"},
			want: []string{
				"(dryrun) move: logs/app.log to s3://mybucket/app.log",
				"(dryrun) move: logs/app.txt to s3://mybucket/app.txt",
			},
		},
		{
			name:  "include then exclude keeps order",
			files: []string{"logs/app.log", "logs/app.txt", "logs/db.log"},
			args:  []string{"mv", "logs", "s3://mybucket/", "--recursive", "--include", "app*", "--exclude", "*"},
			want:  nil,
		},
		{
			name:  "acl does not change the line",
			files: []string{"test.txt"},
			args:  []string{"mv", "test.txt", "s3://mybucket/test2.txt", "--acl", "public-read-write"},
			want:  []string{"(dryrun) move: test.txt to s3://mybucket/test2.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work := setupWorkdir(t)
			writeFiles(t, work, tt.files...)

			args := append([]string{"--endpoint-url", "http://127.0.0.1:1"}, tt.args...)
			code, stdout, stderr := execute(context.Background(), append(args, "--dryrun")...)

			assert.Equal(t, ExitOK, code, stderr)
			assert.Equal(t, tt.want, lines(stdout))
			assert.Empty(t, stderr)

			for _, name := range tt.files {
				assert.FileExists(t, filepath.Join(work, filepath.FromSlash(name)), "dryrun leaves sources in place")
			}
		})
	}
}

func TestMove_Quiet(t *testing.T) {
	work := setupWorkdir(t)
	writeFiles(t, work, "test.txt")

	code, stdout, stderr := execute(context.Background(),
		"mv", "test.txt", "s3://mybucket/", "--dryrun", "--quiet")
	assert.Equal(t, ExitOK, code)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestMove_InvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		args    []string
		message string
	}{
		{"local to local", []string{"a.txt"}, []string{"mv", "a.txt", "b.txt"}, "Error: Invalid argument type"},
		{"missing source", nil, []string{"mv", "a.txt", "s3://bucket/"}, "Error: Local path does not exist"},
		{"directory without recursive", []string{"dir/a.txt"}, []string{"mv", "dir", "s3://bucket/"}, "Error: Requires a local file"},
		{"invalid acl", []string{"a.txt"}, []string{"mv", "a.txt", "s3://bucket/", "--acl", "everyone"}, "ACL must be one of"},
		{"invalid grant", []string{"a.txt"}, []string{"mv", "a.txt", "s3://bucket/", "--grants", "read"}, "grants should be of the form permission=principal"},
		{"invalid pattern", []string{"d/a.txt"}, []string{"mv", "d", "s3://bucket/", "--recursive", "--exclude", "["}, "["},
		{"one argument", nil, []string{"mv", "a.txt"}, "error: accepts 2 arg(s), received 1"},
		{"unknown flag", nil, []string{"mv", "a", "s3://b/", "--frobnicate"}, "unknown flag: --frobnicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work := setupWorkdir(t)
			writeFiles(t, work, tt.files...)

			code, stdout, stderr := execute(context.Background(), tt.args...)
			assert.Equal(t, ExitUsage, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, tt.message)
		})
	}
}

func TestMove_InvalidConfig(t *testing.T) {
	work := setupWorkdir(t)
	writeFiles(t, work, "a.txt")
	cfg := writeConfig(t, t.TempDir(), `multipart_threshold = "lots"`)

	code, _, stderr := execute(context.Background(), "--config", cfg, "mv", "a.txt", "s3://bucket/")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "fatal error: multipart_threshold: invalid size")
}

func TestMove_FailedTransfer(t *testing.T) {
	work := setupWorkdir(t)
	writeFiles(t, work, "test.txt")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied</Message><RequestId>1</RequestId></Error>`))
	}))
	defer server.Close()

	cfg := writeConfig(t, t.TempDir(), "force_path_style = true\nmax_retries = 0\n")
	logFile := filepath.Join(t.TempDir(), "s3mv.log")

	code, stdout, stderr := execute(context.Background(),
		"--config", cfg, "--endpoint-url", server.URL, "--log-file", logFile,
		"mv", "test.txt", "s3://mybucket/test2.txt")

	assert.Equal(t, ExitFailed, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "move failed: test.txt to s3://mybucket/test2.txt An error occurred (AccessDenied): Access Denied")
	assert.FileExists(t, filepath.Join(work, "test.txt"), "a failed transfer keeps the source")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"move failed"`)
	assert.Contains(t, string(data), `"invocation_id"`)
}

func TestMove_ListFailureIsFatal(t *testing.T) {
	setupWorkdir(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchBucket</Code><Message>The specified bucket does not exist</Message></Error>`))
	}))
	defer server.Close()

	cfg := writeConfig(t, t.TempDir(), "force_path_style = true\nmax_retries = 0\n")

	code, _, stderr := execute(context.Background(),
		"--config", cfg, "--endpoint-url", server.URL,
		"mv", "s3://missing/", "out", "--recursive")

	assert.Equal(t, ExitFailed, code)
	assert.Contains(t, stderr, "fatal error: An error occurred (NoSuchBucket): The specified bucket does not exist")
}

func TestMove_Interrupted(t *testing.T) {
	work := setupWorkdir(t)
	writeFiles(t, work, "dir/a.txt", "dir/b.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, _, _ := execute(ctx, "--endpoint-url", "http://127.0.0.1:1",
		"mv", "dir", "s3://bucket/", "--recursive", "--dryrun")
	assert.Equal(t, ExitInterrupted, code)
}

func TestFilterValue(t *testing.T) {
	var rules []s3types.FilterRule
	cmd := MoveCommand()
	require.NoError(t, cmd.ParseFlags([]string{
		"--exclude", "*", "--include", "*.log", "--exclude", "debug.log",
	}))

	flags := cmd.Flags()
	assert.Equal(t, "[*,debug.log]", flags.Lookup("exclude").Value.String())
	assert.Equal(t, "[*.log]", flags.Lookup("include").Value.String())

	rules = *flags.Lookup("exclude").Value.(*filterValue).rules
	assert.Equal(t, []s3types.FilterRule{
		{Type: s3types.FilterExclude, Pattern: "*"},
		{Type: s3types.FilterInclude, Pattern: "*.log"},
		{Type: s3types.FilterExclude, Pattern: "debug.log"},
	}, rules)
}

func TestSSEFlagDefault(t *testing.T) {
	cmd := MoveCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--sse"}))
	assert.Equal(t, "AES256", cmd.Flags().Lookup("sse").Value.String())
}
