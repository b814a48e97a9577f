package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"bookshelf/internal/config"
	"bookshelf/internal/metadata"
	"bookshelf/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	tags       *testsupport.MemoryTags
	// edit replaces $EDITOR. The default returns its input unchanged.
	edit func(ctx context.Context, content string) (string, error)
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	opts = append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries()}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Organize.Format = "{author}/{title}/{filename}"
	return &cliTestEnv{
		cfg:        cfg,
		configPath: testsupport.WriteConfig(t, cfg),
		baseDir:    testsupport.BaseDir(cfg),
		tags:       testsupport.NewMemoryTags(),
		edit: func(_ context.Context, content string) (string, error) {
			return content, nil
		},
	}
}

// rewriteConfig stores env.cfg again after a test changed it.
func (env *cliTestEnv) rewriteConfig(t *testing.T) {
	t.Helper()
	env.configPath = testsupport.WriteConfig(t, env.cfg)
}

// addBook writes a fake audiobook below dir and registers its tags.
func (env *cliTestEnv) addBook(t *testing.T, path string, size int64, record metadata.Record) string {
	t.Helper()
	testsupport.WriteFile(t, path, size)
	env.tags.Set(path, record)
	return path
}

func (env *cliTestEnv) sourceDir() string {
	return filepath.Join(env.baseDir, "incoming")
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, env, "", args...)
}

func runCLIWithInput(t *testing.T, env *cliTestEnv, input string, args ...string) (string, string, error) {
	t.Helper()
	ctx := newCommandContext()
	ctx.reader = env.tags
	ctx.writer = env.tags
	ctx.edit = env.edit

	cmd := newRootCommandWith(ctx)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// newLookupServer serves one Audnexus book and 404s everything else.
func newLookupServer(t *testing.T, asin, body string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/books/"+asin, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
