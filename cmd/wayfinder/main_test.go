package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/wayfinder/internal/config"
	"github.com/vango-dev/wayfinder/internal/errors"
)

const testConfig = `{
  "routes": [
    {"path": "/", "name": "home"},
    {"path": "/users/:id", "name": "user"},
    {"path": "/users/:id/profile", "redirect": "../settings"},
    {"path": "/users/:id/settings", "name": "settings"},
    {"path": "/old", "redirect": "/"},
    {"path": "/files/*path", "name": "files"}
  ]
}`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.FileName)
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMatchCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "", "--config", cfg, "match", "/users/42")
	if err != nil {
		t.Fatalf("match error: %v", err)
	}
	for _, want := range []string{"pattern  /users/:id", "name     user", "uri      /users/42", "params   id=42"} {
		if !strings.Contains(out, want) {
			t.Errorf("match output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "", "--config", cfg, "match", "--json", "/files/a/b")
	if err != nil {
		t.Fatalf("match --json error: %v", err)
	}
	if !strings.Contains(out, `"path": "a/b"`) {
		t.Errorf("match --json output = %s", out)
	}
}

func TestMatchCommandNoMatch(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), config.FileName)
	os.WriteFile(cfg, []byte(`{"routes":[{"path":"/a"}]}`), 0o644)

	_, err := run(t, "", "--config", cfg, "match", "/b")
	if err == nil || !strings.Contains(err.Error(), "no route matches /b") {
		t.Errorf("match error = %v, want no route matches", err)
	}
}

func TestResolveCommand(t *testing.T) {
	tests := []struct {
		to   string
		base string
		want string
	}{
		{"../settings", "/users/7/edit", "/users/7/settings"},
		{"/about", "/anything", "/about"},
		{"c?x=1", "/a/b", "/a/b/c?x=1"},
	}
	for _, tt := range tests {
		out, err := run(t, "", "resolve", tt.to, tt.base)
		if err != nil {
			t.Fatalf("resolve error: %v", err)
		}
		if got := strings.TrimSpace(out); got != tt.want {
			t.Errorf("resolve %s %s = %q, want %q", tt.to, tt.base, got, tt.want)
		}
	}
}

func TestRoutesCommand(t *testing.T) {
	out, err := run(t, "", "--config", writeConfig(t), "routes")
	if err != nil {
		t.Fatalf("routes error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.HasPrefix(lines[0], "RANK") {
		t.Fatalf("routes header = %q", lines[0])
	}
	var patterns []string
	for _, line := range lines[1:] {
		patterns = append(patterns, strings.Fields(line)[1])
	}
	want := []string{"/users/:id/profile", "/users/:id/settings", "/users/:id", "/old", "/files/*path", "/"}
	if strings.Join(patterns, " ") != strings.Join(want, " ") {
		t.Errorf("routes order = %v, want %v", patterns, want)
	}
	if !strings.Contains(out, "../settings") {
		t.Error("routes output does not show redirects")
	}
}

func TestRoutesCommandRejectsInvalidConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), config.FileName)
	os.WriteFile(cfg, []byte(`{"routes":[{"path":"/a/*/b"}]}`), 0o644)

	_, err := run(t, "", "--config", cfg, "routes")
	if !errors.HasCode(err, errors.CodeInvalidPattern) {
		t.Errorf("routes error = %v, want W001", err)
	}
}

func TestSimulate(t *testing.T) {
	cfg, err := config.Parse([]byte(testConfig))
	if err != nil {
		t.Fatalf("config.Parse() error: %v", err)
	}
	script := `
# profile redirects to settings
push /users/7
push /users/7/profile
redirect /old
back
replace /nowhere
push relative
`
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := runSimulation(context.Background(), cfg, strings.NewReader(script), &out, logger); err != nil {
		t.Fatalf("runSimulation() error: %v", err)
	}

	want := `location /
  route home /
> push /users/7
location /users/7
  route user /users/:id id=7
> push /users/7/profile
location /users/7/profile
  redirect /users/7/settings
location /users/7/settings
  route settings /users/:id/settings id=7
> redirect /old
  redirect /old
location /old
  redirect /
location /
  route home /
> back
location /users/7
  route user /users/:id id=7
> replace /nowhere
location /nowhere
  not-found
> push relative
  error: W004: Navigation failed: navigate to "relative": invalid path
`
	if got := out.String(); got != want {
		t.Errorf("simulation output:\n%s\nwant:\n%s", got, want)
	}
}

func TestSimulateUnknownCommand(t *testing.T) {
	cfg := config.Default()
	err := runSimulation(context.Background(), cfg, strings.NewReader("push /a\nfly /b\n"), io.Discard, nil)
	if err == nil || !strings.Contains(err.Error(), `line 2: unknown command "fly"`) {
		t.Errorf("runSimulation() error = %v, want line 2 unknown command", err)
	}
}

func TestSimulateFromStdin(t *testing.T) {
	out, err := run(t, "push /files/x/y\n", "--config", writeConfig(t), "simulate", "-")
	if err != nil {
		t.Fatalf("simulate error: %v", err)
	}
	if !strings.Contains(out, "route files /files/*path path=x/y") {
		t.Errorf("simulate output = %s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version", "--short")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version --short = %q, want %q", out, version)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "", "--log-level", "loud", "version")
	if err == nil || !strings.Contains(err.Error(), "invalid --log-level") {
		t.Errorf("error = %v, want invalid --log-level", err)
	}
}
