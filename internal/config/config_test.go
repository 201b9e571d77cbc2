package config

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/history"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Basepath != "/" {
		t.Errorf("Basepath = %q, want %q", cfg.Basepath, "/")
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Metrics.Namespace != DefaultNamespace || !cfg.Metrics.Enabled {
		t.Errorf("Metrics = %+v, want enabled in %q", cfg.Metrics, DefaultNamespace)
	}
	if cfg.Scheduler != SchedulerIdle {
		t.Errorf("Scheduler = %q, want %q", cfg.Scheduler, SchedulerIdle)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	if !errors.HasCode(err, errors.CodeConfigNotFound) {
		t.Fatalf("Load(empty dir) error = %v, want W002", err)
	}

	doc := `{
  "basepath": "/app",
  "routes": [
    {"path": "/", "name": "home"},
    {"path": "/users/:id", "name": "user"}
  ],
  "scheduler": "sync",
  "metrics": {"enabled": false},
  "server": {"addr": "127.0.0.1:9000"}
}
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if !Exists(dir) {
		t.Error("Exists() = false after writing the file")
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Basepath != "/app" {
		t.Errorf("Basepath = %q, want /app", cfg.Basepath)
	}
	if len(cfg.Routes) != 2 || cfg.Routes[1].Name != "user" {
		t.Errorf("Routes = %+v", cfg.Routes)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want default", cfg.Metrics.Namespace)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Source() != filepath.Join(dir, FileName) {
		t.Errorf("Source() = %q", cfg.Source())
	}
	if _, ok := cfg.NewScheduler(nil).(history.SyncScheduler); !ok {
		t.Error("NewScheduler() is not a SyncScheduler for \"sync\"")
	}
}

func TestParseSyntaxErrorHasLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	doc := "{\n  \"routes\": [\n    {\"path\": \"/a\",}\n  ]\n}\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	var coded *errors.Error
	if !stderrors.As(err, &coded) || coded.Code != errors.CodeConfigInvalid {
		t.Fatalf("LoadFile() error = %v, want W003", err)
	}
	if coded.Location == nil || coded.Location.Line != 3 {
		t.Fatalf("Location = %v, want line 3", coded.Location)
	}
	if len(coded.Context) == 0 {
		t.Error("Context is empty")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantCode string
	}{
		{"valid", `{"routes":[{"path":"/a"},{"path":"/b/*"}]}`, ""},
		{"bad pattern", `{"routes":[{"path":"/a/*/b"}]}`, errors.CodeInvalidPattern},
		{"duplicate shape", `{"routes":[{"path":"/u/:id"},{"path":"/u/:name"}]}`, errors.CodeConfigInvalid},
		{"duplicate name", `{"routes":[{"path":"/a","name":"x"},{"path":"/b","name":"x"}]}`, errors.CodeConfigInvalid},
		{"relative basepath", `{"basepath":"app","routes":[]}`, errors.CodeConfigInvalid},
		{"unknown scheduler", `{"scheduler":"eager","routes":[]}`, errors.CodeConfigInvalid},
		{"bad initial", `{"initial":"https://evil.example","routes":[]}`, errors.CodeConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Parse() error: %v", err)
				}
				return
			}
			if !errors.HasCode(err, tt.wantCode) {
				t.Errorf("Parse() error = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestRouteTable(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"basepath": "/app/",
		"routes": [
			{"path": "/", "name": "home"},
			{"path": "/users/:id", "name": "user"},
			{"path": "files/*"}
		]
	}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	routes := cfg.RouteTable(nil)
	want := []string{"/app/", "/app/users/:id", "/app/files/*"}
	if len(routes) != len(want) {
		t.Fatalf("RouteTable() has %d routes, want %d", len(routes), len(want))
	}
	for i, w := range want {
		if routes[i].Path != w {
			t.Errorf("routes[%d].Path = %q, want %q", i, routes[i].Path, w)
		}
	}
	if routes[1].Name != "user" {
		t.Errorf("routes[1].Name = %q, want user", routes[1].Name)
	}
}

type fakeS3 struct {
	objects map[string]string
	err     error
	got     *s3.GetObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func TestLoadS3(t *testing.T) {
	api := &fakeS3{objects: map[string]string{
		"cfg/prod/wayfinder.json": `{"routes":[{"path":"/x","name":"x"}]}`,
	}}

	cfg, err := LoadS3(context.Background(), api, "cfg", "prod/wayfinder.json")
	if err != nil {
		t.Fatalf("LoadS3() error: %v", err)
	}
	if len(cfg.Routes) != 1 || cfg.Routes[0].Path != "/x" {
		t.Errorf("Routes = %+v", cfg.Routes)
	}
	if cfg.Source() != "s3://cfg/prod/wayfinder.json" {
		t.Errorf("Source() = %q", cfg.Source())
	}
	if aws.ToString(api.got.Bucket) != "cfg" || aws.ToString(api.got.Key) != "prod/wayfinder.json" {
		t.Errorf("GetObject input = %+v", api.got)
	}

	if _, err := LoadS3(context.Background(), api, "cfg", "missing.json"); !errors.HasCode(err, errors.CodeConfigNotFound) {
		t.Errorf("LoadS3(missing) error = %v, want W002", err)
	}

	api.err = stderrors.New("access denied")
	if _, err := LoadS3(context.Background(), api, "cfg", "prod/wayfinder.json"); !errors.HasCode(err, errors.CodeS3Fetch) {
		t.Errorf("LoadS3(denied) error = %v, want W006", err)
	}
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri    string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://bucket/wayfinder.json", "bucket", "wayfinder.json", true},
		{"s3://bucket/a/b.json", "bucket", "a/b.json", true},
		{"s3://bucket", "", "", false},
		{"s3:///key", "", "", false},
		{"./wayfinder.json", "", "", false},
	}
	for _, tt := range tests {
		bucket, key, ok := ParseS3URI(tt.uri)
		if bucket != tt.bucket || key != tt.key || ok != tt.ok {
			t.Errorf("ParseS3URI(%q) = %q, %q, %v; want %q, %q, %v", tt.uri, bucket, key, ok, tt.bucket, tt.key, tt.ok)
		}
	}
}
