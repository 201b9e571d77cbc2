package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/history"
	"github.com/vango-dev/wayfinder/pkg/routepath"
	"github.com/vango-dev/wayfinder/pkg/router"
)

const (
	// FileName is the name of the configuration file.
	FileName = "wayfinder.json"

	// DefaultAddr is the default dev server listen address.
	DefaultAddr = ":7070"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "wayfinder"

	// DefaultNotFound is the name reported for unmatched paths.
	DefaultNotFound = "not-found"
)

// Scheduler names.
const (
	SchedulerIdle = "idle"
	SchedulerSync = "sync"
)

// Config represents wayfinder.json.
type Config struct {
	// Basepath is the base every route is mounted under (default: "/").
	Basepath string `json:"basepath,omitempty"`

	// Initial is the first entry of a served in-memory history (default: "/").
	Initial string `json:"initial,omitempty"`

	// Routes is the route table.
	Routes []RouteConfig `json:"routes"`

	// NotFound is the name reported when nothing matches.
	NotFound string `json:"notFound,omitempty"`

	// Scheduler selects the coordinator scheduler: "idle" or "sync".
	Scheduler string `json:"scheduler,omitempty"`

	// Metrics configures Prometheus collection.
	Metrics MetricsConfig `json:"metrics"`

	// Server configures the dev server.
	Server ServerConfig `json:"server"`

	// source is where the config was read from.
	source string
}

// RouteConfig is one route table entry.
type RouteConfig struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`

	// Redirect makes the route's handler redirect there. Relative targets
	// resolve against the matched URI.
	Redirect string `json:"redirect,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty"`
	Enabled   bool   `json:"enabled"`
}

// ServerConfig configures the dev server.
type ServerConfig struct {
	// Addr is the listen address (default: ":7070").
	Addr string `json:"addr,omitempty"`
}

// Default returns a config with every default applied and no routes.
func Default() *Config {
	return &Config{
		Basepath:  "/",
		Initial:   "/",
		NotFound:  DefaultNotFound,
		Scheduler: SchedulerIdle,
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
			Enabled:   true,
		},
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
	}
}

// Load reads wayfinder.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile reads and validates the config at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No " + FileName + " found at " + path).
				WithSuggestion("Create " + FileName + " or pass --config")
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	return parse(data, path)
}

// Parse decodes and validates a config document.
func Parse(data []byte) (*Config, error) {
	return parse(data, "")
}

func parse(data []byte, source string) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		coded := errors.New(errors.CodeConfigInvalid).
			WithSuggestion("Check that " + FileName + " is valid JSON").
			Wrap(err)
		if source != "" {
			if line, col, ok := jsonErrorPosition(data, err); ok {
				coded.WithLocation(source, line, col)
			}
		}
		return nil, coded
	}

	cfg.source = source
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// jsonErrorPosition converts the byte offset of a decode error to a
// 1-based line and column.
func jsonErrorPosition(data []byte, err error) (line, col int, ok bool) {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case stderrors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0, 0, false
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}

	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col, true
}

func (c *Config) applyDefaults() {
	if c.Basepath == "" {
		c.Basepath = "/"
	}
	if c.Initial == "" {
		c.Initial = "/"
	}
	if c.NotFound == "" {
		c.NotFound = DefaultNotFound
	}
	if c.Scheduler == "" {
		c.Scheduler = SchedulerIdle
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
}

// Validate checks the basepath, the scheduler name, and the route table.
// Route problems come back as W001 for bad patterns and W003 otherwise.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Basepath, "/") {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail(fmt.Sprintf("basepath %q must start with \"/\"", c.Basepath))
	}
	if _, err := routepath.ValidateNavPath(c.Initial); err != nil {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail(fmt.Sprintf("initial %q is not an absolute in-app path", c.Initial)).
			Wrap(err)
	}
	switch c.Scheduler {
	case SchedulerIdle, SchedulerSync:
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetail(fmt.Sprintf("unknown scheduler %q", c.Scheduler)).
			WithSuggestion(`Use "idle" or "sync"`)
	}

	err := router.NewValidator(c.RouteTable(nil)).Validate()
	if err == nil {
		return nil
	}
	code := errors.CodeConfigInvalid
	if stderrors.Is(err, router.ValidationError{Type: router.ErrorInvalidPattern}) {
		code = errors.CodeInvalidPattern
	}
	return errors.New(code).
		WithDetail(err.Error()).
		WithSuggestion("Fix the listed routes in " + FileName).
		Wrap(err)
}

// Source returns the path or URI the config was read from.
func (c *Config) Source() string {
	return c.source
}

// RouteTable builds router routes mounted under Basepath. handler supplies
// each route's handler; nil leaves handlers unset.
func (c *Config) RouteTable(handler func(RouteConfig) router.Handler) router.Routes {
	routes := router.NewRoutes()
	for _, rc := range c.Routes {
		var h router.Handler
		if handler != nil {
			h = handler(rc)
		}
		routes = routes.Named(rc.Name, c.mount(rc.Path), h)
	}
	return routes
}

func (c *Config) mount(path string) string {
	if path == "." {
		return c.Basepath
	}
	if c.Basepath == "/" {
		return path
	}
	if path == "/" {
		return c.Basepath
	}
	return strings.TrimSuffix(c.Basepath, "/") + "/" + strings.TrimPrefix(path, "/")
}

// NewScheduler returns the scheduler named by the config.
func (c *Config) NewScheduler(logger *slog.Logger) history.Scheduler {
	if c.Scheduler == SchedulerSync {
		return history.SyncScheduler{}
	}
	return history.NewIdleScheduler(logger)
}

// Exists reports whether dir contains wayfinder.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil
}
