package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wayfinder/internal/config"
	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/history"
	"github.com/vango-dev/wayfinder/pkg/router"
)

func simulateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <script>",
		Short: "Run a navigation script against an in-memory history",
		Long: `Run a navigation script through a coordinator over an in-memory
history, dispatching every committed location through the route table.
Use "-" to read the script from stdin.

Script lines:
  push <to>       push a new entry
  replace <to>    replace the current entry
  back, forward   move the cursor
  go <delta>      move the cursor by delta
  redirect <to>   raise a redirect from the current route
  # comment

Example:
  printf 'push /users/7\nredirect ../settings\nback\n' | wayfinder simulate -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			var script io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Newf(errors.CategoryCLI, "open script %s", args[0]).Wrap(err)
				}
				defer f.Close()
				script = f
			}
			return runSimulation(cmd.Context(), cfg, script, cmd.OutOrStdout(), opts.logger)
		},
	}
}

// trackingNavigator records every handle so the simulator can wait for
// navigations raised from inside dispatch before reading the next line.
type trackingNavigator struct {
	coord *history.Coordinator

	mu      sync.Mutex
	pending []*history.Handle
}

func (t *trackingNavigator) Navigate(ctx context.Context, to string, opts ...history.NavigateOption) *history.Handle {
	h := t.coord.Navigate(ctx, to, opts...)
	t.mu.Lock()
	t.pending = append(t.pending, h)
	t.mu.Unlock()
	return h
}

func (t *trackingNavigator) next() *history.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) == 0 {
		return nil
	}
	h := t.pending[0]
	t.pending = t.pending[1:]
	return h
}

type simulator struct {
	mem      *history.MemoryHistory
	coord    *history.Coordinator
	nav      *trackingNavigator
	router   *router.Router
	boundary *router.RedirectBoundary

	mu  sync.Mutex
	out io.Writer
}

func runSimulation(ctx context.Context, cfg *config.Config, script io.Reader, out io.Writer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	s := &simulator{out: out}
	s.mem = history.NewMemoryHistory(cfg.Initial)
	s.coord = history.NewCoordinator(s.mem,
		history.WithScheduler(history.SyncScheduler{}),
		history.WithLogger(logger),
	)
	defer s.coord.Close()
	s.nav = &trackingNavigator{coord: s.coord}
	s.boundary = router.NewRedirectBoundary(s.nav, logger)

	r, err := router.New(cfg.RouteTable(s.routeHandler(cfg)),
		router.WithLogger(logger),
		router.WithNavigator(s.nav),
		router.WithNotFound(router.HandlerFunc(func(ctx context.Context, props router.Props) (any, error) {
			return cfg.NotFound, nil
		})),
		router.WithMiddleware(router.Boundary(s.nav), router.MiddlewareFunc(s.reportRedirect)),
	)
	if err != nil {
		return errors.New(errors.CodeInvalidPattern).Wrap(err)
	}
	s.router = r

	unsubscribe := s.coord.Subscribe(func(loc history.Location) {
		s.observe(ctx, loc)
	})
	defer unsubscribe()

	s.observe(ctx, s.coord.Location())
	s.drain(ctx)

	scanner := bufio.NewScanner(script)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.printf("> %s\n", line)
		if err := s.exec(ctx, line); err != nil {
			return errors.Newf(errors.CategoryCLI, "line %d: %s", lineNum, err.Error())
		}
		s.drain(ctx)
	}
	return scanner.Err()
}

// observe prints loc and what dispatching it produced.
func (s *simulator) observe(ctx context.Context, loc history.Location) {
	s.printf("location %s\n", loc.Href())
	value, err := s.router.Dispatch(ctx, loc)
	switch {
	case err != nil:
		s.printf("  error: %v\n", err)
	case value != nil:
		s.printf("  %v\n", value)
	}
}

func (s *simulator) routeHandler(cfg *config.Config) func(config.RouteConfig) router.Handler {
	return func(rc config.RouteConfig) router.Handler {
		return router.HandlerFunc(func(ctx context.Context, props router.Props) (any, error) {
			if rc.Redirect != "" {
				return nil, props.Redirect(rc.Redirect)
			}
			desc := "route " + props.Match.Route.Path
			if rc.Name != "" {
				desc = "route " + rc.Name + " " + props.Match.Route.Path
			}
			if len(props.Params) > 0 {
				desc += " " + formatParams(props.Params)
			}
			return desc, nil
		})
	}
}

// reportRedirect runs inside the boundary and prints redirects before the
// boundary consumes them.
func (s *simulator) reportRedirect(ctx context.Context, props router.Props, next router.Next) (any, error) {
	value, err := next(ctx)
	if redirect, ok := router.AsRedirect(err); ok {
		s.printf("  redirect %s\n", redirect.URI)
	}
	return value, err
}

func (s *simulator) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	switch command {
	case "push", "replace":
		if len(args) != 1 {
			return fmt.Errorf("%s takes one target", command)
		}
		var opts []history.NavigateOption
		if command == "replace" {
			opts = append(opts, history.WithReplace())
		}
		s.nav.Navigate(ctx, args[0], opts...)

	case "back", "forward", "go":
		delta := -1
		switch command {
		case "forward":
			delta = 1
		case "go":
			if len(args) != 1 {
				return fmt.Errorf("go takes one delta")
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("go: %w", err)
			}
			delta = n
		}
		if err := s.mem.Go(delta); err != nil {
			s.printf("  error: %v\n", err)
		}

	case "redirect":
		if len(args) != 1 {
			return fmt.Errorf("redirect takes one target")
		}
		loc := s.coord.Location()
		if m, ok := s.router.Match(ctx, loc.Pathname); ok {
			ctx = router.WithMatch(ctx, m)
		}
		s.boundary.Run(ctx, func(ctx context.Context) (any, error) {
			err := router.RedirectTo(args[0])
			s.printf("  redirect %s\n", args[0])
			return nil, err
		})

	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

// drain waits for every tracked navigation, including ones raised while
// waiting.
func (s *simulator) drain(ctx context.Context) {
	for h := s.nav.next(); h != nil; h = s.nav.next() {
		if err := h.Wait(ctx); err != nil {
			s.printf("  error: %v\n", errors.New(errors.CodeNavigationFailed).Wrap(err))
		}
	}
}

func (s *simulator) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}
