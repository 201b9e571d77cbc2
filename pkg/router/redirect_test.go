package router

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vango-dev/wayfinder/pkg/history"
)

func TestIsRedirect(t *testing.T) {
	r := RedirectTo("/login")
	if !IsRedirect(r) {
		t.Error("IsRedirect(RedirectTo()) = false")
	}
	if !IsRedirect(fmt.Errorf("auth: %w", r)) {
		t.Error("IsRedirect() should see through wrapping")
	}
	if IsRedirect(errors.New("redirect to /login")) {
		t.Error("IsRedirect() matched an ordinary error")
	}
	if IsRedirect(nil) {
		t.Error("IsRedirect(nil) = true")
	}
}

func TestBoundaryReturnedRedirect(t *testing.T) {
	nav := &recordingNavigator{}
	r := MustNew(NewRoutes().AddFunc("/admin", func(ctx context.Context, props Props) (any, error) {
		return "secret", RedirectTo("/login")
	}), WithMiddleware(Boundary(nav)))

	got, err := r.Dispatch(context.Background(), history.NewLocation("/admin", nil, ""))
	if err != nil || got != nil {
		t.Errorf("Dispatch() = %v, %v, want nil, nil", got, err)
	}

	calls := nav.Calls()
	if len(calls) != 1 {
		t.Fatalf("navigations = %d, want 1", len(calls))
	}
	if calls[0].to != "/login" || !calls[0].opts.Replace {
		t.Errorf("navigation = %+v, want replace to /login", calls[0])
	}
}

func TestBoundaryPanickedRedirect(t *testing.T) {
	nav := &recordingNavigator{}
	r := MustNew(NewRoutes().AddFunc("/users/:id", func(ctx context.Context, props Props) (any, error) {
		panic(props.Redirect("../login"))
	}), WithMiddleware(Boundary(nav)))

	if _, err := r.Dispatch(context.Background(), history.NewLocation("/users/1", nil, "")); err != nil {
		t.Fatal(err)
	}
	calls := nav.Calls()
	if len(calls) != 1 || calls[0].to != "/users/login" {
		t.Errorf("navigations = %+v, want one to /users/login", calls)
	}
}

func TestBoundaryPassesOtherFailures(t *testing.T) {
	nav := &recordingNavigator{}
	b := NewRedirectBoundary(nav, nil)
	boom := errors.New("boom")

	_, err := b.Run(context.Background(), func(context.Context) (any, error) { return nil, boom })
	if err != boom {
		t.Errorf("Run() error = %v, want the original error", err)
	}

	defer func() {
		if rec := recover(); rec != "kaboom" {
			t.Errorf("recovered %v, want the original panic value", rec)
		}
		if len(nav.Calls()) != 0 {
			t.Error("boundary navigated on an ordinary failure")
		}
	}()
	b.Run(context.Background(), func(context.Context) (any, error) { panic("kaboom") })
}

func TestNestedBoundariesNavigateOnce(t *testing.T) {
	inner := &recordingNavigator{}
	outer := &recordingNavigator{}
	ib := NewRedirectBoundary(inner, nil)
	ob := NewRedirectBoundary(outer, nil)

	redirect := RedirectTo("/login")
	_, err := ob.Run(context.Background(), func(context.Context) (any, error) {
		return ib.Run(context.Background(), func(context.Context) (any, error) {
			return nil, redirect
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	// A handled redirect surfacing again is swallowed without navigating.
	_, err = ob.Run(context.Background(), func(context.Context) (any, error) { return nil, redirect })
	if err != nil {
		t.Fatal(err)
	}

	if n := len(inner.Calls()); n != 1 {
		t.Errorf("inner navigations = %d, want 1", n)
	}
	if n := len(outer.Calls()); n != 0 {
		t.Errorf("outer navigations = %d, want 0", n)
	}
	if r, _ := AsRedirect(redirect); !r.Handled() {
		t.Error("redirect not marked handled")
	}
}

func TestBoundaryWithoutNavigator(t *testing.T) {
	b := NewRedirectBoundary(nil, nil)
	_, err := b.Run(context.Background(), func(context.Context) (any, error) { return nil, RedirectTo("/x") })
	if !errors.Is(err, ErrNoNavigator) {
		t.Errorf("Run() error = %v, want ErrNoNavigator", err)
	}
}
