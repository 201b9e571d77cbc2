package routepath

import (
	"errors"
	"reflect"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantPath    string
		wantSearch  string
		wantHash    string
		wantChanged bool
		wantErr     error
	}{
		{name: "root", input: "/", wantPath: "/"},
		{name: "empty string", input: "", wantPath: "/", wantChanged: true},
		{name: "no leading slash", input: "about", wantPath: "/about", wantChanged: true},
		{name: "collapse slashes", input: "/blog//post", wantPath: "/blog/post", wantChanged: true},
		{name: "trailing slash", input: "/blog/", wantPath: "/blog", wantChanged: true},
		{name: "single dot", input: "/blog/./post", wantPath: "/blog/post", wantChanged: true},
		{name: "double dot", input: "/blog/posts/../other", wantPath: "/blog/other", wantChanged: true},
		{name: "double dot to root", input: "/blog/../", wantPath: "/", wantChanged: true},
		{name: "search and hash kept", input: "/search?q=go#top", wantPath: "/search", wantSearch: "?q=go", wantHash: "#top"},
		{name: "valid escape", input: "/a%20b", wantPath: "/a%20b"},
		{name: "escape above root", input: "/../secret", wantErr: ErrPathEscapesRoot},
		{name: "backslash", input: "/a\\b", wantErr: ErrBackslashInPath},
		{name: "encoded nul", input: "/a%00b", wantErr: ErrNullByteInPath},
		{name: "bad escape", input: "/a%GG", wantErr: ErrInvalidPercentEscape},
		{name: "truncated escape", input: "/a%2", wantErr: ErrInvalidPercentEscape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Canonicalize(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Canonicalize(%q) unexpected error: %v", tt.input, err)
			}
			if got.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", got.Path, tt.wantPath)
			}
			if got.Search != tt.wantSearch {
				t.Errorf("Search = %q, want %q", got.Search, tt.wantSearch)
			}
			if got.Hash != tt.wantHash {
				t.Errorf("Hash = %q, want %q", got.Hash, tt.wantHash)
			}
			if got.Changed != tt.wantChanged {
				t.Errorf("Changed = %v, want %v", got.Changed, tt.wantChanged)
			}
		})
	}
}

func TestValidateNavPath(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "/users/", want: "/users"},
		{input: "/users?page=2", want: "/users?page=2"},
		{input: "/a/./b#frag", want: "/a/b#frag"},
		{input: "users", wantErr: true},
		{input: "https://evil.example/", wantErr: true},
		{input: "//evil.example/", wantErr: true},
		{input: "/../etc", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ValidateNavPath(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateNavPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateNavPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDecodeSegment(t *testing.T) {
	tests := []struct {
		value   string
		splat   bool
		want    string
		wantErr error
	}{
		{value: "hello%20world", want: "hello world"},
		{value: "caf%C3%A9", want: "café"},
		{value: "a%2Fb", wantErr: ErrEncodedSlashInSegment},
		{value: "a%2Fb", splat: true, want: "a/b"},
		{value: "a/b", splat: true, want: "a/b"},
		{value: "%zz", wantErr: ErrInvalidPercentEscape},
	}

	for _, tt := range tests {
		got, err := DecodeSegment(tt.value, tt.splat)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeSegment(%q, %v) error = %v, want %v", tt.value, tt.splat, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("DecodeSegment(%q, %v) unexpected error: %v", tt.value, tt.splat, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DecodeSegment(%q, %v) = %q, want %q", tt.value, tt.splat, got, tt.want)
		}
	}
}

func TestDecodePathSegments(t *testing.T) {
	got, err := DecodePathSegments("/docs/getting%20started/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"docs", "getting started"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DecodePathSegments() = %v, want %v", got, want)
	}

	got, err = DecodePathSegments("/")
	if err != nil || got != nil {
		t.Errorf("DecodePathSegments(\"/\") = %v, %v, want nil, nil", got, err)
	}
}
