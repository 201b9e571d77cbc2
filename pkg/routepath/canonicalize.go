package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Canonical is a canonicalized navigation target.
type Canonical struct {
	// Path is the canonical pathname.
	Path string

	// Search is the query string including its leading "?", or "".
	Search string

	// Hash is the fragment including its leading "#", or "".
	Hash string

	// Changed indicates the pathname was modified.
	Changed bool
}

// String reassembles the target.
func (c Canonical) String() string {
	return c.Path + c.Search + c.Hash
}

// Canonicalization errors.
var (
	ErrInvalidPath           = errors.New("invalid path")
	ErrBackslashInPath       = errors.New("path contains backslash")
	ErrNullByteInPath        = errors.New("path contains null byte")
	ErrInvalidPercentEscape  = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("encoded slash (%2F) in non-splat segment")
)

// Canonicalize normalizes a navigation target before it reaches a location
// store. Unlike Resolve it is strict:
//   - a trailing slash is removed (except for "/")
//   - repeated slashes collapse (/blog//post → /blog/post)
//   - "." segments are removed and ".." segments applied
//
// Inputs with a backslash, a NUL byte, a malformed percent escape, or a ".."
// that climbs above the root are rejected. Search and hash pass through.
func Canonicalize(input string) (Canonical, error) {
	path, search, hash := SplitLocation(input)
	if path == "" {
		return Canonical{Path: "/", Search: search, Hash: hash, Changed: true}, nil
	}

	if strings.Contains(path, "\\") {
		return Canonical{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Canonical{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Canonical{}, err
		}
	}

	var result []string
	for _, seg := range Split(path) {
		switch seg {
		case ".":
		case "..":
			if len(result) == 0 {
				return Canonical{}, ErrPathEscapesRoot
			}
			result = result[:len(result)-1]
		default:
			result = append(result, seg)
		}
	}

	canon := "/" + strings.Join(result, "/")
	return Canonical{
		Path:    canon,
		Search:  search,
		Hash:    hash,
		Changed: canon != path,
	}, nil
}

// ValidateNavPath canonicalizes a target that is about to be handed to a
// location store. Full URLs and protocol-relative URLs are rejected so a
// navigation can never leave the application.
func ValidateNavPath(target string) (string, error) {
	if strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "//") {
		return "", ErrInvalidPath
	}
	if !strings.HasPrefix(target, "/") {
		return "", ErrInvalidPath
	}

	c, err := Canonicalize(target)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// validatePercentEscapes checks that every '%' starts a %XX hex escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); {
		if path[i] != '%' {
			i++
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 3
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// DecodeSegment percent-decodes one matched param value.
// A decoded "/" is only allowed in splat values; elsewhere it means an
// encoded slash was smuggled into a single segment.
func DecodeSegment(value string, splat bool) (string, error) {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if !splat && strings.Contains(decoded, "/") {
		return "", ErrEncodedSlashInSegment
	}
	return decoded, nil
}

// DecodePathSegments splits a path and percent-decodes each token.
func DecodePathSegments(path string) ([]string, error) {
	tokens := Split(path)
	if len(tokens) == 0 {
		return nil, nil
	}

	result := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		decoded, err := url.PathUnescape(tok)
		if err != nil {
			return nil, ErrInvalidPercentEscape
		}
		result = append(result, decoded)
	}
	return result, nil
}
