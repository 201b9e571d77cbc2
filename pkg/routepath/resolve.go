package routepath

import "strings"

// Resolve resolves a link target against a base URI.
//
// An absolute target (leading "/") ignores base and is only normalized.
// A relative target is applied segment by segment to base: ".." drops one
// trailing segment (never above root), "." is skipped, anything else is
// appended. The query and hash of to are carried over unchanged; those of
// base are discarded.
//
//	Resolve("..", "/a/b")        → "/a"
//	Resolve("c?x=1", "/a/b")     → "/a/b/c?x=1"
//	Resolve("//x//y/", "/a")     → "/x/y"
func Resolve(to, base string) string {
	toPath, suffix := splitSuffix(to)

	if strings.HasPrefix(toPath, "/") {
		return Normalize(toPath) + suffix
	}

	basePath, _ := splitSuffix(base)
	segments := Split(basePath)
	for _, seg := range Split(toPath) {
		switch seg {
		case ".":
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, seg)
		}
	}

	return "/" + strings.Join(segments, "/") + suffix
}

// Normalize collapses duplicate slashes and strips a trailing slash,
// leaving "/" for the root. Dot segments are kept as they are.
func Normalize(path string) string {
	return "/" + strings.Join(Split(path), "/")
}

// SplitLocation splits a URI into its pathname, search and hash parts.
// Search keeps its leading "?" and hash its leading "#".
func SplitLocation(uri string) (pathname, search, hash string) {
	pathname = uri
	if i := strings.IndexByte(pathname, '#'); i >= 0 {
		pathname, hash = pathname[:i], pathname[i:]
	}
	if i := strings.IndexByte(pathname, '?'); i >= 0 {
		pathname, search = pathname[:i], pathname[i:]
	}
	return pathname, search, hash
}

// splitSuffix separates a URI into its path and its "?query#hash" tail.
func splitSuffix(uri string) (path, suffix string) {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		return uri[:i], uri[i:]
	}
	return uri, ""
}

// StartsWith reports whether href is pathname itself or a segment-aligned
// ancestor of it. "/users" starts "/users/1" but not "/usersettings".
func StartsWith(pathname, href string) bool {
	want := Split(href)
	have := Split(pathname)
	if len(want) > len(have) {
		return false
	}
	for i, seg := range want {
		if have[i] != seg {
			return false
		}
	}
	return true
}

// InsertParams fills the dynamic and splat segments of a pattern with values
// from params. Segments with no value are left as they are.
//
//	InsertParams("/users/:id/*", {"id": "7", "*": "a/b"}) → "/users/7/a/b"
func InsertParams(pattern string, params map[string]string) string {
	segments := Segmentize(pattern)
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg.Kind {
		case Root:
			continue
		case Dynamic, Splat:
			if v, ok := params[seg.Value]; ok {
				if v != "" {
					parts = append(parts, v)
				}
				continue
			}
		}
		parts = append(parts, seg.String())
	}
	return "/" + strings.Join(parts, "/")
}
