package routepath

import (
	"errors"
	"fmt"
	"strings"
)

// SegmentKind identifies the type of a pattern segment.
type SegmentKind uint8

const (
	// Static matches one path token exactly.
	Static SegmentKind = iota + 1
	// Dynamic matches any single path token and binds it to a name.
	Dynamic
	// Splat matches the remainder of the path, slashes included.
	Splat
	// Root is the only segment of the root pattern "/".
	Root
)

// String returns the kind name.
func (k SegmentKind) String() string {
	switch k {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	case Splat:
		return "splat"
	case Root:
		return "root"
	default:
		return "unknown"
	}
}

// SplatKey is the param key used for a bare "*" segment.
const SplatKey = "*"

// Segment is one element of a segmentized pattern.
type Segment struct {
	Kind SegmentKind

	// Value is the literal text for Static segments and the param key for
	// Dynamic and Splat segments. It is empty for Root.
	Value string
}

// String renders the segment back to pattern syntax.
func (s Segment) String() string {
	switch s.Kind {
	case Dynamic:
		return ":" + s.Value
	case Splat:
		if s.Value == SplatKey {
			return "*"
		}
		return "*" + s.Value
	case Root:
		return ""
	default:
		return s.Value
	}
}

// Pattern validation errors.
var (
	ErrSplatNotLast   = errors.New("splat segment must be the last segment")
	ErrEmptyParamName = errors.New("dynamic segment has no name")
	ErrDuplicateParam = errors.New("param name used more than once")
)

// Split breaks a path into its non-empty slash-separated tokens.
// "/" and "" yield no tokens.
func Split(path string) []string {
	if path == "" {
		return nil
	}

	tokens := make([]string, 0, strings.Count(path, "/")+1)
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				tokens = append(tokens, path[start:i])
			}
			start = i + 1
		}
	}
	return tokens
}

// Segmentize decomposes a route pattern into typed segments.
//
//	"/"              → [Root]
//	"/users/:id"     → [Static(users), Dynamic(id)]
//	"/files/*"       → [Static(files), Splat(*)]
//	"/docs/rest*"    → [Static(docs), Splat(rest)]
func Segmentize(pattern string) []Segment {
	tokens := Split(pattern)
	if len(tokens) == 0 {
		return []Segment{{Kind: Root}}
	}

	segments := make([]Segment, len(tokens))
	for i, tok := range tokens {
		segments[i] = classify(tok)
	}
	return segments
}

func classify(tok string) Segment {
	switch {
	case tok == "*":
		return Segment{Kind: Splat, Value: SplatKey}
	case strings.HasPrefix(tok, "*"):
		return Segment{Kind: Splat, Value: tok[1:]}
	case strings.HasSuffix(tok, "*"):
		return Segment{Kind: Splat, Value: strings.TrimSuffix(tok, "*")}
	case strings.HasPrefix(tok, ":"):
		return Segment{Kind: Dynamic, Value: tok[1:]}
	default:
		return Segment{Kind: Static, Value: tok}
	}
}

// ValidatePattern reports whether a pattern can be registered.
func ValidatePattern(pattern string) error {
	segments := Segmentize(pattern)
	seen := make(map[string]bool, len(segments))
	for i, seg := range segments {
		switch seg.Kind {
		case Splat:
			if i != len(segments)-1 {
				return fmt.Errorf("%q: %w", pattern, ErrSplatNotLast)
			}
		case Dynamic:
			if seg.Value == "" {
				return fmt.Errorf("%q: %w", pattern, ErrEmptyParamName)
			}
		default:
			continue
		}
		if seen[seg.Value] {
			return fmt.Errorf("%q: %w: %s", pattern, ErrDuplicateParam, seg.Value)
		}
		seen[seg.Value] = true
	}
	return nil
}

// MaxRankedSegments is the number of leading segments that contribute to Rank.
const MaxRankedSegments = 21

// Per-position digits. Each position uses rankBits bits. A position past
// the end of the pattern outranks a splat, so "/files" beats "/files/*" for
// the pathname "/files".
const (
	rankBits     = 3
	staticDigit  = 5
	dynamicDigit = 4
	rootDigit    = 3
	absentDigit  = 2
	splatDigit   = 1
)

// Rank computes the specificity score of a segmentized pattern.
//
// The score is positional: the first segment occupies the most significant
// digit, so any pattern whose first segment is static outranks every pattern
// whose first segment is dynamic, regardless of how many segments follow.
// The root pattern ranks below anything with a static or dynamic first
// segment and above a bare splat.
//
//	"/users/new"   5 5 2 2 ...
//	"/users/:id"   5 4 2 2 ...
//	"/"            3 2 2 2 ...
//	"/*"           1 2 2 2 ...
func Rank(segments []Segment) int64 {
	var score int64
	for i := 0; i < MaxRankedSegments; i++ {
		score <<= rankBits
		if i < len(segments) {
			score |= digit(segments[i].Kind)
		} else {
			score |= absentDigit
		}
	}
	return score
}

// RankPattern is Rank(Segmentize(pattern)).
func RankPattern(pattern string) int64 {
	return Rank(Segmentize(pattern))
}

func digit(k SegmentKind) int64 {
	switch k {
	case Static:
		return staticDigit
	case Dynamic:
		return dynamicDigit
	case Root:
		return rootDigit
	case Splat:
		return splatDigit
	default:
		return absentDigit
	}
}
