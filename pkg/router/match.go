package router

import (
	"strings"

	"github.com/vango-dev/wayfinder/pkg/routepath"
)

// Pick returns the best route for pathname.
//
// Every route whose pattern aligns with the pathname is a candidate. The
// winner has the highest rank; equal ranks prefer more segments, then the
// earlier route. Any query or hash on pathname is ignored. When nothing
// aligns Pick returns nil, false.
func Pick(routes []Route, pathname string) (*Match, bool) {
	pathname, _, _ = routepath.SplitLocation(pathname)
	tokens := routepath.Split(pathname)

	var (
		best     *Match
		bestRank int64
		bestLen  int
	)
	for _, route := range routes {
		segments := routepath.Segmentize(route.Path)
		params, uri, ok := align(segments, tokens)
		if !ok {
			continue
		}

		rank := routepath.Rank(segments)
		if best != nil {
			if rank < bestRank || (rank == bestRank && len(segments) <= bestLen) {
				continue
			}
		}
		best = &Match{Route: route, Params: params, URI: uri}
		bestRank = rank
		bestLen = len(segments)
	}
	return best, best != nil
}

// MatchPath matches a single pattern against pathname.
func MatchPath(pattern, pathname string) (*Match, bool) {
	return Pick([]Route{{Path: pattern}}, pathname)
}

// align walks pattern segments and pathname tokens side by side.
func align(segments []routepath.Segment, tokens []string) (map[string]string, string, bool) {
	params := make(map[string]string)

	if len(segments) == 1 && segments[0].Kind == routepath.Root {
		if len(tokens) != 0 {
			return nil, "", false
		}
		return params, "/", true
	}

	for i, seg := range segments {
		if seg.Kind == routepath.Splat {
			if i != len(segments)-1 {
				return nil, "", false
			}
			params[seg.Value] = strings.Join(tokens[i:], "/")
			return params, "/" + strings.Join(tokens, "/"), true
		}

		if i >= len(tokens) {
			return nil, "", false
		}

		switch seg.Kind {
		case routepath.Static:
			if tokens[i] != seg.Value {
				return nil, "", false
			}
		case routepath.Dynamic:
			params[seg.Value] = tokens[i]
		default:
			return nil, "", false
		}
	}

	if len(tokens) > len(segments) {
		return nil, "", false
	}
	return params, "/" + strings.Join(tokens, "/"), true
}
