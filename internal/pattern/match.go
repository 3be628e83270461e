package pattern

// Match reports whether path satisfies pattern.
//
// The scan walks both sequences with one index each. A "**" is resolved by
// jumping the path index forward so that exactly as many path segments remain
// as there are pattern tokens after the globstar. An empty pattern or an empty
// path never matches.
func Match(p Pattern, path Path) bool {
	if len(p) == 0 || len(path) == 0 {
		return false
	}

	i, j := 0, 0
	for i < len(p) {
		tok := p[i]

		if tok == Globstar {
			tail := len(p) - i - 1
			if len(path)-j < tail {
				return false
			}
			j = len(path) - tail
			i++
			continue
		}

		if j >= len(path) {
			return false
		}
		if tok != Wildcard && tok != path[j] {
			return false
		}
		i++
		j++
	}

	return j == len(path)
}

// Matches returns true if the path matches the given pattern.
func (p Path) Matches(pat Pattern) bool {
	return Match(pat, p)
}
