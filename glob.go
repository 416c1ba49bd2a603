package cbuild

// Match reports whether name matches the wildcard pattern.
//
// Exactly two wildcard tokens are supported:
//
//	*  matches zero or more arbitrary characters
//	?  matches exactly one arbitrary character
//
// Every other character must match literally, including path separators:
// unlike [path/filepath.Match], '*' crosses separators and there are no
// character classes. A pattern consisting solely of '*' matches
// everything, including the empty string.
//
// The matcher is the classic backtracking algorithm: pattern and name
// advance in lock-step through literal and '?' matches; each '*' records a
// backtrack point, and a later mismatch rewinds to the most recent '*'
// with one more name byte consumed by it. Matching operates on bytes, so
// '?' consumes one byte, not one rune.
func Match(pattern, name string) bool {
	var px, nx int

	// Most recent '*' position and the name position its retry resumes at.
	starPx, starNx := -1, 0

	for nx < len(name) {
		if px < len(pattern) {
			switch c := pattern[px]; {
			case c == '*':
				// Optimistically match zero bytes; remember where to
				// retry with more.
				starPx, starNx = px, nx
				px++

				continue
			case c == '?' || c == name[nx]:
				px++
				nx++

				continue
			}
		}

		// Mismatch: give the most recent '*' one more byte and retry.
		if starPx >= 0 {
			starNx++
			px = starPx + 1
			nx = starNx

			continue
		}

		return false
	}

	// Name exhausted; only trailing '*'s may remain in the pattern.
	for px < len(pattern) && pattern[px] == '*' {
		px++
	}

	return px == len(pattern)
}
