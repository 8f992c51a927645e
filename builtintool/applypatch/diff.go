// Package applypatch implements a deliberately lenient unified-diff parser
// and applier for the apply_patch builtin tool. Fuzzy context matching is
// out of scope: mis-numbered hunks produce wrong output, not an error.
package applypatch

import (
	"regexp"
	"strconv"
	"strings"
)

// Hunk is one @@ ... @@ block of a unified diff. Lines preserves each
// line's leading '+'/'-'/' ' prefix verbatim.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []string
}

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParseDiff parses a unified diff body into zero or more Hunks. Lines
// beginning with "---" or "+++" (file headers) are skipped. An empty
// physical line inside a hunk is treated as a single-space context line.
func ParseDiff(diff string) []Hunk {
	var hunks []Hunk
	var current *Hunk

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++") {
			continue
		}
		if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				hunks = append(hunks, *current)
			}
			current = &Hunk{
				OldStart: atoi(m[1]),
				OldCount: atoiOr(m[2], 1),
				NewStart: atoi(m[3]),
				NewCount: atoiOr(m[4], 1),
			}
			continue
		}
		if current == nil {
			continue
		}
		if line == "" {
			current.Lines = append(current.Lines, " ")
			continue
		}
		current.Lines = append(current.Lines, line)
	}
	if current != nil {
		hunks = append(hunks, *current)
	}
	return hunks
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	return atoi(s)
}
