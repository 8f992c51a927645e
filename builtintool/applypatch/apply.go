package applypatch

import "strings"

// Apply computes the new content of a file by applying diff to original.
//
// An empty diff is a no-op: original is returned unchanged.
//
// With zero hunks otherwise, diff is treated as a bare content block for new
// files: file headers are filtered out and a leading '+' is stripped from
// each remaining line before joining with newline. This path is only valid
// for new files (original == ""); a non-empty original with a hunk-less,
// non-empty diff would otherwise be silently discarded.
//
// With one or more hunks: original lines before the first hunk's start are
// copied verbatim, each hunk line is replayed against a cursor into the
// original ('-' advances the cursor without emitting, '+' emits without
// advancing, a context line emits its stripped text and advances), and any
// original lines left after the final hunk are appended.
func Apply(original, diff string) string {
	if diff == "" {
		return original
	}
	hunks := ParseDiff(diff)
	if len(hunks) == 0 {
		return applyBareContent(diff)
	}
	return applyHunks(original, hunks)
}

func applyBareContent(diff string) string {
	var out []string
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++") {
			continue
		}
		out = append(out, strings.TrimPrefix(line, "+"))
	}
	return strings.Join(out, "\n")
}

func applyHunks(original string, hunks []Hunk) string {
	origLines := strings.Split(original, "\n")
	var out []string
	cursor := 0

	for _, h := range hunks {
		end := h.OldStart - 1
		if end > len(origLines) {
			end = len(origLines)
		}
		if end < cursor {
			end = cursor
		}
		out = append(out, origLines[cursor:end]...)
		cursor = end

		for _, line := range h.Lines {
			if line == "" {
				continue
			}
			prefix, rest := line[0], line[1:]
			switch prefix {
			case '-':
				if cursor < len(origLines) {
					cursor++
				}
			case '+':
				out = append(out, rest)
			default: // ' ' or any other context line
				out = append(out, rest)
				if cursor < len(origLines) {
					cursor++
				}
			}
		}
	}
	if cursor < len(origLines) {
		out = append(out, origLines[cursor:]...)
	}
	return strings.Join(out, "\n")
}
