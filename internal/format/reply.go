package format

import (
	"regexp"
	"strings"
)

const signatureDelimiter = "-- "

var (
	attributionRe      = regexp.MustCompile(`(?i)^\s*on\s.*\bwrote:\s*$`)
	attributionStartRe = regexp.MustCompile(`(?i)^\s*on\s`)
)

// ExtractReply returns the newly written part of a plain text body. The first
// of these lines ends it: an "On <date>, <name> wrote:" attribution, a line
// starting with ">", or the "-- " signature delimiter.
//
// This is a heuristic. Replies quoted without any of these markers, such as
// top-posted history with no attribution line, are returned whole.
func ExtractReply(body string) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")

	end := len(lines)
	for i, line := range lines {
		if isBoundary(lines, i, line) {
			end = i
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines[:end], "\n"))
}

func isBoundary(lines []string, i int, line string) bool {
	if line == signatureDelimiter {
		return true
	}
	if strings.HasPrefix(strings.TrimLeft(line, " \t"), ">") {
		return true
	}
	if attributionRe.MatchString(line) {
		return true
	}

	// clients wrap long attributions onto a second line; the first line
	// still carries the "On <date>, <name>" comma
	return attributionStartRe.MatchString(line) &&
		strings.Contains(line, ",") &&
		i+1 < len(lines) &&
		attributionRe.MatchString(line+" "+lines[i+1])
}
