package sactool

import (
	"regexp"
	"strings"
)

// Pre-compiled regexes for classifying sac output. SAC prints numbered
// ERROR lines to stdout and keeps processing the macro, so the caller
// decides severity from the first match.
var (
	reErrorLine = regexp.MustCompile(`(?m)^\s*ERROR\s+\d+:.*$`)

	reFileMissing = regexp.MustCompile(
		`(?i)ERROR\s+\d+:\s*(File does not exist|Could not open file|No data files read in)`)

	reBadResponse = regexp.MustCompile(
		`(?i)ERROR\s+\d+:.*(polezero|transfer)`)
)

// FirstErrorLine returns the first ERROR line in the output, or "".
func FirstErrorLine(output string) string {
	return strings.TrimSpace(reErrorLine.FindString(output))
}

// MatchFileMissing reports whether the output contains a missing-input error.
func MatchFileMissing(output string) bool {
	return reFileMissing.MatchString(output)
}

// MatchBadResponse reports whether the output contains a response transfer error.
func MatchBadResponse(output string) bool {
	return reBadResponse.MatchString(output)
}
