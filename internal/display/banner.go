package display

import (
	"fmt"
	"io"
)

// PrintBanner writes the startup banner. Color is the caller's decision
// since only the command layer knows the console settings.
func PrintBanner(w io.Writer, color bool) {
	if color {
		fmt.Fprint(w, "\033[1;36m")
	}
	fmt.Fprint(w, `           _      _           _       _
  ___  ___(_)___ | |__   __ _| |_ ___| |__
 / __|/ _ \ / __|| '_ \ / _`+"`"+` | __/ __| '_ \
 \__ \  __/ \__ \| |_) | (_| | || (__| | | |
 |___/\___|_|___/|_.__/ \__,_|\__\___|_| |_|
`)
	if color {
		fmt.Fprint(w, "\033[0m")
	}
	fmt.Fprintln(w)
}
