// Package sactool builds and executes SAC macro scripts over stdin. It is
// the alternate waveform backend for the deconvolution and resampling
// stages, selected when the configured method delegates to the external
// sac binary instead of the in-process transforms.
package sactool

import (
	"fmt"
	"strings"
)

// Script accumulates SAC commands and renders them as a stdin macro. SAC
// reads commands line by line and exits on "quit", so the rendered script
// always ends with one.
type Script struct {
	lines []string
}

// NewScript returns an empty script.
func NewScript() *Script {
	return &Script{}
}

// Add appends one raw command line.
func (s *Script) Add(format string, args ...any) *Script {
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
	return s
}

// Read loads a waveform file into SAC memory.
func (s *Script) Read(path string) *Script {
	return s.Add("r %s", path)
}

// Write stores SAC memory to a waveform file.
func (s *Script) Write(path string) *Script {
	return s.Add("w %s", path)
}

// Preprocess appends the standard deconvolution preparation: remove mean,
// remove linear trend, taper the ends.
func (s *Script) Preprocess() *Script {
	return s.Add("rmean").Add("rtr").Add("taper")
}

// Transfer appends an instrument response removal through a pole-zero file,
// band limited by the four-corner pre-filter, with the meters-to-nanometers
// scale applied afterwards.
func (s *Script) Transfer(pzPath string, f1, f2, f3, f4 float64) *Script {
	s.Add("transfer from polezero subtype %s to none freq %g %g %g %g",
		pzPath, f1, f2, f3, f4)
	return s.Add("mul 1.0e9")
}

// Interpolate appends a resampling step to the given rate in Hz.
func (s *Script) Interpolate(rate float64) *Script {
	return s.Add("interpolate delta %g", 1/rate)
}

// String renders the script with a terminating quit command.
func (s *Script) String() string {
	return strings.Join(append(append([]string{}, s.lines...), "quit", ""), "\n")
}
