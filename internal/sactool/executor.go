package sactool

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ExecResult holds the outcome of a single sac invocation.
type ExecResult struct {
	Output string
	Err    error
}

// Execute runs the sac binary with the script on stdin. SAC reports errors
// on stdout rather than stderr and always exits zero from a macro, so both
// streams are captured together and scanned for error lines afterwards.
func Execute(ctx context.Context, bin string, script *Script) ExecResult {
	cmd := exec.CommandContext(ctx, bin)
	cmd.Stdin = strings.NewReader(script.String())
	cmd.Env = append(os.Environ(), "SAC_DISPLAY_COPYRIGHT=0")

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	res := ExecResult{Output: buf.String(), Err: err}
	if res.Err == nil {
		if line := FirstErrorLine(res.Output); line != "" {
			res.Err = fmt.Errorf("sac: %s", line)
		}
	}
	return res
}
