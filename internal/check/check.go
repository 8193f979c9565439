// Package check provides system diagnostics (the check command) and
// pre-stage dependency validation for the external sac and mseed2sac tools.
package check

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/halolab/seisbatch/internal/pather"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrSACNotFound       = errors.New("sac not found")
	ErrMseed2sacNotFound = errors.New("mseed2sac not found")
)

// CheckDeps verifies the external tools the named stages depend on before
// any unit is processed. Tools are resolved in the bin directory first,
// then on PATH.
func CheckDeps(binDir string, needSAC, needMseed2sac bool) error {
	if needSAC {
		if _, err := resolve("sac", binDir); err != nil {
			return fmt.Errorf("%w (looked in %s and PATH)", ErrSACNotFound, binDir)
		}
	}
	if needMseed2sac {
		if _, err := resolve("mseed2sac", binDir); err != nil {
			return fmt.Errorf("%w (looked in %s and PATH)", ErrMseed2sacNotFound, binDir)
		}
	}
	return nil
}

func resolve(tool, binDir string) (string, error) {
	if path, err := pather.Binuse(tool, binDir); err == nil {
		return path, nil
	}
	return exec.LookPath(tool)
}

// RunCheck runs the interactive diagnostics flow: reports the bin
// directory, tool availability, and write access to the working directory.
// Informational only; it never stops on failure.
func RunCheck(binDir string, log zerolog.Logger) {
	log.Info().Msg("system check")

	if abs, err := filepath.Abs(binDir); err == nil {
		binDir = abs
	}
	if info, err := os.Stat(binDir); err != nil {
		log.Warn().Str("bin_dir", binDir).Msg("bin directory missing; falling back to PATH")
	} else if !info.IsDir() {
		log.Warn().Str("bin_dir", binDir).Msg("bin directory is not a directory")
	} else {
		log.Info().Str("bin_dir", binDir).Msg("bin directory")
	}

	for _, tool := range []string{"sac", "mseed2sac"} {
		path, err := resolve(tool, binDir)
		if err != nil {
			log.Warn().Str("tool", tool).Msg("not found")
			continue
		}
		log.Info().Str("tool", tool).Str("path", path).Msg("found")
	}

	if wd, err := os.Getwd(); err == nil {
		probe := filepath.Join(wd, ".seisbatch-write-check")
		if f, err := os.Create(probe); err != nil {
			log.Warn().Str("dir", wd).Err(err).Msg("working directory not writable")
		} else {
			f.Close()
			os.Remove(probe)
			log.Info().Str("dir", wd).Msg("working directory writable")
		}
	}
}
