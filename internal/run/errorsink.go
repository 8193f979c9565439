package run

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteArtifact persists the failure diagnostics of a finalized summary to
// dir/errors_<runid>.txt, one diagnostic per line. No artifact is written
// for a clean run, and the empty path is returned. The artifact is written
// to a temporary name and renamed so a crash cannot leave a truncated file
// that looks complete.
func WriteArtifact(dir string, s *Summary) (string, error) {
	if s.Clean() {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error artifact: %w", err)
	}

	path := filepath.Join(dir, "errors_"+s.RunID+".txt")
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("error artifact: %w", err)
	}
	for _, diag := range s.Diags {
		if _, err := fmt.Fprintln(f, diag); err != nil {
			f.Close()
			os.Remove(tmp)
			return "", fmt.Errorf("error artifact: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("error artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("error artifact: %w", err)
	}
	return path, nil
}
