package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"mediasort/internal/services"
)

// ResolveExiftool locates the exiftool executable. The configured binary is
// resolved through PATH first, then each well-known install location is
// tried in order.
func ResolveExiftool(binary string, searchPaths []string) (string, error) {
	binary = strings.TrimSpace(binary)
	if binary != "" {
		if resolved, err := exec.LookPath(binary); err == nil {
			return resolved, nil
		}
	}
	for _, candidate := range searchPaths {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() || info.Mode().Perm()&0o111 == 0 {
			continue
		}
		return candidate, nil
	}
	return "", services.Wrap(
		services.ErrExternalTool,
		"deps",
		"resolve exiftool",
		fmt.Sprintf("exiftool not found (binary %q, %d search paths); install it or set exiftool.binary", binary, len(searchPaths)),
		nil,
	)
}
