package dating

import (
	"strings"

	"mediasort/internal/metadata"
)

var (
	subsecondFields   = []string{"SubSecTimeOriginal", "SubSecTime", "SubSecTimeDigitized"}
	subsecondSections = []string{"ExifIFD", metadata.Root}
	// Some camera firmware writes these fragments into every SubSec tag.
	corruptSubseconds = []string{"9642", "9643", "9644", "9645", "0964"}
)

// Subseconds is the sanitized sub-second component of a capture time.
type Subseconds struct {
	// Value is six digits, or empty when nothing usable was found.
	Value string
	// NeedsCleaning reports that a corrupt value was seen and no valid one
	// replaced it; the destination's SubSec tags should be cleared.
	NeedsCleaning bool
}

// ResolveSubseconds returns the first usable sub-second value.
func ResolveSubseconds(md metadata.Metadata) Subseconds {
	needsCleaning := false
	for _, section := range subsecondSections {
		for _, field := range subsecondFields {
			raw, ok := md.Lookup(section, field)
			if !ok {
				continue
			}
			value := strings.TrimSpace(raw)
			if value == "" {
				continue
			}
			if isCorruptSubseconds(value) {
				needsCleaning = true
				continue
			}
			if strings.HasPrefix(value, "0") && strings.Trim(value, "0") != "" {
				value = strings.TrimLeft(value, "0")
			}
			if !isDigits(value) || strings.Trim(value, "0") == "" {
				continue
			}
			return Subseconds{Value: padSubseconds(value)}
		}
	}
	return Subseconds{NeedsCleaning: needsCleaning}
}

func isCorruptSubseconds(value string) bool {
	for _, pattern := range corruptSubseconds {
		if strings.Contains(value, pattern) {
			return true
		}
	}
	return false
}

func padSubseconds(value string) string {
	if len(value) < 6 {
		value = strings.Repeat("0", 6-len(value)) + value
	}
	return value[:6]
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
