package validator

import (
	"regexp"
	"strings"
)

// diskNameRegexp defines the valid format for disk names:
// lowercase letters, numbers, underscores, and hyphens, 1-32 characters.
var diskNameRegexp = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// ValidateDiskName checks if the given name can identify a storage disk.
func ValidateDiskName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name {
		return false
	}
	return diskNameRegexp.MatchString(trimmed)
}
