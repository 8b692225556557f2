package snapshot

import (
	"path/filepath"
	"regexp"
	"strings"
)

var labelPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// MaxLabelLength is the longest version id, the usual file name limit.
const MaxLabelLength = 255

// ValidLabel reports whether label is safe to use as a version directory name.
func ValidLabel(label string) bool {
	return len(label) <= MaxLabelLength && labelPattern.MatchString(label)
}

// ValidFileName reports whether name can live in the top level of the live
// directory: a bare file name, not hidden, and not the metadata record.
func ValidFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return name != MetadataFile
}
