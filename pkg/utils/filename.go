package utils

import "strings"

// DefaultFilenameLength is the display budget used for result entries.
const DefaultFilenameLength = 30

// TruncateFilename shortens name to roughly maxLength runes while keeping the
// extension, e.g. "a_very_long_filename_indeed.png" -> "a_very_long_f....png".
// Names that already fit are returned unchanged.
func TruncateFilename(name string, maxLength int) string {
	r := []rune(name)
	if len(r) <= maxLength {
		return name
	}
	ext := ""
	if i := strings.LastIndex(name, "."); i != -1 {
		ext = name[i:]
	}
	cut := maxLength - len([]rune(ext)) - 3
	// long extensions would otherwise produce a negative cut
	if cut < 0 {
		cut = 0
	}
	if cut > len(r) {
		cut = len(r)
	}
	return string(r[:cut]) + "..." + ext
}
