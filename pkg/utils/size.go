package utils

import "fmt"

var byteUnits = []struct {
	size  int64
	long  string
	short string
}{
	{1 << 40, "TB", "T"},
	{1 << 30, "GB", "G"},
	{1 << 20, "MB", "M"},
	{1 << 10, "KB", "K"},
}

// HumanizeBytes formats a byte count into a readable string, e.g. "1.50 MB".
func HumanizeBytes(b int64) string {
	for _, u := range byteUnits {
		if b >= u.size {
			return fmt.Sprintf("%.2f %s", float64(b)/float64(u.size), u.long)
		}
	}
	return fmt.Sprintf("%d B", b)
}

// HumanizeBytesCompact formats a byte count without a space, e.g. 1536 -> "1.50K".
func HumanizeBytesCompact(b int64) string {
	for _, u := range byteUnits {
		if b >= u.size {
			return fmt.Sprintf("%.2f%s", float64(b)/float64(u.size), u.short)
		}
	}
	return fmt.Sprintf("%dB", b)
}
