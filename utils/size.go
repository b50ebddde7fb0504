package utils

import "fmt"

const (
	kb = 1024
	mb = kb * 1024
	gb = mb * 1024
	tb = gb * 1024
)

// HumanizeBytes formats a byte count into a readable string, e.g. 1536 -> "1.50 KB"
func HumanizeBytes(b int64) string {
	switch {
	case b >= tb:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(tb))
	case b >= gb:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// HumanizeBytesCompact formats without the space, e.g. 1536 -> "1.50K"
func HumanizeBytesCompact(b int64) string {
	switch {
	case b >= tb:
		return fmt.Sprintf("%.2fT", float64(b)/float64(tb))
	case b >= gb:
		return fmt.Sprintf("%.2fG", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2fM", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2fK", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%dB", b)
	}
}
