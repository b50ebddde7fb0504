package ui

// NarrowWidth is the terminal width below which rows collapse onto two lines
const NarrowWidth = 60

// Layout selects the arrangement of the file list
type Layout int

const (
	LayoutWide Layout = iota
	LayoutNarrow
)

// LayoutFor picks a layout for the given terminal width. An unknown width
// (zero, before the first resize) renders wide.
func LayoutFor(width int) Layout {
	if width > 0 && width < NarrowWidth {
		return LayoutNarrow
	}
	return LayoutWide
}

func (l Layout) String() string {
	if l == LayoutNarrow {
		return "narrow"
	}
	return "wide"
}
