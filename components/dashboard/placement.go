package dashboard

// DefaultGridColumns is the column count at the widest breakpoint.
const DefaultGridColumns = 12

// Breakpoint maps a viewport width threshold to a grid column count.
type Breakpoint struct {
	Name     string
	MinWidth int
	Columns  int
}

// Breakpoints returns the responsive grid table, widest first.
func Breakpoints() []Breakpoint {
	return []Breakpoint{
		{Name: "lg", MinWidth: 1200, Columns: 12},
		{Name: "md", MinWidth: 996, Columns: 10},
		{Name: "sm", MinWidth: 768, Columns: 6},
		{Name: "xs", MinWidth: 480, Columns: 4},
		{Name: "xxs", MinWidth: 0, Columns: 2},
	}
}

// ColumnsFor resolves the grid column count for a viewport width.
func ColumnsFor(width int) int {
	for _, bp := range Breakpoints() {
		if width >= bp.MinWidth {
			return bp.Columns
		}
	}
	return 2
}

// FindOptimalPosition computes a non-overlapping grid position for a widget
// of the given size, preferring the topmost then leftmost free slot. The
// scan is deterministic: rows 0..maxY+1 outer, columns 0..cols-w inner,
// first candidate that overlaps nothing wins. cols <= 0 falls back to the
// default column count.
func FindOptimalPosition(existing []Widget, size Size, cols int) Position {
	if cols <= 0 {
		cols = DefaultGridColumns
	}
	if len(existing) == 0 {
		return Position{X: 0, Y: 0}
	}

	maxY := 0
	for _, w := range existing {
		if bottom := w.Y + w.H; bottom > maxY {
			maxY = bottom
		}
	}

	for y := 0; y <= maxY+1; y++ {
		for x := 0; x <= cols-size.W; x++ {
			candidate := Widget{X: x, Y: y, W: size.W, H: size.H}
			free := true
			for _, w := range existing {
				if overlaps(candidate, w) {
					free = false
					break
				}
			}
			if free {
				return Position{X: x, Y: y}
			}
		}
	}

	// Unreachable given the row bound above: a new row always fits.
	return Position{X: 0, Y: maxY + 1}
}

// overlaps is the axis-aligned rectangle test. Rectangles that only share
// an edge do not overlap.
func overlaps(a, b Widget) bool {
	return !(a.X+a.W <= b.X ||
		b.X+b.W <= a.X ||
		a.Y+a.H <= b.Y ||
		b.Y+b.H <= a.Y)
}

// ClampWidget normalizes widget geometry against its own bounds and the
// grid: spans at least 1 and at least Min, at most Max when set, X/Y
// non-negative, and the widget pulled left so X+W never exceeds cols.
func ClampWidget(w Widget, cols int) Widget {
	if cols <= 0 {
		cols = DefaultGridColumns
	}
	if w.W < 1 {
		w.W = 1
	}
	if w.H < 1 {
		w.H = 1
	}
	if w.MinW > 0 && w.W < w.MinW {
		w.W = w.MinW
	}
	if w.MinH > 0 && w.H < w.MinH {
		w.H = w.MinH
	}
	if w.MaxW > 0 && w.W > w.MaxW {
		w.W = w.MaxW
	}
	if w.MaxH > 0 && w.H > w.MaxH {
		w.H = w.MaxH
	}
	if w.W > cols {
		w.W = cols
	}
	if w.X < 0 {
		w.X = 0
	}
	if w.Y < 0 {
		w.Y = 0
	}
	if w.X+w.W > cols {
		w.X = cols - w.W
	}
	return w
}
