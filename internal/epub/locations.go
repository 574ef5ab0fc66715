package epub

import "fmt"

// locations is the sampled pagination index: the document's text is cut
// into equal-sized rune slices so that positions can be mapped to reading
// percentages and stepped through like pages.
type locations struct {
	sectionLens  []int // rune length per spine section
	sectionStart []int // cumulative start offset per section
	total        int
	step         int
}

// BuildLocations walks every section once and slices the document into
// roughly samples equal parts. It must be called before the position math
// helpers; opening the index on an already-indexed document is a no-op.
func (d *Document) BuildLocations(samples int) error {
	if d.locations != nil {
		return nil
	}
	if samples <= 0 {
		samples = 1000
	}

	loc := &locations{
		sectionLens:  make([]int, len(d.sections)),
		sectionStart: make([]int, len(d.sections)),
	}
	for i := range d.sections {
		text, err := d.sectionText(i)
		if err != nil {
			return fmt.Errorf("failed to index section %d: %w", i, err)
		}
		loc.sectionStart[i] = loc.total
		loc.sectionLens[i] = len([]rune(text))
		loc.total += loc.sectionLens[i]
	}
	if loc.total == 0 {
		return fmt.Errorf("epub has no text content")
	}
	loc.step = loc.total / samples
	if loc.step == 0 {
		loc.step = 1
	}
	d.locations = loc
	return nil
}

// absoluteOffset translates a section-local offset into a whole-document
// rune offset, clamped to the document.
func (l *locations) absoluteOffset(section, offset int) int {
	if section >= len(l.sectionStart) {
		return l.total
	}
	abs := l.sectionStart[section] + offset
	if abs > l.total {
		abs = l.total
	}
	return abs
}

// position translates a whole-document rune offset back into a section
// and local offset.
func (l *locations) position(abs int) (section, offset int) {
	if abs < 0 {
		abs = 0
	}
	if abs >= l.total {
		abs = l.total - 1
	}
	for i := len(l.sectionStart) - 1; i >= 0; i-- {
		if abs >= l.sectionStart[i] {
			return i, abs - l.sectionStart[i]
		}
	}
	return 0, 0
}

// PercentFromPosition maps a position (or range, taken at its start) to a
// 0-100 reading percentage. An empty token maps to 0, matching a book that
// has never been opened.
func (d *Document) PercentFromPosition(token string) (float64, error) {
	if token == "" {
		return 0, nil
	}
	if d.locations == nil {
		return 0, fmt.Errorf("locations not built")
	}

	var section, offset int
	var err error
	if IsRangeToken(token) {
		section, offset, _, err = parseRange(token)
	} else {
		section, offset, err = parsePosition(token)
	}
	if err != nil {
		return 0, err
	}
	abs := d.locations.absoluteOffset(section, offset)
	return float64(abs) / float64(d.locations.total) * 100, nil
}

// PositionFromPercent maps a 0-100 percentage back onto a position token,
// used for scrubbing to an arbitrary point in the book.
func (d *Document) PositionFromPercent(percent float64) (string, error) {
	if d.locations == nil {
		return "", fmt.Errorf("locations not built")
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	abs := int(percent / 100 * float64(d.locations.total))
	section, offset := d.locations.position(abs)
	return mintPosition(section, offset), nil
}

// FirstPosition returns the start of the document.
func (d *Document) FirstPosition() string {
	return mintPosition(0, 0)
}

// NextPosition advances one location slice forward, clamped to the end of
// the document.
func (d *Document) NextPosition(token string) (string, error) {
	return d.stepPosition(token, 1)
}

// PrevPosition steps one location slice back, clamped to the start.
func (d *Document) PrevPosition(token string) (string, error) {
	return d.stepPosition(token, -1)
}

func (d *Document) stepPosition(token string, direction int) (string, error) {
	if d.locations == nil {
		return "", fmt.Errorf("locations not built")
	}
	if token == "" {
		token = d.FirstPosition()
	}
	section, offset, err := parsePosition(token)
	if err != nil {
		return "", err
	}
	abs := d.locations.absoluteOffset(section, offset) + direction*d.locations.step
	if abs < 0 {
		abs = 0
	}
	if abs > d.locations.total-1 {
		abs = d.locations.total - 1
	}
	section, offset = d.locations.position(abs)
	return mintPosition(section, offset), nil
}

// LocationOf returns the 1-based location slice a position falls in, used
// for bookmark labels.
func (d *Document) LocationOf(token string) (int, error) {
	if d.locations == nil {
		return 0, fmt.Errorf("locations not built")
	}
	section, offset, err := parsePosition(token)
	if err != nil {
		return 0, err
	}
	abs := d.locations.absoluteOffset(section, offset)
	return abs/d.locations.step + 1, nil
}
