package epub

import (
	"fmt"
	"strings"
)

// Position and range tokens are opaque outside this package. A position
// pins a rune offset within a spine section; a range pins a start and end
// offset within one section. Tokens from one document are only meaningful
// against the same document.
const (
	positionPrefix = "loc:"
	rangePrefix    = "rng:"
)

func mintPosition(section, offset int) string {
	return fmt.Sprintf("%s%04d:%08d", positionPrefix, section, offset)
}

func mintRange(section, start, end int) string {
	return fmt.Sprintf("%s%04d:%08d:%08d", rangePrefix, section, start, end)
}

func parsePosition(token string) (section, offset int, err error) {
	if !strings.HasPrefix(token, positionPrefix) {
		return 0, 0, fmt.Errorf("malformed position token %q", token)
	}
	if _, err := fmt.Sscanf(token, positionPrefix+"%d:%d", &section, &offset); err != nil {
		return 0, 0, fmt.Errorf("malformed position token %q", token)
	}
	if section < 0 || offset < 0 {
		return 0, 0, fmt.Errorf("malformed position token %q", token)
	}
	return section, offset, nil
}

func parseRange(token string) (section, start, end int, err error) {
	if !strings.HasPrefix(token, rangePrefix) {
		return 0, 0, 0, fmt.Errorf("malformed range token %q", token)
	}
	if _, err := fmt.Sscanf(token, rangePrefix+"%d:%d:%d", &section, &start, &end); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed range token %q", token)
	}
	if section < 0 || start < 0 || end < start {
		return 0, 0, 0, fmt.Errorf("malformed range token %q", token)
	}
	return section, start, end, nil
}

// IsRangeToken reports whether token names a text range rather than a
// single position.
func IsRangeToken(token string) bool {
	return strings.HasPrefix(token, rangePrefix)
}

// SectionHref returns the spine href the token falls in. Used for
// current-chapter display.
func (d *Document) SectionHref(token string) (string, error) {
	var section int
	var err error
	if IsRangeToken(token) {
		section, _, _, err = parseRange(token)
	} else {
		section, _, err = parsePosition(token)
	}
	if err != nil {
		return "", err
	}
	if section >= len(d.sections) {
		return "", fmt.Errorf("position token %q outside document", token)
	}
	return d.sections[section], nil
}

// RangeText returns the text a range token covers, clamped to the section.
func (d *Document) RangeText(token string) (string, error) {
	section, start, end, err := parseRange(token)
	if err != nil {
		return "", err
	}
	text, err := d.sectionText(section)
	if err != nil {
		return "", err
	}
	runes := []rune(text)
	if start > len(runes) {
		start = len(runes)
	}
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end]), nil
}

// SectionStart returns the position at the top of the given spine section.
func (d *Document) SectionStart(index int) (string, error) {
	if index < 0 || index >= len(d.sections) {
		return "", fmt.Errorf("section %d out of range", index)
	}
	return mintPosition(index, 0), nil
}

// PositionOfRange collapses a range token to its start position.
func PositionOfRange(token string) (string, error) {
	section, start, _, err := parseRange(token)
	if err != nil {
		return "", err
	}
	return mintPosition(section, start), nil
}
