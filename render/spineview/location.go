package spineview

import (
	"fmt"
	"strconv"
	"strings"

	"epr/render"
)

const locationPrefix = "sec/"

// FormatLocation builds the adapter's location pointer for a section index
// and a progress fraction within it.
func FormatLocation(index int, fraction float64) render.Location {
	return render.Location(locationPrefix + strconv.Itoa(index) + "@" + strconv.FormatFloat(fraction, 'g', -1, 64))
}

// IsLocation reports whether target carries the adapter's pointer prefix,
// distinguishing stored pointers from navigation refs.
func IsLocation(target string) bool {
	return strings.HasPrefix(target, locationPrefix)
}

// ParseLocation decodes a pointer produced by FormatLocation. The section
// index is not range checked here, only against the open book at display
// time.
func ParseLocation(loc render.Location) (int, float64, error) {
	rest, ok := strings.CutPrefix(string(loc), locationPrefix)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrBadLocation, loc)
	}
	idxStr, fracStr, found := strings.Cut(rest, "@")
	if !found {
		return 0, 0, fmt.Errorf("%w: %s", ErrBadLocation, loc)
	}
	index, err := strconv.Atoi(idxStr)
	if err != nil || index < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrBadLocation, loc)
	}
	fraction, err := strconv.ParseFloat(fracStr, 64)
	if err != nil || fraction < 0 || fraction >= 1 {
		return 0, 0, fmt.Errorf("%w: %s", ErrBadLocation, loc)
	}
	return index, fraction, nil
}
