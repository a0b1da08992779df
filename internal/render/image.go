package render

import (
	"os"
	"strconv"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// EXIF orientation values that need a rotation to display upright.
// Mirrored orientations (2, 4, 5, 7) are drawn as stored.
const (
	orientationNormal = 1
	orientation180    = 3
	orientationCW90   = 6
	orientationCCW90  = 8
)

// imageOrientation returns the EXIF orientation of the image at path, or
// orientationNormal when the file carries no EXIF data.
func imageOrientation(path string) int {
	data, err := os.ReadFile(path) //nolint:gosec // Path is resolved below the report root
	if err != nil {
		return orientationNormal
	}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return orientationNormal
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return orientationNormal
	}

	for _, entry := range entries {
		if entry.TagName != "Orientation" {
			continue
		}
		if v, ok := entry.Value.([]uint16); ok && len(v) > 0 {
			return int(v[0])
		}
		if n, err := strconv.Atoi(strings.Trim(entry.Formatted, "[] ")); err == nil {
			return n
		}
	}
	return orientationNormal
}

// rotation returns the counter-clockwise angle in degrees that turns an
// image stored with orientation upright, and whether width and height swap.
func rotation(orientation int) (angle float64, swap bool) {
	switch orientation {
	case orientation180:
		return 180, false
	case orientationCW90:
		return -90, true
	case orientationCCW90:
		return 90, true
	default:
		return 0, false
	}
}
