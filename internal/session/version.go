package session

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrPinUnsupported reports that the launcher cannot resolve a browser build
// for the requested major version.
var ErrPinUnsupported = errors.New("session: version pinning not supported")

// Typical mismatch text: "This version of ChromeDriver only supports Chrome
// version 120 ... Current browser version is 131.0.6778.85". The phrase
// markers are owned by a third party, so the parse is best effort only;
// callers must propagate the original error when nothing matches.
var (
	mismatchPattern = regexp.MustCompile(`(?is)supports Chrome version\s*(\d+).*?Current browser version is\s*(\d+)`)
	currentPattern  = regexp.MustCompile(`(?i)Current browser version is\s*(\d+)`)
)

// browserMajorFromError extracts the installed browser's major version from a
// driver provisioning error message. ok is false when neither phrase marker
// is present.
func browserMajorFromError(msg string) (major int, ok bool) {
	if m := mismatchPattern.FindStringSubmatch(msg); len(m) == 3 {
		if v, err := strconv.Atoi(m[2]); err == nil {
			return v, true
		}
	}
	if m := currentPattern.FindStringSubmatch(msg); len(m) == 2 {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return v, true
		}
	}
	return 0, false
}

// chromiumRevisions maps a Chrome major version to a chromium snapshot
// revision the launcher can fetch. Majors outside this table cannot be
// pinned and fall back to default version resolution.
var chromiumRevisions = map[int]int{
	114: 1135570,
	115: 1148114,
	116: 1160321,
	117: 1181205,
	118: 1192594,
	119: 1204232,
	120: 1217362,
	121: 1233107,
	122: 1250586,
	123: 1262506,
	124: 1274542,
	125: 1287751,
	126: 1300313,
	127: 1313161,
	128: 1331488,
	129: 1345085,
	130: 1356013,
	131: 1368529,
	132: 1381561,
	133: 1402768,
}
