package rank

import (
	"regexp"
	"strconv"
)

const (
	defaultCount = 5
	minCount     = 1
	maxCount     = 50
)

// countPatterns recognize an explicit result count in free text, e.g.
// "top 10", "best 3", "show me 7", "12 candidates".
var countPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btop\s+(\d{1,4})\b`),
	regexp.MustCompile(`(?i)\bbest\s+(\d{1,4})\b`),
	regexp.MustCompile(`(?i)\bshow\s+(?:me\s+)?(\d{1,4})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,4})\s+(?:candidates?|resumes?|results?|matches?|profiles?)\b`),
}

// resolveCount picks the requested result count: an in-range explicit hint
// wins, then the first in-range number extracted from the query text, then
// the default. Out-of-range values are ignored rather than clamped, so
// "top 500" quietly becomes the default.
func resolveCount(hint int, rawText string) int {
	if hint >= minCount && hint <= maxCount {
		return hint
	}
	for _, re := range countPatterns {
		m := re.FindStringSubmatch(rawText)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n >= minCount && n <= maxCount {
			return n
		}
		return defaultCount
	}
	return defaultCount
}
