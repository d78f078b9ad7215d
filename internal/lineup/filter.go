package lineup

import (
	"strconv"
	"strings"
)

// radioKeywords are guide-name fragments that mark a channel as a radio
// station when the guide number gives no signal.
var radioKeywords = []string{
	"radio", "fm", "am", "music", "npr", "jazz",
	"classical", "rock", "news radio", "talk radio",
}

// IsLikelyRadio reports whether a channel looks like a radio station.
//
// Radio stations usually carry guide numbers in the FM band (88-108) or
// names containing radio-related keywords. TV channels fail both checks.
func IsLikelyRadio(key, name string) bool {
	// Guide numbers may be compound ("101.3-2"); the leading component
	// carries the frequency.
	lead := key
	if i := strings.IndexByte(lead, '-'); i >= 0 {
		lead = lead[:i]
	}
	if num, err := strconv.ParseFloat(lead, 64); err == nil {
		if num >= 88.0 && num <= 108.0 {
			return true
		}
	}

	lower := strings.ToLower(name)
	for _, keyword := range radioKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// FilterRadio returns only the channels that look like radio stations.
// The input order is preserved.
func FilterRadio(channels []Channel) []Channel {
	out := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if IsLikelyRadio(ch.Key, ch.Name) {
			out = append(out, ch)
		}
	}
	return out
}
