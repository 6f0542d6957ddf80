package extractor

import "regexp"

var (
	videoIDRe = regexp.MustCompile(`(?:youtu\.be/|youtube\.com/(?:watch\?.*v=|embed/|v/|shorts/|live/))([0-9A-Za-z_-]{11})`)
	bareIDRe  = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

	playlistIDRe = regexp.MustCompile(`[?&]list=((?:PL|LL|EC|UU|FL|RD|UL|TL|PU|OLAK5uy_)[0-9A-Za-z_-]{10,}|RDMM|WL|LL|LM)`)
	listParamRe  = regexp.MustCompile(`[?&]list=`)
	vParamRe     = regexp.MustCompile(`[?&]v=`)
)

// ParseVideoID extracts the canonical 11-character video id from any of the
// standard watch/embed/short-link/live URL shapes, or accepts a bare id
// token. Returns "" when no id-shaped token is found.
func ParseVideoID(urlOrID string) string {
	if bareIDRe.MatchString(urlOrID) {
		return urlOrID
	}
	if m := videoIDRe.FindStringSubmatch(urlOrID); m != nil {
		return m[1]
	}
	return ""
}

// ParsePlaylistID extracts a playlist id from a URL's list parameter.
// Recognizes the known id prefixes plus the special watch-later, liked and
// mix values. Returns "" when absent.
func ParsePlaylistID(url string) string {
	if m := playlistIDRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// IsPlaylistURL reports whether the URL addresses a playlist rather than a
// single video: it carries a list parameter and no v parameter.
func IsPlaylistURL(url string) bool {
	return listParamRe.MatchString(url) && !vParamRe.MatchString(url)
}
