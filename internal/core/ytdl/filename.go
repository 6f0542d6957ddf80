package ytdl

import (
	"regexp"
	"strings"
)

var (
	filenameSpaceRe = regexp.MustCompile(`\s+`)
	filenameURLRe   = regexp.MustCompile(`https?://\S+`)
)

var filenameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\n", " ",
	"\r", "",
)

// SanitizeFilename turns a video title into a safe filename: path and shell
// metacharacters go, embedded URLs go, whitespace collapses. The result is
// capped at 60 runes so CJK titles stay under common filesystem byte limits
// with room for an extension. Returns "" when nothing survives.
func SanitizeFilename(title string) string {
	name := filenameReplacer.Replace(title)
	name = filenameURLRe.ReplaceAllString(name, "")
	name = filenameSpaceRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = strings.Trim(name, ".")

	const maxRunes = 60
	if runes := []rune(name); len(runes) > maxRunes {
		name = string(runes[:maxRunes])
	}
	return strings.TrimSpace(name)
}
