package subtitles

import (
	"regexp"
	"strings"
)

// srtTimecode matches an SRT cue time like 00:01:02,345. Only the comma in
// a timecode becomes a period; commas in dialog text are left alone.
var srtTimecode = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}),(\d{3})`)

// ConvertSRT turns SRT subtitle text into WebVTT.
func ConvertSRT(srt string) string {
	vtt := srtTimecode.ReplaceAllString(srt, "$1.$2")
	vtt = strings.ReplaceAll(vtt, "\r\n", "\n")
	return "WEBVTT\n\n" + vtt
}
