package subtitles

import (
	"strings"
	"testing"
)

func TestConvertSRT(t *testing.T) {
	srt := "1\r\n00:00:01,000 --> 00:00:04,500\r\nHello, world, again\r\n\r\n2\r\n00:01:02,345 --> 00:01:05,000\r\nSecond line\r\n"

	vtt := ConvertSRT(srt)

	if !strings.HasPrefix(vtt, "WEBVTT\n\n") {
		t.Errorf("Expected WEBVTT header, got %q", vtt[:20])
	}
	if !strings.Contains(vtt, "00:00:01.000 --> 00:00:04.500") {
		t.Error("Timecode commas were not converted to periods")
	}
	if !strings.Contains(vtt, "Hello, world, again") {
		t.Error("Dialog commas must not be converted")
	}
	if strings.Contains(vtt, "\r\n") {
		t.Error("CRLF line endings were not normalized")
	}
}

func TestConvertSRTEmptyInput(t *testing.T) {
	if got := ConvertSRT(""); got != "WEBVTT\n\n" {
		t.Errorf("Expected bare header for empty input, got %q", got)
	}
}
