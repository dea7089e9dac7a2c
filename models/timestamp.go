package models

import (
	"fmt"
	"math"
)

const watchBase = "https://www.youtube.com/watch?v="

// FormatTimestamp renders seconds as m:ss, or h:mm:ss past the hour.
func FormatTimestamp(seconds float64) string {
	s := int(math.Floor(seconds))
	if s < 0 {
		s = 0
	}
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// WatchURL links to the video on YouTube.
func WatchURL(videoID string) string {
	return watchBase + videoID
}

// WatchURLAt links to the video starting at seconds.
func WatchURLAt(videoID string, seconds float64) string {
	return fmt.Sprintf("%s%s&t=%ds", watchBase, videoID, int(math.Floor(seconds)))
}
