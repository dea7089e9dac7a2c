package models

// SpeechScript is the list of segments read aloud for a summary: the
// overview first when there is one, then each key point in order.
type SpeechScript struct {
	Segments       []string
	KeyPointOffset int
}

// NewSpeechScript builds the script for s. A nil summary yields no segments.
func NewSpeechScript(s *Summary) SpeechScript {
	var script SpeechScript
	if s == nil {
		return script
	}
	if s.Overview != "" {
		script.Segments = append(script.Segments, s.Overview)
		script.KeyPointOffset = 1
	}
	for _, kp := range s.KeyPoints {
		script.Segments = append(script.Segments, kp.Text)
	}
	return script
}

// KeyPointIndex maps a segment index to its key point.
func (s SpeechScript) KeyPointIndex(segment int) (int, bool) {
	if segment < s.KeyPointOffset || segment >= len(s.Segments) {
		return 0, false
	}
	return segment - s.KeyPointOffset, true
}
