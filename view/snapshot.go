package view

import (
	"github.com/nijaru/yt-review/models"
	"github.com/nijaru/yt-review/player"
	"github.com/nijaru/yt-review/speech"
)

// Snapshot is everything the detail page renders.
type Snapshot struct {
	Video    *VideoInfo      `json:"video,omitempty"`
	Player   player.Snapshot `json:"player"`
	Speech   speech.Snapshot `json:"speech"`
	Segments []string        `json:"segments,omitempty"`
	// ShowSpeech is false when controls should be hidden.
	ShowSpeech bool `json:"show_speech"`
	// WatchURL links out to YouTube when the embed failed.
	WatchURL string `json:"watch_url,omitempty"`
}

type VideoInfo struct {
	ID           int64         `json:"id"`
	VideoID      string        `json:"video_id"`
	Title        string        `json:"title"`
	Status       models.Status `json:"status"`
	Source       string        `json:"source,omitempty"`
	Overview     string        `json:"overview,omitempty"`
	KeyPoints    []TimedText   `json:"key_points,omitempty"`
	Transcript   []TimedText   `json:"transcript,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// TimedText is a line anchored to a moment in the video.
type TimedText struct {
	Seconds  float64 `json:"seconds"`
	Label    string  `json:"label"`
	Text     string  `json:"text"`
	WatchURL string  `json:"watch_url"`
}

// Snapshot returns the current state of the view.
func (d *Detail) Snapshot() Snapshot {
	snap := Snapshot{
		Player: d.binder.Snapshot(),
		Speech: d.seq.Snapshot(),
	}

	d.mu.RLock()
	v := d.video
	segments := d.script.Segments
	d.mu.RUnlock()

	if v == nil {
		return snap
	}
	snap.Video = videoInfo(v)
	snap.Segments = segments
	snap.ShowSpeech = snap.Speech.Supported && len(segments) > 0
	if snap.Player.State == player.StateError && v.VideoID != "" {
		snap.WatchURL = models.WatchURL(v.VideoID)
	}
	return snap
}

func videoInfo(v *models.Video) *VideoInfo {
	info := &VideoInfo{
		ID:           v.ID,
		VideoID:      v.VideoID,
		Title:        v.DisplayTitle(),
		Status:       v.Status,
		Source:       v.SourceLabel(),
		ErrorMessage: v.ErrorMessage,
	}
	if v.Summary != nil {
		info.Overview = v.Summary.Overview
		for _, kp := range v.Summary.KeyPoints {
			info.KeyPoints = append(info.KeyPoints, timed(v.VideoID, kp.Timestamp, kp.Text))
		}
	}
	for _, seg := range v.TranscriptSegments {
		info.Transcript = append(info.Transcript, timed(v.VideoID, seg.Start, seg.Text))
	}
	return info
}

func timed(videoID string, seconds float64, text string) TimedText {
	return TimedText{
		Seconds:  seconds,
		Label:    models.FormatTimestamp(seconds),
		Text:     text,
		WatchURL: models.WatchURLAt(videoID, seconds),
	}
}
