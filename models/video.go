package models

// Status is the processing state of a submitted video.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// TranscriptSegment is one timed line of the transcript.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	Text  string  `json:"text"`
}

// KeyPoint is one summary point anchored to a moment in the video.
type KeyPoint struct {
	Timestamp float64 `json:"timestamp"`
	Text      string  `json:"text"`
}

// Summary is the generated overview of a video.
type Summary struct {
	Overview  string     `json:"overview"`
	KeyPoints []KeyPoint `json:"key_points"`
}

// Video is a submitted video as the backend reports it.
type Video struct {
	ID                 int64               `json:"id"`
	URL                string              `json:"url"`
	VideoID            string              `json:"video_id"`
	Title              string              `json:"title,omitempty"`
	Duration           int                 `json:"duration,omitempty"`
	Status             Status              `json:"status"`
	TranscriptSource   string              `json:"transcript_source,omitempty"`
	TranscriptSegments []TranscriptSegment `json:"transcript_segments"`
	TranscriptText     string              `json:"transcript_text,omitempty"`
	Summary            *Summary            `json:"summary_json"`
	ErrorMessage       string              `json:"error_message,omitempty"`
	AttemptCount       int                 `json:"attempt_count"`
	CreatedAt          string              `json:"created_at"`
	CompletedAt        string              `json:"completed_at,omitempty"`
}

// Status check methods
func (v *Video) IsQueued() bool     { return v.Status == StatusQueued }
func (v *Video) IsProcessing() bool { return v.Status == StatusProcessing }
func (v *Video) IsCompleted() bool  { return v.Status == StatusCompleted }
func (v *Video) IsFailed() bool     { return v.Status == StatusFailed }

// DisplayTitle returns the title, falling back to the URL.
func (v *Video) DisplayTitle() string {
	if v.Title != "" {
		return v.Title
	}
	return v.URL
}

// SourceLabel names where the transcript came from.
func (v *Video) SourceLabel() string {
	switch v.TranscriptSource {
	case "":
		return ""
	case "youtube_captions":
		return "YouTube Captions"
	default:
		return "Whisper AI"
	}
}
