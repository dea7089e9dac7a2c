package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nijaru/yt-review/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when no video row matches.
var ErrNotFound = errors.New("video not found")

const schema = `CREATE TABLE IF NOT EXISTS videos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	video_id TEXT NOT NULL,
	title TEXT,
	duration INTEGER,
	status TEXT NOT NULL DEFAULT 'queued',
	transcript_source TEXT,
	transcript_segments TEXT,
	transcript_text TEXT,
	summary_json TEXT,
	error_message TEXT,
	attempt_count INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	completed_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_videos_video_id ON videos(video_id);`

const columns = `id, url, video_id, title, duration, status, transcript_source,
	transcript_segments, transcript_text, summary_json, error_message,
	attempt_count, created_at, completed_at`

// Store reads video records from the backend's sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens the database at dbPath, creating the file and schema if needed.
func Open(dbPath string) (*Store, error) {
	logrus.WithField("path", dbPath).Info("Initializing database")

	if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "error creating directory for database")
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "error opening database")
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "error creating table")
	}

	return &Store{db: conn}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetVideo returns the video with the given row id.
func (s *Store) GetVideo(ctx context.Context, id int64) (*models.Video, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM videos WHERE id = ?", id)
	v, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "id %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "error querying database")
	}
	return v, nil
}

// ListVideos returns videos newest first, optionally filtered by status.
func (s *Store) ListVideos(ctx context.Context, status models.Status) ([]models.Video, error) {
	query := "SELECT " + columns + " FROM videos"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error querying database")
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, errors.Wrap(err, "error scanning video")
		}
		videos = append(videos, *v)
	}
	return videos, errors.Wrap(rows.Err(), "error iterating videos")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(sc scanner) (*models.Video, error) {
	var (
		v                                     models.Video
		status                                string
		title, source, segments, text, sumRaw sql.NullString
		errMsg, completedAt                   sql.NullString
		duration                              sql.NullInt64
	)
	err := sc.Scan(&v.ID, &v.URL, &v.VideoID, &title, &duration, &status, &source,
		&segments, &text, &sumRaw, &errMsg, &v.AttemptCount, &v.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	v.Status = models.Status(status)
	v.Title = title.String
	v.Duration = int(duration.Int64)
	v.TranscriptSource = source.String
	v.TranscriptText = text.String
	v.ErrorMessage = errMsg.String
	v.CompletedAt = completedAt.String

	if segments.String != "" {
		if err := json.Unmarshal([]byte(segments.String), &v.TranscriptSegments); err != nil {
			return nil, errors.Wrapf(err, "video %d: invalid transcript_segments", v.ID)
		}
	}
	if sumRaw.String != "" {
		v.Summary = &models.Summary{}
		if err := json.Unmarshal([]byte(sumRaw.String), v.Summary); err != nil {
			return nil, errors.Wrapf(err, "video %d: invalid summary_json", v.ID)
		}
	}
	return &v, nil
}
