package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	SourceDB  = "db"
	SourceAPI = "api"
)

type Config struct {
	ServerPort   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	LogDir    string
	LogLevel  string
	LogFormat string

	VideoSource       string
	DBPath            string
	APIURL            string
	APITimeout        time.Duration
	RateLimit         int
	RateLimitInterval time.Duration

	SpeechCommand      string
	SpeechVoiceName    string
	SpeechVoiceLang    string
	SpeechVoiceVendor  string
	SpeechVoiceTimeout time.Duration

	PlayerCommand      string
	PlayerSocket       string
	PlayerPollInterval time.Duration
	PlayerOrigin       string

	AutoSeekOnSpeech bool
}

func LoadConfig() *Config {
	return &Config{
		ServerPort:   GetEnv("SERVER_PORT", "8080"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),

		LogDir:    GetEnv("LOG_DIR", "./logs"),
		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "text"),

		VideoSource:       GetEnv("VIDEO_SOURCE", SourceDB),
		DBPath:            GetEnv("DB_PATH", "data/yt_transcribe.db"),
		APIURL:            GetEnv("API_URL", "http://localhost:8000/api"),
		APITimeout:        getEnvAsDuration("API_TIMEOUT", 10*time.Second),
		RateLimit:         getEnvAsInt("RATE_LIMIT", 5),
		RateLimitInterval: getEnvAsDuration("RATE_LIMIT_INTERVAL", 1*time.Second),

		SpeechCommand:      GetEnv("SPEECH_COMMAND", "espeak-ng"),
		SpeechVoiceName:    GetEnv("SPEECH_VOICE_NAME", ""),
		SpeechVoiceLang:    GetEnv("SPEECH_VOICE_LANG", "en-US"),
		SpeechVoiceVendor:  GetEnv("SPEECH_VOICE_VENDOR", ""),
		SpeechVoiceTimeout: getEnvAsDuration("SPEECH_VOICE_TIMEOUT", 2*time.Second),

		PlayerCommand:      GetEnv("PLAYER_COMMAND", "mpv"),
		PlayerSocket:       GetEnv("PLAYER_SOCKET", "/tmp/yt-review-mpv.sock"),
		PlayerPollInterval: getEnvAsDuration("PLAYER_POLL_INTERVAL", 100*time.Millisecond),
		PlayerOrigin:       GetEnv("PLAYER_ORIGIN", "http://localhost:8080"),

		AutoSeekOnSpeech: getEnvAsBool("AUTO_SEEK_ON_SPEECH", false),
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}

func ValidateConfig(cfg *Config) error {
	if cfg.ServerPort == "" {
		return errors.New("server port is required")
	}
	if cfg.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	if cfg.WriteTimeout <= 0 {
		return errors.New("write timeout must be greater than 0")
	}
	if cfg.IdleTimeout <= 0 {
		return errors.New("idle timeout must be greater than 0")
	}
	// Bounds every handler call as well as the api client.
	if cfg.APITimeout <= 0 {
		return errors.New("api timeout must be greater than 0")
	}
	switch cfg.VideoSource {
	case SourceDB:
		if cfg.DBPath == "" {
			return errors.New("database path is required")
		}
	case SourceAPI:
		if cfg.APIURL == "" {
			return errors.New("api url is required")
		}
	default:
		return errors.Errorf("unknown video source %q", cfg.VideoSource)
	}
	if cfg.RateLimit <= 0 || cfg.RateLimitInterval <= 0 {
		return errors.New("rate limit and interval must be greater than 0")
	}
	if cfg.SpeechVoiceTimeout <= 0 {
		return errors.New("speech voice timeout must be greater than 0")
	}
	if cfg.PlayerPollInterval <= 0 {
		return errors.New("player poll interval must be greater than 0")
	}
	return nil
}
