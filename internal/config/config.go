// Package config assembles the daemon configuration from the environment.
// Every knob has a default; malformed values log a warning and fall back
// rather than aborting startup.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config is the full daemon configuration.
type Config struct {
	// Sink selects the delivery transport: "http" or "ws".
	Sink string

	// MusicBotURL is the REST base URL for the http sink.
	MusicBotURL string

	// BusURL is the websocket URL for the ws sink.
	BusURL string

	// GuildID, UserID and VoiceChannelID identify the bot session.
	GuildID        string
	UserID         string
	VoiceChannelID string

	// Device is an input device name prefix. Empty means the default mic.
	Device string

	// ModelPath points at the whisper ggml model file.
	ModelPath string

	// WakePhrase is matched against keyword-scan transcripts.
	WakePhrase string

	// WakeCooldown suppresses re-triggers after a pipeline run finishes.
	WakeCooldown time.Duration

	// RMSThreshold separates speech from silence (int16 domain).
	RMSThreshold float64

	// SilenceDuration of quiet that ends an utterance.
	SilenceDuration time.Duration

	// MaxWait for speech to start after a trigger.
	MaxWait time.Duration

	// MaxUtterance caps utterance length.
	MaxUtterance time.Duration

	// SessionReuse keeps HTTP connections alive between commands.
	SessionReuse bool

	// Retries after the first dispatch attempt.
	Retries int

	// RetryBackoff between dispatch attempts.
	RetryBackoff time.Duration

	// Proxy is an optional SOCKS5 address for the http sink.
	Proxy string

	// ChimePath is an optional sound file played on trigger.
	ChimePath string

	// Speak enables spoken feedback via espeak.
	Speak bool

	// Voice is the espeak language code.
	Voice string

	// DumpDir, when set, receives a WAV per captured utterance.
	DumpDir string

	// Duck lowers other audio streams while listening.
	Duck       bool
	DuckFactor float64
	DuckMinVol int

	// SocketPath for the control socket.
	SocketPath string
}

// Load reads the environment, applying defaults and logging warnings for
// values it cannot parse.
func Load(log *slog.Logger) Config {
	return Config{
		Sink:            envString("JARVIS_SINK", "http"),
		MusicBotURL:     envString("MUSIC_BOT_URL", "http://localhost:2000"),
		BusURL:          envString("BUS_URL", "ws://localhost:8092/ws"),
		GuildID:         os.Getenv("GUILD_ID"),
		UserID:          os.Getenv("USER_ID"),
		VoiceChannelID:  os.Getenv("VOICE_CHANNEL_ID"),
		Device:          os.Getenv("JARVIS_DEVICE"),
		ModelPath:       envString("JARVIS_MODEL", "models/ggml-base.en.bin"),
		WakePhrase:      envString("JARVIS_WAKE_PHRASE", "jarvis"),
		WakeCooldown:    envSeconds(log, "JARVIS_WAKE_COOLDOWN_SECONDS", 1.0),
		RMSThreshold:    envFloat(log, "JARVIS_RMS_THRESHOLD", 900),
		SilenceDuration: envSeconds(log, "JARVIS_SILENCE_SECONDS", 1.5),
		MaxWait:         envSeconds(log, "JARVIS_MAX_WAIT_SECONDS", 4.0),
		MaxUtterance:    envSeconds(log, "JARVIS_MAX_UTTERANCE_SECONDS", 15.0),
		SessionReuse:    envBool(log, "JARVIS_SESSION_REUSE", true),
		Retries:         envInt(log, "JARVIS_RETRIES", 2),
		RetryBackoff:    envMillis(log, "JARVIS_RETRY_BACKOFF_MS", 250),
		Proxy:           os.Getenv("JARVIS_PROXY"),
		ChimePath:       os.Getenv("JARVIS_CHIME"),
		Speak:           envBool(log, "JARVIS_SPEAK", false),
		Voice:           envString("JARVIS_VOICE", "en"),
		DumpDir:         os.Getenv("JARVIS_DUMP_DIR"),
		Duck:            envBool(log, "JARVIS_DUCK", false),
		DuckFactor:      envFloat(log, "JARVIS_DUCK_FACTOR", 0.3),
		DuckMinVol:      envInt(log, "JARVIS_DUCK_MIN_VOLUME", 10),
		SocketPath:      os.Getenv("JARVIS_SOCKET"),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(log *slog.Logger, key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn("bad value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func envInt(log *slog.Logger, key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn("bad value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envBool(log *slog.Logger, key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn("bad value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envSeconds(log *slog.Logger, key string, def float64) time.Duration {
	return time.Duration(envFloat(log, key, def) * float64(time.Second))
}

func envMillis(log *slog.Logger, key string, def int) time.Duration {
	return time.Duration(envInt(log, key, def)) * time.Millisecond
}
