package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/afero"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"jarvis/internal/audio"
	"jarvis/internal/config"
	"jarvis/internal/dispatch"
	"jarvis/internal/feedback"
	"jarvis/internal/ipc"
	"jarvis/internal/jarvis"
	"jarvis/internal/notify"
	"jarvis/internal/segment"
	"jarvis/internal/tts"
	"jarvis/internal/wake"
	"jarvis/pkg/audioconv"
	"jarvis/pkg/stt"
)

const frameSize = 512

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	model := cli.StringP("model", "m", "", "Whisper model path (overrides JARVIS_MODEL)")
	device := cli.StringP("device", "d", "", "Input device name prefix (overrides JARVIS_DEVICE)")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)
	cfg := config.Load(log.Default())
	if *model != "" {
		cfg.ModelPath = *model
	}
	if *device != "" {
		cfg.Device = *device
	}

	source, err := audio.OpenSource(cfg.Device, audioconv.TargetRate, frameSize)
	if err != nil {
		log.Error("Failed to open microphone", "err", err)
		os.Exit(1)
	}
	defer source.Close()
	log.Debug("Microphone ready", "device", cfg.Device)

	whisper, err := stt.NewWhisper(cfg.ModelPath, stt.WhisperOptions{})
	if err != nil {
		log.Error("Failed to load whisper model", "model", cfg.ModelPath, "err", err)
		os.Exit(1)
	}
	defer whisper.Close()
	log.Debug("Whisper ready", "model", cfg.ModelPath)

	detector := wake.NewKeyword(whisper, wake.KeywordConfig{
		Phrase:     cfg.WakePhrase,
		SampleRate: audioconv.TargetRate,
	})
	defer detector.Close()

	segmenter := segment.New(segment.Config{
		SampleRate:       audioconv.TargetRate,
		SilenceThreshold: cfg.RMSThreshold,
		SilenceDuration:  cfg.SilenceDuration,
		MaxWait:          cfg.MaxWait,
		MaxUtterance:     cfg.MaxUtterance,
	})

	sink, err := buildSink(cfg)
	if err != nil {
		log.Error("Failed to build sink", "sink", cfg.Sink, "err", err)
		os.Exit(1)
	}
	dispatcher := dispatch.NewDispatcher(sink, cfg.Retries, cfg.RetryBackoff, log.Default())

	var speaker feedback.Speaker
	if cfg.Speak {
		speaker = tts.NewEngine(cfg.Voice)
	}
	var chime feedback.Chimer
	if cfg.ChimePath != "" {
		c, err := notify.LoadChime(cfg.ChimePath)
		if err != nil {
			log.Warn("Chime disabled", "path", cfg.ChimePath, "err", err)
		} else {
			chime = c
		}
	}
	renderer := feedback.NewRenderer(log.Default(), speaker, chime)
	queue := feedback.NewQueue(renderer.Render)
	defer queue.Close()

	opts := jarvis.Options{
		Source:      source,
		Detector:    detector,
		Segmenter:   segmenter,
		Transcriber: whisper,
		Commander:   dispatcher,
		Notifier:    queue,
		Log:         log.Default(),
		WakePhrase:  cfg.WakePhrase,
		Cooldown:    cfg.WakeCooldown,
	}
	if cfg.Duck {
		opts.Ducker = audio.NewDucker([]string{"jarvis", "espeak"}, cfg.DuckMinVol)
		opts.DuckFactor = cfg.DuckFactor
	}
	if cfg.DumpDir != "" {
		opts.Dumper = audio.NewDumper(afero.NewOsFs(), cfg.DumpDir, audioconv.TargetRate)
	}

	orch := jarvis.New(opts)

	ctl, err := ipc.Listen(cfg.SocketPath, func(msg ipc.ControlMessage) ipc.Reply {
		switch msg.Cmd {
		case "trigger":
			orch.Trigger()
			return ipc.Reply{OK: true}
		case "status":
			return ipc.Reply{OK: true, State: orch.State().String()}
		}
		return ipc.Reply{Err: "unknown command: " + msg.Cmd}
	}, log.Default())
	if err != nil {
		log.Error("Failed to start control socket", "err", err)
		os.Exit(1)
	}
	defer ctl.Close()

	log.Info("Boot up - successful", "wake_phrase", cfg.WakePhrase, "sink", cfg.Sink)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Pipeline stopped", "err", err)
		os.Exit(1)
	}
	log.Info("Shutting down")
}

func buildSink(cfg config.Config) (dispatch.Sink, error) {
	httpCfg := dispatch.HTTPConfig{
		BaseURL:          cfg.MusicBotURL,
		GuildID:          cfg.GuildID,
		UserID:           cfg.UserID,
		VoiceChannelID:   cfg.VoiceChannelID,
		ReuseConnections: cfg.SessionReuse,
		SocksProxy:       cfg.Proxy,
	}
	switch cfg.Sink {
	case "ws":
		return dispatch.NewWSSink(cfg.BusURL, httpCfg, log.Default())
	default:
		return dispatch.NewHTTPSink(httpCfg, log.Default())
	}
}
