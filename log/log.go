package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB  = 10
	maxLogBackups = 3
)

var (
	diagLog        zerolog.Logger
	diagFile       io.WriteCloser
	transcribeFile io.WriteCloser
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

type Metrics struct {
	AudioLengthS     float64
	RawSizeKB        float64
	CompressedSizeKB float64
	CompressionPct   float64
	EncodeTimeMs     float64
	DNSTimeMs        float64
	ConnectTimeMs    float64
	TLSTimeMs        float64
	TTFBMs           float64
	TotalTimeMs      float64
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absPath(flagPath)
	}

	// Priority 2: EARSHOT_LOG_PATH environment variable
	if envPath := os.Getenv("EARSHOT_LOG_PATH"); envPath != "" {
		return absPath(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func rotating(name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
	}
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	// lumberjack opens lazily; touch both files so a bad directory fails here.
	for _, name := range []string{"diagnostics_log.txt", "transcribe_log.txt"} {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		f.Close()
	}
	diagFile = rotating("diagnostics_log.txt")
	transcribeFile = rotating("transcribe_log.txt")

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(session, device, provider, format string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", session).
		Str("device", device).
		Str("provider", provider).
		Str("format", format).
		Msg("session_start")
}

func Calibrated(session string, noiseRMS, threshold float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", session).
		Float64("noise_rms", noiseRMS).
		Float64("threshold", threshold).
		Msg("calibrated")
}

func SpeechStart(session string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("session", session).Msg("speech_start")
}

func CaptureEnd(session, outcome string, blocks int, audio, elapsed time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", session).
		Str("outcome", outcome).
		Int("blocks", blocks).
		Float64("audio_s", audio.Seconds()).
		Float64("elapsed_s", elapsed.Seconds()).
		Msg("capture_end")
}

func CaptureError(session string, err error) {
	if !logReady {
		return
	}
	diagLog.Error().Str("session", session).Err(err).Msg("capture_failed")
}

func TranscriptionMetrics(session string, m Metrics, format, provider string, connReused bool, tlsProto string) {
	if !logReady {
		return
	}

	connStatus := "new"
	if connReused {
		connStatus = "reused"
	}

	ev := diagLog.Info().
		Str("session", session).
		Str("format", format).
		Str("provider", provider).
		Str("conn", connStatus)
	if tlsProto != "" {
		ev = ev.Str("tls_proto", tlsProto)
	}
	ev.Float64("audio_s", m.AudioLengthS).
		Float64("raw_kb", m.RawSizeKB).
		Float64("compressed_kb", m.CompressedSizeKB).
		Float64("compression_pct", m.CompressionPct).
		Float64("encode_ms", m.EncodeTimeMs).
		Float64("dns_ms", m.DNSTimeMs).
		Float64("connect_ms", m.ConnectTimeMs).
		Float64("tls_ms", m.TLSTimeMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("total_ms", m.TotalTimeMs).
		Msg("transcription")
}

func Correction(session, model string, changed bool, took time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", session).
		Str("model", model).
		Bool("changed", changed).
		Float64("ms", float64(took.Microseconds())/1000).
		Msg("correction")
}

func TranscriptionText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	io.WriteString(transcribeFile, line)
}
