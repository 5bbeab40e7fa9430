package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"earshot/audio"
	"earshot/beep"
	"earshot/capture"
	"earshot/clipboard"
	"earshot/config"
	"earshot/corrector"
	"earshot/doctor"
	"earshot/hotkey"
	"earshot/log"
	"earshot/metrics"
	"earshot/paste"
	"earshot/shutdown"
	"earshot/transcriber"
)

var version = "dev"

type options struct {
	configPath   string
	device       string
	setup        bool
	provider     string
	model        string
	lang         string
	format       string
	noCorrect    bool
	correctModel string
	autoPaste    bool
	print        bool
	hotkey       bool
	tui          bool
	metricsAddr  string
	doctor       bool
	logPath      string
	version      bool
	noBeep       bool
	testWAV      string

	silence     time.Duration
	timeout     time.Duration
	pad         time.Duration
	calibration time.Duration
	multiplier  float64
	floor       float64

	// set holds the names of flags given on the command line.
	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: map[string]bool{}}
	def := capture.DefaultConfig()

	fs := flag.NewFlagSet("earshot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/earshot/config.yaml)")
	fs.StringVar(&o.device, "device", "", "Use named microphone device")
	fs.BoolVar(&o.setup, "setup", false, "Select microphone device interactively")
	fs.StringVar(&o.provider, "provider", "", "Transcription provider: openai, groq or deepgram (default: first with an API key)")
	fs.StringVar(&o.model, "model", "", "Transcription model (default: provider specific)")
	fs.StringVar(&o.lang, "lang", "", "Language code for transcription (e.g., en, es, fr). Empty = auto-detect")
	fs.StringVar(&o.format, "format", "", "Upload format: wav or flac")
	fs.BoolVar(&o.noCorrect, "no-correct", false, "Skip grammar correction")
	fs.StringVar(&o.correctModel, "correct-model", "", "Chat model used for grammar correction")
	fs.BoolVar(&o.autoPaste, "autopaste", false, "Paste into the focused window after copying")
	fs.BoolVar(&o.print, "print", false, "Always print the transcript to stdout")
	fs.BoolVar(&o.hotkey, "hotkey", false, "Stay running and listen on every "+hotkey.Combo)
	fs.BoolVar(&o.tui, "tui", false, "Show the terminal UI while listening")
	fs.StringVar(&o.metricsAddr, "metrics", "", "Serve Prometheus metrics on this address (e.g., :9464)")
	fs.BoolVar(&o.doctor, "doctor", false, "Run system diagnostics and exit")
	fs.StringVar(&o.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	fs.BoolVar(&o.noBeep, "no-beep", false, "Disable start and stop beeps")
	fs.StringVar(&o.testWAV, "test", "", "Use a 16-bit mono WAV file instead of the microphone")
	fs.DurationVar(&o.silence, "silence", def.SilenceToStop, "Silence that ends an utterance")
	fs.DurationVar(&o.timeout, "timeout", def.Timeout, "Maximum listening time after calibration")
	fs.DurationVar(&o.pad, "pad", def.PreSpeechPad, "Audio kept from before speech onset")
	fs.DurationVar(&o.calibration, "calibration", def.CalibrationDuration, "Ambient noise measurement time")
	fs.Float64Var(&o.multiplier, "multiplier", def.ThresholdMultiplier, "Speech threshold as a multiple of the noise floor")
	fs.Float64Var(&o.floor, "floor", def.MinThreshold, "Minimum speech threshold (RMS)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// apply layers explicitly given flags over the loaded config.
func (o *options) apply(cfg *config.Config) {
	c := &cfg.Capture
	if o.set["silence"] {
		c.SilenceToStop = o.silence
	}
	if o.set["timeout"] {
		c.Timeout = o.timeout
	}
	if o.set["pad"] {
		c.PreSpeechPad = o.pad
	}
	if o.set["calibration"] {
		c.CalibrationDuration = o.calibration
	}
	if o.set["multiplier"] {
		c.ThresholdMultiplier = o.multiplier
	}
	if o.set["floor"] {
		c.MinThreshold = o.floor
	}

	t := &cfg.Transcription
	if o.provider != "" {
		t.Provider = o.provider
	}
	if o.model != "" {
		t.Model = o.model
	}
	if o.lang != "" {
		t.Language = o.lang
	}
	if o.format != "" {
		t.Format = o.format
	}

	if o.noCorrect {
		cfg.Correction.Enabled = false
	}
	if o.correctModel != "" {
		cfg.Correction.Model = o.correctModel
	}
}

func initCrashLog(dir string) {
	crashPath := filepath.Join(dir, "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func run(args []string, stdout, stderr io.Writer) int {
	// A missing .env is fine; keys usually come from the environment.
	_ = godotenv.Load()

	if len(args) > 0 && args[0] == "prefix" {
		return runPrefix(args[1:], stdout, stderr)
	}

	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if o.version {
		fmt.Fprintf(stdout, "earshot %s\n", version)
		return 0
	}

	logPath, err := log.ResolveDir(o.logPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(stderr, "Warning: could not create log directory: %v\n", err)
	} else {
		initCrashLog(logPath)
	}
	if err := log.Init(); err != nil {
		fmt.Fprintf(stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	var src audio.Context
	if o.testWAV != "" {
		src, err = testAudio(o.testWAV)
	} else {
		src, err = audio.NewContext()
	}
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(stderr, "Error initializing audio: %v\n", err)
		return 1
	}
	defer src.Close()

	if o.doctor {
		c := &doctor.Checker{
			Out:     stdout,
			Audio:   src,
			Device:  o.device,
			Capture: cfg.Capture,
			Getenv:  os.Getenv,
			Copy:    clipboard.Copy,
			Read:    clipboard.Read,
			Hotkey:  hotkey.Diagnose,
		}
		return c.Run(ctx)
	}

	device, err := resolveDevice(src, o.device, o.setup)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if o.setup && device != nil {
		fmt.Fprintf(stdout, "Using %s (pass -device %q to skip the picker)\n", device.Name, device.Name)
	}

	tr, err := transcriber.New(cfg.Transcription.Provider)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	tr.SetModel(cfg.Transcription.Model)
	tr.SetLanguage(cfg.Transcription.Language)
	go tr.Warm()

	out := stdout
	if o.tui {
		out = io.Discard
	}

	var pasteFn func() error
	if o.autoPaste {
		if err := paste.Init(); err != nil {
			fmt.Fprintf(stderr, "Warning: paste init failed: %v\n", err)
		} else {
			pasteFn = paste.Send
		}
	}

	a := &app{
		cfg:     cfg,
		audio:   src,
		device:  device,
		tr:      tr,
		sink:    clipboard.NewSink(out, o.print, pasteFn),
		metrics: metrics.New(nil),
		out:     out,
	}
	if cfg.Correction.Enabled {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c, err := corrector.New(key, cfg.Correction.Model, corrector.WithTimeout(30*time.Second))
			if err != nil {
				fmt.Fprintf(stderr, "Warning: %v\n", err)
			} else {
				a.corrector = c
			}
		} else {
			log.Warn("grammar correction skipped: OPENAI_API_KEY not set")
		}
	}

	if o.metricsAddr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, o.metricsAddr); err != nil {
				log.Errorf("metrics server error: %v", err)
				fmt.Fprintf(stderr, "Warning: metrics server: %v\n", err)
			}
		}()
	}

	if o.noBeep {
		beep.Disable()
	} else {
		go beep.Init()
	}

	switch {
	case o.tui:
		err = runTUI(ctx, a, o.hotkey)
	case o.hotkey:
		err = runDaemon(ctx, a, hotkey.New(), stderr)
	default:
		_, err = a.listen(ctx)
	}
	return exitCode(err, stderr)
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "Canceled.")
		return 130
	default:
		reportError(stderr, err)
		return 1
	}
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if errors.Is(err, capture.ErrDeviceUnavailable) {
		fmt.Fprintln(w, "Check that a microphone is connected, or pick one with -setup or -device <name>.")
	}
}

func runPrefix(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("earshot prefix", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: earshot prefix [-config path] get | set <text> | clear")
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch cmd := fs.Arg(0); cmd {
	case "get":
		if p := cfg.GetPrefix(); p != "" {
			fmt.Fprintln(stdout, p)
		}
		return 0
	case "set":
		if fs.NArg() < 2 {
			fs.Usage()
			return 2
		}
		cfg.SetPrefix(strings.Join(fs.Args()[1:], " "))
	case "clear":
		cfg.ClearPrefix()
	default:
		fmt.Fprintf(stderr, "Error: unknown prefix command %q\n", cmd)
		fs.Usage()
		return 2
	}

	if err := cfg.Save(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
