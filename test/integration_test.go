//go:build integration

package test_test

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"earshot/clipboard"
	"earshot/encoder"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("EARSHOT_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "EARSHOT_TEST_BIN not set; build earshot and point it at the binary")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func writeWAV(t *testing.T, name string, samples []int16) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, encoder.EncodeWAV(samples, 16000), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func silence(seconds float64) []int16 {
	return make([]int16, int(16000*seconds))
}

type result struct {
	stdout string
	logDir string
}

func runEarshot(t *testing.T, env []string, args ...string) result {
	t.Helper()
	logDir := t.TempDir()
	cmdArgs := append([]string{"-logpath", logDir, "-no-beep"}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+t.TempDir())
	cmd.Env = append(cmd.Env, env...)

	var stdout strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("earshot exited with error: %v\nstdout: %s", err, stdout.String())
	}
	return result{stdout: stdout.String(), logDir: logDir}
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func requireGroqKey(t *testing.T) {
	t.Helper()
	if os.Getenv("GROQ_API_KEY") == "" {
		t.Skip("GROQ_API_KEY not set")
	}
}

func speechWAV(t *testing.T) string {
	t.Helper()
	path := filepath.Join("data", "short.wav")
	if _, err := os.Stat(path); err != nil {
		t.Skip("data/short.wav not present")
	}
	return path
}

func TestSilenceReportsNoSpeech(t *testing.T) {
	wav := writeWAV(t, "silence.wav", silence(1))
	r := runEarshot(t, []string{"GROQ_API_KEY=unused"},
		"-test", wav, "-provider", "groq", "-no-correct", "-timeout", "1s")

	if !strings.Contains(r.stdout, "No speech detected.") {
		t.Errorf("stdout = %q, want no-speech notice", r.stdout)
	}
	diag := readLog(t, r.logDir, "diagnostics_log.txt")
	for _, want := range []string{"session_start", "calibrated", "capture_end", "outcome=no_speech"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %q", want)
		}
	}
	if strings.Contains(diag, "speech_start") {
		t.Error("speech_start logged for a silent recording")
	}
}

func TestToneIsCaptured(t *testing.T) {
	requireGroqKey(t)

	// 0.5s quiet, 1s of 440 Hz, then the fake source idles in silence.
	samples := silence(0.5)
	for i := range 16000 {
		samples = append(samples, int16(8000*math.Sin(2*math.Pi*440*float64(i)/16000)))
	}
	wav := writeWAV(t, "tone.wav", samples)
	r := runEarshot(t, nil, "-test", wav, "-provider", "groq", "-no-correct", "-silence", "500ms")

	diag := readLog(t, r.logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "speech_start") || !strings.Contains(diag, "outcome=silence") {
		t.Errorf("diagnostics missing speech capture:\n%s", diag)
	}
}

func TestSpeechTranscribed(t *testing.T) {
	requireGroqKey(t)
	wav := speechWAV(t)

	r := runEarshot(t, nil, "-test", wav, "-provider", "groq", "-no-correct", "-print")
	text := readLog(t, r.logDir, "transcribe_log.txt")
	if strings.TrimSpace(text) == "" {
		t.Fatal("transcribe_log.txt is empty, expected transcribed words")
	}
	if strings.TrimSpace(r.stdout) == "" {
		t.Error("-print wrote nothing to stdout")
	}

	clip, err := clipboard.Read()
	if err != nil {
		t.Skip("clipboard not available")
	}
	if strings.TrimSpace(clip) == "" {
		t.Log("Warning: clipboard is empty after transcription")
	}
}

func TestPrefixSubcommand(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	run := func(args ...string) string {
		t.Helper()
		out, err := exec.Command(testBinary, append([]string{"prefix", "-config", cfg}, args...)...).Output()
		if err != nil {
			t.Fatalf("prefix %v: %v", args, err)
		}
		return string(out)
	}

	run("set", "Hi all,")
	if got := run("get"); got != "Hi all,\n" {
		t.Errorf("get = %q", got)
	}
	data, err := os.ReadFile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Hi all,") {
		t.Errorf("config file = %s", data)
	}
	run("clear")
	if got := run("get"); got != "" {
		t.Errorf("get after clear = %q", got)
	}
}
