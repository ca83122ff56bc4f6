package normalize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"echolog/internal/domain"
)

// fakeRunner scripts ffprobe and ffmpeg invocations.
type fakeRunner struct {
	probeOut  string
	probeErr  error
	ffmpegErr error
	calls     []string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	r.calls = append(r.calls, name)
	switch name {
	case "ffprobe":
		if r.probeErr != nil {
			return commandResult{Stderr: "probe failed", ExitCode: 1}, r.probeErr
		}
		return commandResult{Stdout: r.probeOut}, nil
	case "ffmpeg":
		if r.ffmpegErr != nil {
			return commandResult{Stderr: "conversion failed", ExitCode: 1}, r.ffmpegErr
		}
		// ffmpeg writes the output path given as its final argument.
		outPath := args[len(args)-1]
		if err := os.WriteFile(outPath, []byte("converted"), 0o644); err != nil {
			return commandResult{}, err
		}
		return commandResult{}, nil
	}
	return commandResult{}, errors.New("unexpected command " + name)
}

const probeNormalizedWAV = `{
	"streams": [{"codec_name": "pcm_s16le", "sample_rate": "16000", "channels": 1}],
	"format": {"format_name": "wav"}
}`

const probeStereoAAC = `{
	"streams": [{"codec_name": "aac", "sample_rate": "44100", "channels": 2}],
	"format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`

// newTestNormalizer wires a normalizer against the scripted runner
// with temp workspaces under the test directory.
func newTestNormalizer(t *testing.T, runner commandRunner) *Normalizer {
	t.Helper()
	base := t.TempDir()
	return NewForTests("ffmpeg", "ffprobe", runner,
		func(dir, pattern string) (string, error) {
			return os.MkdirTemp(base, pattern)
		}, nil)
}

// writeInput creates a dummy input media file.
func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.media")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

// TestNormalizePassThroughCopiesWithoutTranscode verifies already
// normalized WAV input skips ffmpeg and never aliases the input file.
func TestNormalizePassThroughCopiesWithoutTranscode(t *testing.T) {
	runner := &fakeRunner{probeOut: probeNormalizedWAV}
	n := newTestNormalizer(t, runner)
	inPath := writeInput(t, "wav-bytes")

	out, err := n.Normalize(context.Background(), domain.AudioArtifact{Path: inPath})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if out.Path == inPath {
		t.Fatal("output aliases the input file")
	}
	if !out.Normalized() {
		t.Fatalf("artifact not normalized: %+v", out)
	}
	data, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "wav-bytes" {
		t.Fatalf("output content = %q, want byte-identical copy", data)
	}
	if len(runner.calls) != 1 || runner.calls[0] != "ffprobe" {
		t.Fatalf("calls = %v, want ffprobe only", runner.calls)
	}
}

// TestNormalizeTranscodesNonTargetInput verifies the ffmpeg path.
func TestNormalizeTranscodesNonTargetInput(t *testing.T) {
	runner := &fakeRunner{probeOut: probeStereoAAC}
	n := newTestNormalizer(t, runner)
	inPath := writeInput(t, "aac-bytes")

	out, err := n.Normalize(context.Background(), domain.AudioArtifact{Path: inPath})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if !out.Normalized() || out.MIME != "audio/wav" {
		t.Fatalf("artifact = %+v", out)
	}
	if len(runner.calls) != 2 || runner.calls[1] != "ffmpeg" {
		t.Fatalf("calls = %v, want ffprobe then ffmpeg", runner.calls)
	}
	if _, err := os.Stat(inPath); err != nil {
		t.Fatal("input file must never be touched")
	}
}

// TestNormalizeUndecodableInput verifies probe failures classify as
// unsupported input and carry the command log.
func TestNormalizeUndecodableInput(t *testing.T) {
	runner := &fakeRunner{probeErr: errors.New("exit status 1")}
	n := newTestNormalizer(t, runner)
	inPath := writeInput(t, "garbage")

	_, err := n.Normalize(context.Background(), domain.AudioArtifact{Path: inPath})

	var normErr *Error
	if !errors.As(err, &normErr) || normErr.Kind != ErrKindUnsupportedInput {
		t.Fatalf("error = %v, want unsupported input", err)
	}
	if normErr.CommandLog.Command != "ffprobe" {
		t.Fatalf("command log = %+v, want ffprobe invocation", normErr.CommandLog)
	}
	if normErr.CommandLog.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", normErr.CommandLog.ExitCode)
	}
}

// TestNormalizeConversionFailure verifies ffmpeg failures classify as
// conversion failures.
func TestNormalizeConversionFailure(t *testing.T) {
	runner := &fakeRunner{probeOut: probeStereoAAC, ffmpegErr: errors.New("exit status 1")}
	n := newTestNormalizer(t, runner)
	inPath := writeInput(t, "aac-bytes")

	_, err := n.Normalize(context.Background(), domain.AudioArtifact{Path: inPath})

	var normErr *Error
	if !errors.As(err, &normErr) || normErr.Kind != ErrKindConversionFailed {
		t.Fatalf("error = %v, want conversion failed", err)
	}
	if normErr.CommandLog.Command != "ffmpeg" {
		t.Fatalf("command log = %+v, want ffmpeg invocation", normErr.CommandLog)
	}
}

// TestNormalizeMissingInput verifies unreadable paths fail before any
// process runs.
func TestNormalizeMissingInput(t *testing.T) {
	runner := &fakeRunner{}
	n := newTestNormalizer(t, runner)

	_, err := n.Normalize(context.Background(), domain.AudioArtifact{Path: filepath.Join(t.TempDir(), "absent.wav")})

	var normErr *Error
	if !errors.As(err, &normErr) || normErr.Kind != ErrKindUnsupportedInput {
		t.Fatalf("error = %v, want unsupported input", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("calls = %v, want none", runner.calls)
	}
}
