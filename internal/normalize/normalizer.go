package normalize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"echolog/internal/domain"
)

const (
	targetCodec      = "pcm_s16le"
	targetSampleRate = 16000
	targetChannels   = 1
)

// ErrKind classifies normalization failures for the coordinator.
type ErrKind string

const (
	ErrKindUnsupportedInput ErrKind = "unsupported_input"
	ErrKindConversionFailed ErrKind = "conversion_failed"
)

// Error is a stage-aware normalization error with command context.
type Error struct {
	Kind       ErrKind    `json:"kind"`
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

// Error formats normalization failures for logs and UI.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Kind,
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Normalizer converts captured or uploaded media into the single
// encoding the backend accepts: 16 kHz mono s16le WAV. Inputs are
// never mutated; the output is a new temp file the caller owns.
type Normalizer struct {
	ffmpegPath  string
	ffprobePath string
	runner      commandRunner
	mkdirTemp   func(dir, pattern string) (string, error)
	stat        func(name string) (os.FileInfo, error)
	openFile    func(name string) (io.ReadCloser, error)
	createFile  func(name string) (io.WriteCloser, error)
}

// New constructs the production normalizer with OS dependencies.
func New() *Normalizer {
	return &Normalizer{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      &execRunner{},
		mkdirTemp:   os.MkdirTemp,
		stat:        os.Stat,
		openFile: func(name string) (io.ReadCloser, error) {
			return os.Open(name)
		},
		createFile: func(name string) (io.WriteCloser, error) {
			return os.Create(name)
		},
	}
}

// Normalize probes the input and either copies it through or
// transcodes it into a fresh normalized artifact.
func (n *Normalizer) Normalize(ctx context.Context, in domain.AudioArtifact) (domain.AudioArtifact, error) {
	if strings.TrimSpace(in.Path) == "" {
		return domain.AudioArtifact{}, &Error{
			Kind:    ErrKindUnsupportedInput,
			Message: "input artifact path is required",
		}
	}
	if _, err := n.stat(in.Path); err != nil {
		return domain.AudioArtifact{}, &Error{
			Kind:    ErrKindUnsupportedInput,
			Message: fmt.Sprintf("cannot access input media: %s", in.Path),
			Err:     err,
		}
	}

	probe, probeLog, err := n.probe(ctx, in.Path)
	if err != nil {
		return domain.AudioArtifact{}, &Error{
			Kind:       ErrKindUnsupportedInput,
			Message:    "input media cannot be decoded",
			CommandLog: probeLog,
			Err:        err,
		}
	}

	tempDir, err := n.mkdirTemp("", "echolog-normalize-*")
	if err != nil {
		return domain.AudioArtifact{}, &Error{
			Kind:    ErrKindConversionFailed,
			Message: "failed to create temporary workspace",
			Err:     err,
		}
	}
	outPath := filepath.Join(tempDir, "normalized-16k-mono.wav")

	if probe.matchesTarget() && strings.EqualFold(probe.FormatName, "wav") {
		if err := n.copyFile(in.Path, outPath); err != nil {
			return domain.AudioArtifact{}, &Error{
				Kind:    ErrKindConversionFailed,
				Message: "pass-through copy failed",
				Err:     err,
			}
		}
		return n.finish(outPath)
	}

	args := buildTranscodeArgs(in.Path, outPath)
	cmdResult, runErr := n.runner.Run(ctx, n.ffmpegPath, args...)
	log := CommandLog{
		Command:  n.ffmpegPath,
		Args:     args,
		ExitCode: cmdResult.ExitCode,
		Stdout:   cmdResult.Stdout,
		Stderr:   cmdResult.Stderr,
	}
	if runErr != nil {
		return domain.AudioArtifact{}, &Error{
			Kind:       ErrKindConversionFailed,
			Message:    "ffmpeg audio conversion failed",
			CommandLog: log,
			Err:        runErr,
		}
	}
	if _, err := n.stat(outPath); err != nil {
		return domain.AudioArtifact{}, &Error{
			Kind:       ErrKindConversionFailed,
			Message:    "ffmpeg completed but output file is missing",
			CommandLog: log,
			Err:        err,
		}
	}

	return n.finish(outPath)
}

// probeInfo is the decoded subset of ffprobe output the client needs.
type probeInfo struct {
	CodecName  string
	SampleRate int
	Channels   int
	FormatName string
}

// matchesTarget reports whether the stream already has the backend
// encoding, making transcoding unnecessary.
func (p probeInfo) matchesTarget() bool {
	return p.CodecName == targetCodec &&
		p.SampleRate == targetSampleRate &&
		p.Channels == targetChannels
}

// probe inspects the first audio stream of the input media.
func (n *Normalizer) probe(ctx context.Context, path string) (probeInfo, CommandLog, error) {
	args := buildProbeArgs(path)
	cmdResult, runErr := n.runner.Run(ctx, n.ffprobePath, args...)
	log := CommandLog{
		Command:  n.ffprobePath,
		Args:     args,
		ExitCode: cmdResult.ExitCode,
		Stdout:   cmdResult.Stdout,
		Stderr:   cmdResult.Stderr,
	}
	if runErr != nil {
		return probeInfo{}, log, runErr
	}

	var parsed struct {
		Streams []struct {
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
		} `json:"streams"`
		Format struct {
			FormatName string `json:"format_name"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(cmdResult.Stdout), &parsed); err != nil {
		return probeInfo{}, log, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(parsed.Streams) == 0 {
		return probeInfo{}, log, errors.New("no audio stream found")
	}

	info := probeInfo{
		CodecName:  parsed.Streams[0].CodecName,
		Channels:   parsed.Streams[0].Channels,
		FormatName: parsed.Format.FormatName,
	}
	fmt.Sscanf(parsed.Streams[0].SampleRate, "%d", &info.SampleRate)
	return info, log, nil
}

// finish stamps the output file as a normalized artifact.
func (n *Normalizer) finish(outPath string) (domain.AudioArtifact, error) {
	info, err := n.stat(outPath)
	if err != nil {
		return domain.AudioArtifact{}, &Error{
			Kind:    ErrKindConversionFailed,
			Message: "normalized output is missing",
			Err:     err,
		}
	}

	return domain.AudioArtifact{
		Path:       outPath,
		MIME:       "audio/wav",
		Encoding:   targetCodec,
		SampleRate: targetSampleRate,
		Channels:   targetChannels,
		Size:       info.Size(),
	}, nil
}

// copyFile duplicates the input so pass-through never aliases it.
func (n *Normalizer) copyFile(src, dst string) error {
	in, err := n.openFile(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := n.createFile(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// buildProbeArgs builds ffprobe args for audio stream inspection.
func buildProbeArgs(inputPath string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_name,sample_rate,channels",
		"-show_entries", "format=format_name",
		"-of", "json",
		inputPath,
	}
}

// buildTranscodeArgs builds ffmpeg args for mono 16k PCM WAV output.
func buildTranscodeArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

// NewForTests constructs a normalizer with injectable dependencies.
func NewForTests(
	ffmpegPath string,
	ffprobePath string,
	runner commandRunner,
	mkdirTemp func(dir, pattern string) (string, error),
	stat func(name string) (os.FileInfo, error),
) *Normalizer {
	n := New()
	n.ffmpegPath = ffmpegPath
	n.ffprobePath = ffprobePath
	n.runner = runner
	if mkdirTemp != nil {
		n.mkdirTemp = mkdirTemp
	}
	if stat != nil {
		n.stat = stat
	}
	return n
}
