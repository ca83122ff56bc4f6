package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	goruntime "runtime"
	"strings"
	"sync"
	"time"

	"echolog/internal/domain"
)

// startTimeout bounds how long the capture process may stay silent
// before the device is considered unavailable.
const startTimeout = 10 * time.Second

// ffmpegStreamer launches ffmpeg reading a capture device and piping
// raw s16le PCM on stdout.
type ffmpegStreamer struct {
	binary        string
	captureDevice string
	systemDevice  string
	lookPath      func(string) (string, error)
}

// newFFmpegStreamer builds the production streamer from settings.
func newFFmpegStreamer(settings domain.Settings) *ffmpegStreamer {
	return &ffmpegStreamer{
		binary:        "ffmpeg",
		captureDevice: settings.CaptureDevice,
		systemDevice:  settings.SystemDevice,
		lookPath:      exec.LookPath,
	}
}

// Start launches the capture process and waits for first audio data.
func (f *ffmpegStreamer) Start(ctx context.Context, source domain.CaptureSource) (stream, error) {
	if _, err := f.lookPath(f.binary); err != nil {
		return nil, &Error{
			Kind:    ErrKindDeviceUnavailable,
			Message: "ffmpeg not found in PATH",
			Err:     err,
		}
	}

	device := f.captureDevice
	if source == domain.SourceSystem {
		device = f.systemDevice
	}
	if strings.TrimSpace(device) == "" {
		return nil, &Error{
			Kind:    ErrKindDeviceUnavailable,
			Message: fmt.Sprintf("no capture device configured for source %q", source),
		}
	}

	args := captureArgs(goruntime.GOOS, device)
	cmd := exec.CommandContext(ctx, f.binary, args...)

	stderr := &lockedBuffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &Error{Kind: ErrKindDeviceUnavailable, Message: "capture pipe setup failed", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &Error{Kind: ErrKindDeviceUnavailable, Message: "capture process failed to start", Err: err}
	}

	s := &ffmpegStream{cmd: cmd, out: stdout}

	// ffmpeg reports device and permission failures asynchronously:
	// hold Start until the first PCM window arrives or the process
	// dies, so callers get a synchronous error.
	ready := make(chan error, 1)
	go func() {
		lead := make([]byte, windowBytes)
		if _, err := io.ReadFull(stdout, lead); err != nil {
			ready <- err
			return
		}
		s.lead = lead
		ready <- nil
	}()

	select {
	case err := <-ready:
		if err != nil {
			_ = s.Stop()
			return nil, classifyStartFailure(stderr.String(), err)
		}
		return s, nil
	case <-time.After(startTimeout):
		_ = s.Stop()
		return nil, &Error{
			Kind:    ErrKindDeviceUnavailable,
			Message: "capture device produced no audio",
			Stderr:  stderr.String(),
		}
	case <-ctx.Done():
		_ = s.Stop()
		return nil, ctx.Err()
	}
}

// ffmpegStream adapts the running process to the stream interface.
type ffmpegStream struct {
	cmd  *exec.Cmd
	out  io.ReadCloser
	lead []byte

	stopOnce sync.Once
	stopErr  error
}

// Read serves the buffered lead window first, then live process output.
func (s *ffmpegStream) Read(p []byte) (int, error) {
	if len(s.lead) > 0 {
		n := copy(p, s.lead)
		s.lead = s.lead[n:]
		return n, nil
	}
	return s.out.Read(p)
}

// Stop terminates the capture process and releases the device.
func (s *ffmpegStream) Stop() error {
	s.stopOnce.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		_ = s.out.Close()
		err := s.cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			s.stopErr = err
		}
	})
	return s.stopErr
}

// classifyStartFailure maps ffmpeg stderr to the capture error kinds.
func classifyStartFailure(stderr string, err error) *Error {
	lower := strings.ToLower(stderr)
	if strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "operation not permitted") ||
		strings.Contains(lower, "access denied") {
		return &Error{
			Kind:    ErrKindPermissionDenied,
			Message: "platform denied access to the capture device",
			Stderr:  stderr,
			Err:     err,
		}
	}
	return &Error{
		Kind:    ErrKindDeviceUnavailable,
		Message: "capture device is unavailable",
		Stderr:  stderr,
		Err:     err,
	}
}

// captureArgs builds platform input args plus the common PCM output.
func captureArgs(goos, device string) []string {
	var input []string
	switch goos {
	case "darwin":
		input = []string{"-f", "avfoundation", "-i", ":" + device}
	case "windows":
		input = []string{"-f", "dshow", "-i", "audio=" + device}
	default:
		input = []string{"-f", "pulse", "-i", device}
	}

	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error"}
	args = append(args, input...)
	return append(args,
		"-ac", "1",
		"-ar", "16000",
		"-f", "s16le",
		"-",
	)
}

// lockedBuffer is a mutex-guarded buffer safe for the exec stderr
// copier and concurrent reads during startup classification.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write appends process stderr output.
func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String snapshots buffered stderr text.
func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
