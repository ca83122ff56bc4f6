package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"echolog/internal/api"
	"echolog/internal/domain"
)

// verifier checks a session against the backend.
type verifier interface {
	Verify(ctx context.Context, session domain.Session) (api.VerifyResponse, error)
}

// Checker validates external tools, configuration, and backend access.
type Checker struct {
	lookPath   func(string) (string, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	verify     verifier
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker(verify verifier) *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		verify:     verify,
	}
}

// Run executes all doctor checks and returns a combined report.
func (c *Checker) Run(ctx context.Context, settings domain.Settings, session domain.Session) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool("ffmpeg"),
		c.checkTool("ffprobe"),
		c.checkDevice(settings),
		c.checkOutputDir(settings.OutputDir),
		c.checkBackend(ctx, settings, session),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a required CLI executable is on PATH.
func (c *Checker) checkTool(name string) domain.DiagnosticItem {
	path, err := c.lookPath(name)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      "tool_" + name,
			Name:    name,
			Status:  domain.DiagnosticStatusFail,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    "Install it and ensure the binary is available on PATH before recording.",
		}
	}

	return domain.DiagnosticItem{
		ID:      "tool_" + name,
		Name:    name,
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkDevice validates capture device configuration.
func (c *Checker) checkDevice(settings domain.Settings) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "capture_device",
		Name: "Capture device",
	}

	if strings.TrimSpace(settings.CaptureDevice) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "No microphone device configured."
		item.Hint = "Set capture_device in settings.toml or ECHOLOG_CAPTURE_DEVICE."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Microphone: %s", settings.CaptureDevice)
	if strings.TrimSpace(settings.SystemDevice) == "" {
		item.Message += " (system audio not configured)"
	}
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Set an output directory where exports can be written."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for exports."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// checkBackend validates backend reachability and session state.
func (c *Checker) checkBackend(ctx context.Context, settings domain.Settings, session domain.Session) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "backend",
		Name: "Backend session",
	}

	if !session.Valid() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Not logged in."
		item.Hint = "Run `echolog login` to authenticate with Google."
		return item
	}
	if c.verify == nil {
		item.Status = domain.DiagnosticStatusPass
		item.Message = "Session present (backend check skipped)."
		return item
	}

	user, err := c.verify.Verify(ctx, session)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, api.ErrUnauthorized) {
			item.Message = "Session expired or revoked."
			item.Hint = "Run `echolog login` again."
		} else {
			item.Message = fmt.Sprintf("Backend unreachable: %s", settings.BackendURL)
			item.Hint = "Check backend_url in settings and network connectivity."
		}
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Authenticated as %s", user.Email)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	verify verifier,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
		verify:     verify,
	}
}
