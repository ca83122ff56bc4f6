package bootstrap

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"echolog/internal/analysis"
	"echolog/internal/api"
	"echolog/internal/capture"
	"echolog/internal/config"
	"echolog/internal/coordinator"
	"echolog/internal/diagnostics"
	"echolog/internal/domain"
	"echolog/internal/events"
	"echolog/internal/logger"
	"echolog/internal/normalize"
	"echolog/internal/session"
)

// App wires configuration, session, backend client, and the pipeline
// factory consumed by CLI commands.
type App struct {
	Settings    domain.Settings
	ConfigStore config.Store
	Sessions    session.Store
	Session     domain.Session
	Client      *api.Client
	Analyzer    *analysis.Analyzer
	Checker     *diagnostics.Checker
	Bus         *events.Bus
	Log         *logger.Logger
}

// New builds the application from persisted settings and session.
func New(log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.New()
	}

	configStore := config.NewTOMLStore(config.SettingsPath())
	settings, err := configStore.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	sessions := session.NewFileStore(filepath.Join(config.Dir(), "session.json"))
	sess, err := sessions.Load()
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	httpClient := &http.Client{Timeout: config.HTTPTimeout(settings)}
	client := api.New(settings.BackendURL, httpClient, log)

	return &App{
		Settings:    settings,
		ConfigStore: configStore,
		Sessions:    sessions,
		Session:     sess,
		Client:      client,
		Analyzer:    analysis.NewAnalyzer(client),
		Checker:     diagnostics.NewChecker(client),
		Bus:         events.NewBus(1000),
		Log:         log,
	}, nil
}

// NewCoordinator builds a pipeline coordinator for one session run.
func (a *App) NewCoordinator() *coordinator.Coordinator {
	settings := a.Settings
	return coordinator.New(coordinator.Config{
		NewRecorder: func() coordinator.Recorder {
			return capture.NewRecorder(settings)
		},
		Normalizer:   normalize.New(),
		Jobs:         a.Client,
		Bus:          a.Bus,
		Log:          a.Log,
		Session:      a.Session,
		PollInterval: config.PollInterval(settings),
	})
}

// RequireSession returns the current session or an instruction to log
// in when none is usable.
func (a *App) RequireSession() (domain.Session, error) {
	if !a.Session.Valid() {
		return domain.Session{}, session.ErrNoSession
	}
	return a.Session, nil
}

// SaveSession persists and installs a fresh session after login.
func (a *App) SaveSession(sess domain.Session) error {
	if err := a.Sessions.Save(sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	a.Session = sess
	return nil
}

// ClearSession drops the persisted session, on logout or after a 401.
func (a *App) ClearSession() error {
	a.Session = domain.Session{}
	return a.Sessions.Clear()
}

// HandleAuthError clears the stored session when the backend reports
// it invalid, so the next command prompts for login.
func (a *App) HandleAuthError(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		if clearErr := a.ClearSession(); clearErr != nil {
			a.Log.WithError(clearErr).Warn("failed to clear stale session")
		}
		return fmt.Errorf("session expired, run `echolog login`: %w", err)
	}
	return err
}
