package handlers

import (
	"github.com/assoportal/pollengine/internal/auth"
	"github.com/assoportal/pollengine/internal/services"
	"github.com/assoportal/pollengine/internal/websocket"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Lifecycle  services.LifecycleServicer
	Submission services.SubmissionServicer
	Results    services.ResultsServicer
	Settings   services.SettingsServicer
	Share      services.ShareServicer
	Auth       *auth.Auth
	Hub        *websocket.Hub
	Log        HTTPLogger
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	lifecycle services.LifecycleServicer,
	submission services.SubmissionServicer,
	results services.ResultsServicer,
	settings services.SettingsServicer,
	share services.ShareServicer,
	sessionAuth *auth.Auth,
	hub *websocket.Hub,
	log HTTPLogger,
) *Handlers {
	return &Handlers{
		Lifecycle:  lifecycle,
		Submission: submission,
		Results:    results,
		Settings:   settings,
		Share:      share,
		Auth:       sessionAuth,
		Hub:        hub,
		Log:        log,
	}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// NewForTesting creates a Handlers instance with a fixed auth secret and
// admin password, without a websocket hub
func NewForTesting(
	lifecycle services.LifecycleServicer,
	submission services.SubmissionServicer,
	results services.ResultsServicer,
	settings services.SettingsServicer,
	share services.ShareServicer,
) *Handlers {
	testAuth, _ := auth.New([]byte("test-secret"), "test-password")
	return &Handlers{
		Lifecycle:  lifecycle,
		Submission: submission,
		Results:    results,
		Settings:   settings,
		Share:      share,
		Auth:       testAuth,
		Log:        NoopHTTPLogger{},
	}
}
