package commands

import (
	"context"

	"github.com/dvieira/kai/internal/assistant"
	"github.com/dvieira/kai/internal/config"
	"github.com/dvieira/kai/internal/models"
)

// QuerySession is the slice of the chat session the one-shot path needs.
type QuerySession interface {
	Send(ctx context.Context, text string) (models.Message, error)
	Transcript() models.Transcript
}

// Dependencies holds the external collaborators for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// LoadConfig resolves the configuration (with flag overrides applied).
	LoadConfig func() (config.Config, error)

	// NewSession builds a fresh chat session for a one-shot query.
	NewSession func(cfg config.Config) QuerySession
}

// NewDependencies creates a Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		LoadConfig: loadConfig,
		NewSession: func(cfg config.Config) QuerySession {
			return assistant.NewSession(assistant.NewClient(cfg), cfg.SystemPrompt)
		},
	}
}

var deps = NewDependencies()
