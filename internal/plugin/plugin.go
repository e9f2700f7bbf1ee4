// Package plugin registers the assistant dialog with a hosting surface.
//
// The host hands the plugin an action registry; the plugin installs a
// single "AI Assistant" action that opens a fresh chat dialog each time
// it is activated.
package plugin

import (
	"os"

	"golang.org/x/term"

	"github.com/dvieira/kai/internal/assistant"
	"github.com/dvieira/kai/internal/config"
	apierrors "github.com/dvieira/kai/internal/errors"
	"github.com/dvieira/kai/internal/history"
	"github.com/dvieira/kai/internal/logging"
	"github.com/dvieira/kai/internal/render"
	"github.com/dvieira/kai/internal/tui"
)

// ActionID identifies the registered toolbar action.
const ActionID = "kai.assistant"

// ActionTitle is the human-facing label for the action.
const ActionTitle = "AI Assistant"

// Host is the handle a hosting surface injects so the plugin can
// register actions against it.
type Host interface {
	AddAction(id, title string, run func() error)
}

// Deps carries the collaborators a dialog activation needs. Zero-value
// fields fall back to the real implementations.
type Deps struct {
	// LoadConfig returns the resolved configuration. Defaults to config.Load.
	LoadConfig func() (config.Config, error)

	// NewStore returns the history store. Defaults to history.DefaultStore.
	NewStore func() (*history.Store, error)

	// RunDialog opens the dialog for a session. Defaults to tui.RunDialog.
	RunDialog func(session tui.SessionInterface, opts tui.Options) error

	// IsTerminal reports whether the dialog has a terminal to draw on.
	// Defaults to checking stdout.
	IsTerminal func() bool
}

func (d Deps) withDefaults() Deps {
	if d.LoadConfig == nil {
		d.LoadConfig = config.Load
	}
	if d.NewStore == nil {
		d.NewStore = history.DefaultStore
	}
	if d.RunDialog == nil {
		d.RunDialog = tui.RunDialog
	}
	if d.IsTerminal == nil {
		d.IsTerminal = func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		}
	}
	return d
}

// Register installs the assistant action on the host. The action runs
// Activate, so every click gets a fresh session and transcript.
func Register(h Host, deps Deps) {
	deps = deps.withDefaults()
	h.AddAction(ActionID, ActionTitle, func() error {
		return Activate(deps)
	})
}

// Activate runs the preflight checks, builds a fresh session, and opens
// the dialog. The transcript never survives across activations.
func Activate(deps Deps) error {
	deps = deps.withDefaults()

	cfg, err := Preflight(deps)
	if err != nil {
		return err
	}

	if render.SetTUITheme(cfg.TUITheme) {
		tui.UpdateTheme()
	}

	client := assistant.NewClient(cfg)
	session := assistant.NewSession(client, cfg.SystemPrompt)

	opts := tui.Options{CopyToClipboard: cfg.CopyToClipboard}
	var store *history.Store
	if cfg.HistoryEnabled {
		store, err = deps.NewStore()
		if err != nil {
			logging.Warnw("history disabled for this session", "error", err)
			store = nil
		} else {
			conv, cerr := store.CreateConversation(cfg.Model)
			if cerr != nil {
				logging.Warnw("per-exchange autosave unavailable", "error", cerr)
			} else {
				opts.HistoryStore = store
				opts.ConversationID = conv.ID
			}
		}
	}

	logging.Infow("assistant dialog opened", "model", cfg.Model)
	if err := deps.RunDialog(session, opts); err != nil {
		return err
	}

	// Per-exchange autosave already holds the full session. A one-shot
	// save on close covers the case where only autosave setup failed.
	if store != nil && opts.ConversationID == "" && session.Len() > 0 {
		if _, serr := store.SaveTranscript(cfg.Model, session.Transcript()); serr != nil {
			logging.Warnw("failed to save session transcript", "error", serr)
		}
	}
	return nil
}

// Preflight verifies the preconditions for opening the dialog and
// returns the resolved configuration. It fails fast so activation never
// reaches the network with a broken setup.
func Preflight(deps Deps) (config.Config, error) {
	deps = deps.withDefaults()

	cfg, err := deps.LoadConfig()
	if err != nil {
		return config.Config{}, err
	}

	if !deps.IsTerminal() {
		return config.Config{}, apierrors.NewConfigError("", "",
			"the chat dialog needs an interactive terminal", nil)
	}

	return cfg, nil
}
