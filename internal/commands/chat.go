package commands

import (
	"github.com/spf13/cobra"

	"github.com/dvieira/kai/internal/plugin"
)

// chatLong is the help text for the registered chat action.
const chatLong = `Open the interactive chat dialog.

The dialog keeps conversation context across messages and persists the
session to history when enabled. Type 'exit', 'quit', or press Ctrl+C
to close it.`

// commandHost adapts the cobra command tree to the plugin host
// contract: registered actions become subcommands.
type commandHost struct {
	root *cobra.Command
	use  map[string]string // action id -> command name
}

func (h *commandHost) AddAction(id, title string, run func() error) {
	use := h.use[id]
	if use == "" {
		use = id
	}
	h.root.AddCommand(&cobra.Command{
		Use:   use,
		Short: title,
		Long:  chatLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	})
}

// registerChat installs the assistant dialog as the `chat` subcommand
func registerChat(root *cobra.Command) {
	host := &commandHost{
		root: root,
		use:  map[string]string{plugin.ActionID: "chat"},
	}
	plugin.Register(host, plugin.Deps{LoadConfig: loadConfig})
}
