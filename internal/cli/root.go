package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Labelsheet prints set labels for Magic: The Gathering card storage",
		Long: `Labelsheet generates printable PDF label sheets for Magic: The Gathering
sets and card types. Set data and symbols come from Scryfall and are cached
locally, and labels are laid out on any Avery-style sheet template.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/labelsheet/config.toml)")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.pickCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.unitsCommand())
	root.AddCommand(c.setsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}
