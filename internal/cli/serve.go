package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. The server shares one cache across requests and shuts
down gracefully on interrupt.

The listen address defaults to the config file, then LABELSHEET_LISTEN,
then PORT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := c.newServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			addr := svc.cfg.Listen
			if listen != "" {
				addr = listen
			}
			srv := api.New(svc.runner, svc.cache, c.Logger)
			printInfo("Serving on %s", addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address, e.g. :8080")
	return cmd
}
