package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/units"
)

// unitsCommand creates the units command.
func (c *CLI) unitsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units",
		Short: "Convert between length units",
	}
	cmd.AddCommand(c.unitsConvertCommand())
	return cmd
}

func (c *CLI) unitsConvertCommand() *cobra.Command {
	names := make([]string, 0, len(units.All()))
	for _, u := range units.All() {
		names = append(names, string(u))
	}

	return &cobra.Command{
		Use:   "convert VALUE FROM TO",
		Short: "Convert a length, e.g. 'convert 2.625 in mm'",
		Long: fmt.Sprintf(`Convert a length between units. Supported units: %s.

Template lengths are stored in points (1/72 inch).`, strings.Join(names, ", ")),
		Example: "  labelsheet units convert 66.7 mm in",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "invalid value %q", args[0])
			}
			from, err := units.Parse(args[1])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "from")
			}
			to, err := units.Parse(args[2])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "to")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", formatLength(units.Convert(v, from, to)), to)
			return nil
		},
	}
}
