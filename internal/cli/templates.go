package cli

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/template"
	"github.com/matzehuels/labelsheet/pkg/units"
)

// templatesCommand creates the templates command.
func (c *CLI) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "List, show and validate label sheet templates",
	}
	cmd.AddCommand(c.templatesListCommand())
	cmd.AddCommand(c.templatesShowCommand())
	cmd.AddCommand(c.templatesValidateCommand())
	return cmd
}

// presets returns the configured preset registry.
func (c *CLI) presets() (*template.Registry, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return cfg.Presets()
}

func (c *CLI) templatesListCommand() *cobra.Command {
	var unit string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := units.Parse(unit)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "--unit")
			}
			reg, err := c.presets()
			if err != nil {
				return err
			}

			rows := [][]string{}
			for _, t := range reg.All() {
				d := t.In(u)
				name := t.Name
				if name == reg.DefaultName() {
					name += " *"
				}
				rows = append(rows, []string{
					name,
					fmt.Sprintf("%d×%d", t.Columns, t.Rows),
					fmt.Sprintf("%s × %s", formatLength(d.LabelWidth), formatLength(d.LabelHeight)),
					fmt.Sprintf("%s × %s", formatLength(d.PageWidth), formatLength(d.PageHeight)),
					t.Description,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "Grid", "Label (" + string(u) + ")", "Page (" + string(u) + ")", "Description"}, rows))
			printDetail("* default preset")
			return nil
		},
	}

	cmd.Flags().StringVar(&unit, "unit", "mm", "display unit (pt, in, mm, cm, pc)")
	return cmd
}

func (c *CLI) templatesShowCommand() *cobra.Command {
	var unit string

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a preset as TOML",
		Long: `Print a preset as TOML. The output can be edited and passed back with
generate --template FILE --unit UNIT.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return template.Builtin().Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := units.Parse(unit)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "--unit")
			}
			reg, err := c.presets()
			if err != nil {
				return err
			}
			t, err := reg.Get(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s: %d labels per page, lengths in %s\n", t.Name, t.SlotsPerPage(), u)
			return toml.NewEncoder(out).Encode(t.In(u))
		},
	}

	cmd.Flags().StringVar(&unit, "unit", "pt", "unit of the printed lengths")
	return cmd
}

func (c *CLI) templatesValidateCommand() *cobra.Command {
	var unit string

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a template file for problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTemplateFile(args[0], unit)
			if err != nil {
				return err
			}
			issues := template.Validate(t)
			printIssues(issues)
			if issues.HasBlocking() {
				return issues.Err()
			}

			fit := t.Fit()
			printSuccess("%s is valid: %d labels per page", t.Name, t.SlotsPerPage())
			printDetail("grid uses %s × %s of %s × %s pt printable",
				formatLength(fit.RequiredWidth), formatLength(fit.RequiredHeight),
				formatLength(fit.PrintableWidth), formatLength(fit.PrintableHeight))
			printNextStep("Use it", "labelsheet generate --template "+args[0]+" --unit "+unit+" REF...")
			return nil
		},
	}

	cmd.Flags().StringVar(&unit, "unit", "pt", "unit of the lengths in FILE")
	return cmd
}

// formatLength prints a length with at most two decimals.
func formatLength(v float64) string {
	return strconv.FormatFloat(units.Round2(v), 'f', -1, 64)
}
