package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/layout"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
	"github.com/matzehuels/labelsheet/pkg/template"
	"github.com/matzehuels/labelsheet/pkg/units"
)

// generateOptions holds the flags shared by generate and pick.
type generateOptions struct {
	preset       string
	templateFile string
	unit         string
	view         string
	output       string
	placeholders int
	each         int
	outlines     bool
	qr           bool
}

func (o *generateOptions) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.preset, "preset", "p", "", "template preset (default from config)")
	fs.StringVarP(&o.templateFile, "template", "t", "", "TOML file describing a custom template")
	fs.StringVar(&o.unit, "unit", "pt", "unit of the lengths in --template (pt, in, mm, cm, pc)")
	fs.StringVar(&o.view, "view", pipeline.DefaultViewMode, "what to label: sets or types")
	fs.StringVarP(&o.output, "output", "o", defaultOutput, "output file, - for stdout")
	fs.IntVar(&o.placeholders, "skip", 0, "leave this many slots empty at the start of the first page")
	fs.IntVarP(&o.each, "each", "n", 1, "labels per item when no =QTY is given")
	fs.BoolVar(&o.outlines, "outlines", false, "draw label outlines")
	fs.BoolVar(&o.qr, "qr", false, "add a QR code linking to the set on Scryfall")
}

// request builds the pipeline request for selections.
func (o *generateOptions) request(selections []layout.Selection) (pipeline.Request, error) {
	req := pipeline.Request{
		Preset:       o.preset,
		ViewMode:     o.view,
		Selections:   selections,
		Placeholders: o.placeholders,
		DrawOutlines: o.outlines,
		QRCodes:      o.qr,
	}
	if o.templateFile != "" {
		t, err := loadTemplateFile(o.templateFile, o.unit)
		if err != nil {
			return req, err
		}
		req.Template = &t
	}
	return req, nil
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate REF[=QTY]...",
		Short: "Generate a PDF label sheet",
		Long: `Generate a PDF label sheet for the given items.

In the sets view (default) each REF is a Scryfall set code or set ID. In the
types view each REF is COLOR:TYPE, for example Blue:Creature. Append =QTY to
print more than one label for an item.`,
		Example: `  labelsheet generate neo dmu=2 -o labels.pdf
  labelsheet generate --preset averyl7160 --skip 4 --qr mh3 otj
  labelsheet generate --view types Blue:Creature Red:Instant=3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selections, err := parseSelections(args, opts.each)
			if err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), &opts, selections)
		},
	}

	opts.bind(cmd.Flags())
	registerGenerateCompletions(cmd)
	return cmd
}

func registerGenerateCompletions(cmd *cobra.Command) {
	cmd.RegisterFlagCompletionFunc("preset", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return template.Builtin().Names(), cobra.ShellCompDirectiveNoFileComp
	})
	cmd.RegisterFlagCompletionFunc("view", cobra.FixedCompletions(
		[]string{pipeline.ViewSets, pipeline.ViewTypes}, cobra.ShellCompDirectiveNoFileComp))
	cmd.RegisterFlagCompletionFunc("unit", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(units.All()))
		for _, u := range units.All() {
			names = append(names, string(u))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

// runGenerate renders selections and writes the PDF.
func (c *CLI) runGenerate(ctx context.Context, opts *generateOptions, selections []layout.Selection) error {
	req, err := opts.request(selections)
	if err != nil {
		return err
	}
	svc, err := c.newServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, "Generating labels...")
	spinner.Start()
	result, err := svc.runner.Generate(ctx, req)
	spinner.Stop()
	if err != nil {
		if issues := errors.GetIssues(err); len(issues) > 0 {
			printIssues(issues)
		}
		return err
	}

	if err := writeOutput(opts.output, result.PDF); err != nil {
		return err
	}
	c.Logger.Debug("wrote pdf", "path", opts.output, "bytes", len(result.PDF))

	if opts.output == "-" {
		return nil
	}
	printSuccess("Generated %d labels on %d %s (%s)",
		result.Stats.Labels, result.PageCount, plural(result.PageCount, "page"), prog.elapsed())
	printFile(opts.output)
	printStats(result.CacheInfo.Catalog,
		result.Template.Name,
		fmt.Sprintf("%d placeholders", result.Stats.Placeholders),
		fmt.Sprintf("%d symbols", result.Stats.Symbols))
	for _, w := range result.Warnings {
		printWarning("%s", w)
	}
	return nil
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// parseSelections turns REF[=QTY] arguments into selections. Items
// without a quantity get each labels.
func parseSelections(args []string, each int) ([]layout.Selection, error) {
	if each < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "--each must be at least 1, got %d", each)
	}
	out := make([]layout.Selection, 0, len(args))
	for _, arg := range args {
		ref, qty := strings.TrimSpace(arg), each
		if i := strings.LastIndex(ref, "="); i >= 0 {
			n, err := strconv.Atoi(ref[i+1:])
			if err != nil || n < 1 {
				return nil, errors.New(errors.ErrCodeInvalidInput, "invalid quantity in %q", arg)
			}
			ref, qty = ref[:i], n
		}
		if ref == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "empty reference in %q", arg)
		}
		out = append(out, layout.Selection{Ref: ref, Quantity: qty})
	}
	return out, nil
}

// loadTemplateFile reads a single template from a TOML file whose lengths
// are given in unit.
func loadTemplateFile(path, unit string) (template.Template, error) {
	u, err := units.Parse(unit)
	if err != nil {
		return template.Template{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "--unit")
	}
	var t template.Template
	md, err := toml.DecodeFile(path, &t)
	if err != nil {
		return t, errors.Wrap(errors.ErrCodeInvalidInput, err, "read template %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return t, errors.New(errors.ErrCodeInvalidInput, "template %s: unknown key %q", path, undecoded[0].String())
	}
	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), ".toml")
	}
	return t.FromUnit(u), nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
