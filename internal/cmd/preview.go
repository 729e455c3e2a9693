package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/salmonumbrella/harp-cli/internal/device"
	"github.com/salmonumbrella/harp-cli/internal/output"
	"github.com/salmonumbrella/harp-cli/internal/preview"
	"github.com/salmonumbrella/harp-cli/internal/schema"
	"github.com/spf13/cobra"
)

var previewWatch bool

var previewCmd = &cobra.Command{
	Use:   "preview <file|->",
	Short: "Render a device document",
	Long: `Render a device document as tables of device attributes, registers,
bit masks and group masks.

Columns follow the order of the properties in the device and register
schemas. Use - to read the document from stdin.

Output formats:
  text    Headed tables (default on a terminal)
  table   Tables only
  html    Standalone HTML page
  json    Preview object (default when piped)
  ndjson  Preview object on one line
  yaml    Preview object

--result-limit, --result-sort-by and --result-desc apply to register rows
in text and table output.`,
	Example: `  harp preview device.yml
  harp preview device.yml -o html > device.html
  harp preview device.yml --watch
  cat device.yml | harp preview - -o json --query '.registers.rows[][0]'`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().BoolVarP(&previewWatch, "watch", "w", false, "Re-render each time the document is saved")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	source := strings.TrimSpace(args[0])

	if previewWatch && source == "-" {
		return fmt.Errorf("--watch requires a file path, not stdin")
	}
	if source == "-" && !inputHasData(stdinFromContext(ctx)) {
		return fmt.Errorf("no document on stdin")
	}

	set, err := loadSchemaSet(cmd)
	if err != nil {
		return err
	}

	if previewWatch {
		return watchPreview(ctx, source, set)
	}

	p, err := loadPreview(ctx, source, set)
	if err != nil {
		return err
	}
	return renderPreview(ctx, p)
}

// loadPreview reads the document at source fresh and projects it.
func loadPreview(ctx context.Context, source string, set *schema.Set) (*preview.Preview, error) {
	data, err := readInput(source, stdinFromContext(ctx))
	if err != nil {
		return nil, err
	}

	d, err := device.Load(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	p := preview.Build(d, set)

	logger := loggerFromContext(ctx)
	for _, maskErr := range p.Errors() {
		logger.Debug("mask not decoded", "device", p.Title, "error", maskErr)
	}
	logger.Debug("preview built",
		"device", p.Title,
		"bit_masks", len(p.BitMasks),
		"group_masks", len(p.GroupMasks),
	)
	return p, nil
}

func renderPreview(ctx context.Context, p *preview.Preview) error {
	out := stdoutFromContext(ctx)

	switch format := output.FormatFromContext(ctx); format {
	case output.FormatHTML:
		return preview.RenderHTML(out, p)
	case output.FormatTable:
		return preview.RenderTables(out, applyRegisterOptions(ctx, p))
	case output.FormatText:
		return preview.RenderText(out, applyRegisterOptions(ctx, p), stylerFor(out))
	default:
		return output.NewPrinter(out, format).Print(ctx, p)
	}
}

// applyRegisterOptions applies row limit and sort options to the register
// table.
func applyRegisterOptions(ctx context.Context, p *preview.Preview) *preview.Preview {
	table, ok := p.RegisterTable()
	if !ok {
		return p
	}
	limit := output.LimitFromContext(ctx)
	sortBy, _ := output.SortFromContext(ctx)
	if limit <= 0 && sortBy == "" {
		return p
	}
	applied, ok := output.ApplyAgentOptions(ctx, table).(output.Table)
	if !ok {
		return p
	}
	return p.WithRegisterTable(applied)
}
