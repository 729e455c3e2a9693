package cmd

import (
	"fmt"

	"github.com/salmonumbrella/harp-cli/internal/output"
	"github.com/salmonumbrella/harp-cli/internal/query"
	"github.com/salmonumbrella/harp-cli/internal/schema"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the attribute columns read from the schemas",
	Long: `Show the device and register attributes declared by the configured
schemas, in column order, with the header each register attribute gets in
preview output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadSchemaSet(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if structuredOutputRequested() {
			return printStructured(ctx, set)
		}

		out := stdoutFromContext(ctx)
		s := stylerFor(out)
		_, _ = fmt.Fprintln(out, s.Heading("Device attributes"))
		if err := output.WriteTable(out, []string{"name", "default"}, descriptorRows(set.Device, false)); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, s.Heading("Register attributes"))
		return output.WriteTable(out, []string{"name", "column", "default"}, descriptorRows(set.Register, true))
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func descriptorRows(ds []schema.Descriptor, withColumn bool) [][]string {
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		row := []string{d.Name}
		if withColumn {
			row = append(row, query.ColumnName(d.Name))
		}
		row = append(row, d.Default)
		rows = append(rows, row)
	}
	return rows
}
