package cmd

import (
	"context"
	"io"

	"github.com/salmonumbrella/harp-cli/internal/output"
)

func structuredOutputRequested() bool {
	return output.IsStructured(GetOutputFormat())
}

func printStructured(ctx context.Context, data interface{}) error {
	printer := output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat())
	return printer.Print(ctx, data)
}

// stylerFor decorates only when w is a terminal.
func stylerFor(w io.Writer) output.Styler {
	return output.NewStyler(isTerminal(w))
}

func currentContext() context.Context {
	if rootCmd != nil && rootCmd.Context() != nil {
		return rootCmd.Context()
	}
	return context.Background()
}
