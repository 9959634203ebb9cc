// eanbatch processes a file of barcodes through the same pipeline as the
// HTTP server and writes a spreadsheet, a backup and a statistics table.
//
// Usage:
//
//	eanbatch process -f codes.txt [-o output] [--backup-format json|yaml] [--max-items N] [--images]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "eanbatch",
	Short: "Batch EAN/UPC product lookup",
	Long:  "eanbatch looks up product data for a newline-delimited file of barcodes\nand exports the results as a spreadsheet plus a JSON or YAML backup.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
