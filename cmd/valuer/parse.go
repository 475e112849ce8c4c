package main

import (
	"fmt"
	"path/filepath"

	"SPX-VAL/internal/filename"

	"github.com/spf13/cobra"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse [filename]",
	Short: "Split a document file name into its identity segments",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := filename.Parse(filepath.Base(args[0]))
		if parseJSON {
			printJSON(id)
			return
		}
		fmt.Printf("File Number:   %s\n", id.FileNumber)
		fmt.Printf("Property Type: %s\n", id.PropertyType)
		fmt.Printf("Location:      %s\n", id.Location)
		fmt.Printf("Customer:      %s\n", id.CustomerName)
		fmt.Printf("Bank Code:     %s\n", id.BankCode)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Output in JSON format")
}
