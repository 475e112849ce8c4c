package main

import (
	"context"
	"fmt"

	"SPX-VAL/internal/store"

	"github.com/spf13/cobra"
)

var numberLogPath string

var nextNumberCmd = &cobra.Command{
	Use:   "next-number",
	Short: "Print the next file number from an audit log",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		n, err := store.NewSequence(numberLogPath, log).NextFileNumber(context.Background())
		if err != nil {
			fatal("Error reading audit log", err)
		}
		fmt.Println(n)
	},
}

func init() {
	rootCmd.AddCommand(nextNumberCmd)
	nextNumberCmd.Flags().StringVar(&numberLogPath, "log", "data/document_logs.csv", "Audit log CSV")
}
