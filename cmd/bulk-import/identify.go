package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maltedev/supplier-extractor/internal/supplier"
)

var identifyCmd = &cobra.Command{
	Use:   "identify [url...]",
	Short: "Print the supplier of each URL",
	RunE:  runIdentify,
}

var identifyFile string

func init() {
	identifyCmd.Flags().StringVarP(&identifyFile, "file", "f", "", "File with one URL per line")
	rootCmd.AddCommand(identifyCmd)
}

func runIdentify(cmd *cobra.Command, args []string) error {
	urls, err := collectURLs(args, identifyFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, u := range urls {
		tag, ok := supplier.Identify(u)
		if !ok {
			tag = "unsupported"
		}
		fmt.Fprintf(out, "%-12s %s\n", tag, u)
	}
	return nil
}
