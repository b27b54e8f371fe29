// Command bulk-import extracts many supplier product URLs sequentially and
// keeps a resumable record of the results.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bulk-import",
	Short: "Bulk supplier product extraction",
	Long:  "Extracts Alibaba, AliExpress and Temu product pages one at a time with a randomized delay between calls.",
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
