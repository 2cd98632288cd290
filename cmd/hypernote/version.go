package main

import (
	"fmt"
	"strings"

	hypernote "github.com/futurepaul/hypernote-pages"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of hypernote",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hypernote version %s\n", strings.TrimSpace(hypernote.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
