// Package main provides the batch-planner CLI application.
package main

import (
	"fmt"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/version"
	"github.com/spf13/cobra"
)

var versionShort bool

// versionCmd prints build information baked in at link time.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Println(version.String())
			return
		}
		info := version.Info()
		fmt.Printf("batch-planner %s\n", info["version"])
		for _, k := range []string{"buildDate", "gitCommit", "goVersion"} {
			fmt.Printf("  %-10s %s\n", k, info[k])
		}
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print the bare version number")
	rootCmd.AddCommand(versionCmd)
}
