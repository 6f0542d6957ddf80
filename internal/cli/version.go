package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/guiyumin/ytdl/internal/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ytdl v%s %s/%s\n", version.Version, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
