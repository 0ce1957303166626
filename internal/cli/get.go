package cli

import (
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Download one media item",
	Long: `Download one media item into the output directory.

Multi-item URLs (carousels, playlists) need --index. Option ids come from
"clipgrab info".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd.Context(), args[0])
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <url>",
	Short: "List the items and download options of a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(cmd.Context(), args[0])
	},
}

func init() {
	addDownloadFlags(getCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(infoCmd)
}
