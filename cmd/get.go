package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"teraproxy/downloader"
	"teraproxy/internal"
	"teraproxy/utils"
)

var (
	outputPath string
	rateLimit  string
	resume     bool
)

var getCmd = &cobra.Command{
	Use:   "get <URL|CODE> <FS_ID>",
	Short: "Download a shared file to disk",
	Long: `Download a shared file to disk through the same stream the proxy serves.

Data is written to <output>.part and renamed once complete. With --resume an
existing .part file is continued with a Range request.

Examples:
  teraproxy get https://www.terabox.com/s/1AbC123 123456
  teraproxy get -o movie.mp4 -r 5M --resume 1AbC123 123456`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rateLimitBytes, err := utils.ParseRateLimit(rateLimit)
		if err != nil {
			validationErr := internal.NewValidationErrorWithValue("limit_rate", "invalid format", rateLimit).
				WithSuggestion("Use formats like 1M (1 MB/s), 500K (500 KB/s), 2G (2 GB/s), or 1024 (1024 bytes/s)")
			internal.LogValidationError(validationErr)
			return validationErr
		}
		if rateLimitBytes > 0 {
			internal.LogDebug("Rate limit parsed: %s = %d bytes/sec", rateLimit, rateLimitBytes)
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		result, err := client.Fetch(ctx, args[0], args[1], downloader.FetchOptions{
			OutputPath: outputPath,
			RateLimit:  rateLimitBytes,
			Quiet:      config.QuietMode,
			Resume:     resume,
		})
		if err != nil {
			if ctx.Err() != nil {
				internal.LogInfo("Download cancelled, run again with --resume to continue")
			}
			return reportError(err)
		}

		internal.LogInfo("Saved %s (%s)", result.Path, utils.FormatSize(result.Size))
		if !config.QuietMode {
			fmt.Fprintln(cmd.OutOrStdout(), result.Path)
		}
		return nil
	},
}

func init() {
	getCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file or directory (default: upstream filename)")
	getCmd.Flags().StringVarP(&rateLimit, "limit-rate", "r", "", "Bandwidth limit (e.g., 5M for 5MB/s)")
	getCmd.Flags().BoolVar(&resume, "resume", false, "Continue an existing .part file")
}
