package cmd

import (
	"github.com/spf13/cobra"

	"teraproxy/internal"
)

var (
	listPath  string
	listPage  int
	listLimit int
)

var infoCmd = &cobra.Command{
	Use:   "info <URL|CODE>",
	Short: "Print share information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		info, err := client.GetShareInfo(ctx, args[0])
		if err != nil {
			return reportError(err)
		}
		return printJSON(cmd.OutOrStdout(), info)
	},
}

var listCmd = &cobra.Command{
	Use:   "list <URL|CODE>",
	Short: "List one page of a shared folder",
	Long: `List one page of a shared folder.

Examples:
  teraproxy list https://www.terabox.com/s/1AbC123
  teraproxy list --path /movies --page 2 --limit 50 1AbC123`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		opts := internal.ListOptions{Path: listPath, Page: listPage, Limit: listLimit}
		list, err := client.ListFiles(ctx, args[0], opts)
		if err != nil {
			return reportError(err)
		}
		return printJSON(cmd.OutOrStdout(), list)
	},
}

var linkCmd = &cobra.Command{
	Use:   "link <URL|CODE> <FS_ID>",
	Short: "Resolve the download link of a shared file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		link, err := client.ResolveDownloadLink(ctx, args[0], args[1])
		if err != nil {
			return reportError(err)
		}
		return printJSON(cmd.OutOrStdout(), link)
	},
}

var directCmd = &cobra.Command{
	Use:   "direct <URL|CODE> <FS_ID>",
	Short: "Resolve the download link and follow its redirects",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		direct, err := client.ResolveDirectLink(ctx, args[0], args[1])
		if err != nil {
			return reportError(err)
		}
		return printJSON(cmd.OutOrStdout(), direct)
	},
}

func init() {
	listCmd.Flags().StringVarP(&listPath, "path", "p", internal.DefaultListPath, "Folder path inside the share")
	listCmd.Flags().IntVar(&listPage, "page", internal.DefaultListPage, "Page number")
	listCmd.Flags().IntVar(&listLimit, "limit", internal.DefaultListLimit, "Items per page")
}
