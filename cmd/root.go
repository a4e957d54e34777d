package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"teraproxy/downloader"
	"teraproxy/internal"
)

const version = "v1.0.0"

var (
	configPath  string
	cookie      string
	cookiesPath string
	proxyURL    string
	debug       bool
	quiet       bool
	logLevel    string
	logFile     string
	config      *internal.Config
)

var rootCmd = &cobra.Command{
	Use:     "teraproxy",
	Short:   "Resolve and proxy TeraBox share links",
	Version: version,
	Long: `teraproxy resolves public TeraBox share links into share metadata, folder
listings and time-limited download links, and can stream the files through
itself over HTTP.

Examples:
  teraproxy serve --listen :8080
  teraproxy info https://www.terabox.com/s/1AbC123
  teraproxy list --path /movies https://www.terabox.com/s/1AbC123
  teraproxy get -o ./downloads --resume https://www.terabox.com/s/1AbC123 123456

Environment Variables:
  TERABOX_COOKIE          Session cookie sent to the share service
  TERAPROXY_LISTEN        Listen address for serve
  TERAPROXY_PROXY         Outbound proxy URL
  TERAPROXY_RATE_LIMIT    Requests per second per client for serve
  TERAPROXY_LOG_LEVEL     Log level (debug, info, warn, error)

DISCLAIMER: Respect TeraBox's Terms of Service and copyright laws.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfiguration(); err != nil {
			return fmt.Errorf("configuration error: %v", err)
		}

		if err := internal.InitLogger(config); err != nil {
			return fmt.Errorf("failed to initialize logger: %v", err)
		}

		internal.LogDebug("Configuration loaded: listen=%s, metadata_timeout=%s, stream_timeout=%s, credential=%v",
			config.Listen, config.MetadataTimeout, config.StreamTimeout, config.HasCredential())
		return nil
	},
}

// loadConfiguration layers defaults, the config file, the environment and flags
func loadConfiguration() error {
	config = internal.DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return err
	}
	config.LoadFromEnv()

	if cookiesPath != "" {
		loaded, err := downloader.NewCookieFileLoader().LoadCookies(cookiesPath)
		if err != nil {
			return internal.NewValidationErrorWithValue("cookies_file", err.Error(), cookiesPath).
				WithSuggestion("Ensure the file exists and is in Netscape cookie format")
		}
		config.Cookie = loaded
	}
	if cookie != "" {
		config.Cookie = cookie
	}

	if proxyURL != "" {
		config.ProxyURL = proxyURL
	}

	if debug {
		config.EnableDebug = true
		config.LogLevel = "debug"
	}

	if quiet {
		config.QuietMode = true
	}

	if logLevel != "" {
		config.LogLevel = logLevel
	}

	if logFile != "" {
		config.LogFile = logFile
	}

	return config.ValidateConfig()
}

func newClient() (*downloader.Client, error) {
	client, err := downloader.NewClient(config)
	if err != nil {
		internal.LogError("Failed to create client: %v", err)
		return nil, err
	}
	return client, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// reportError logs core errors with their detail before returning them to cobra
func reportError(err error) error {
	if te, ok := internal.AsTeraboxError(err); ok {
		internal.LogTeraboxError(te)
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&cookie, "cookie", "", "Cookie header value for the share service (env: TERABOX_COOKIE)")
	flags.StringVarP(&cookiesPath, "cookies", "c", "", "Path to a Netscape-format cookie file")
	flags.StringVar(&proxyURL, "proxy", "", "HTTP/SOCKS proxy URL (env: TERAPROXY_PROXY)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Only log errors and hide progress output")
	flags.BoolVarP(&debug, "debug", "d", false, "Enable debug logging with file and line information (env: TERAPROXY_DEBUG)")
	flags.StringVar(&logLevel, "log-level", "", "Set log level (debug, info, warn, error) (env: TERAPROXY_LOG_LEVEL)")
	flags.StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr (env: TERAPROXY_LOG_FILE)")

	rootCmd.AddCommand(serveCmd, infoCmd, listCmd, linkCmd, directCmd, getCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
