package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/appraise/pkg/client"
	"github.com/charlie0129/appraise/pkg/version"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/appraise.sock"
	configPath     = "/etc/appraise.json"
	// daemonAddr, when set, makes the CLI talk to the daemon over TCP instead
	// of the unix socket.
	daemonAddr = ""
)

var apiClient *client.Client

var (
	gValuation    = "Valuation:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gValuation,
		gAdvanced,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func setupClient() {
	if daemonAddr != "" {
		apiClient = client.NewTCPClient(daemonAddr)
		return
	}
	apiClient = client.NewClient(unixSocketPath)
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: appraise daemon is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'appraise daemon', or pass --local to compute without a daemon.")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or restart the daemon with the '--always-allow-non-root-access' flag to grant permissions to your user")
	} else if errors.Is(err, client.ErrRateLimited) {
		fmt.Fprintln(os.Stderr, "\nError: too many requests, the daemon is rate limiting this client")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

// needsDaemon reports whether cmd talks to a running daemon.
func needsDaemon(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "daemon", "version", "help", "completion", "install", "uninstall":
		return false
	}
	if f := cmd.Flags().Lookup("local"); f != nil && f.Value.String() == "true" {
		return false
	}
	return true
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appraise",
		Short: "appraise calibrates property valuations and projects yields",
		Long: `appraise calibrates property valuations and projects yields.

A base amount is scaled by a regional multiplier and a universal calibration
factor. Yields are projected over 1 to 120 months with a region-specific boost.
All arithmetic is exact decimal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			setupClient()

			if !needsDaemon(cmd) {
				return nil
			}

			if daemonVersion, err := apiClient.GetVersion(); err == nil {
				if daemonVersion != version.Version {
					logrus.WithFields(logrus.Fields{
						"clientVersion": version.Version,
						"daemonVersion": daemonVersion,
					}).Warn("Version mismatch between client and daemon. Results may differ from what this client expects.")
				}
			} else if errors.Is(err, client.ErrNotFound) {
				logrus.Error("appraise daemon is too old to report its version.")
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "appraise daemon unix socket path")
	globalFlags.StringVar(&daemonAddr, "daemon-addr", daemonAddr, "appraise daemon base URL, e.g. http://127.0.0.1:8419 (overrides --daemon-socket)")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewCalibrateCommand(),
		NewYieldCommand(),
		NewZakatCommand(),
		NewConstantsCommand(),
		NewStatusCommand(),
		NewWatchCommand(),
		NewRateLimitCommand(),
		NewExportCommand(),
		NewResetStatsCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
	)

	return cmd
}
