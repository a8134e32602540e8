package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/appraise/pkg/daemon"
	"github.com/charlie0129/appraise/pkg/version"
)

var (
	// alwaysAllowNonRootAccess indicates whether to always allow non-root users to access the appraise daemon.
	alwaysAllowNonRootAccess = false
	// listenAddr overrides the TCP listen address from the config file.
	listenAddr = ""
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "daemon",
		Short:   "Run appraise daemon in the foreground",
		GroupID: gAdvanced,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("appraise daemon starting")
			return daemon.Run(configPath, unixSocketPath, listenAddr, alwaysAllowNonRootAccess)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&alwaysAllowNonRootAccess, "always-allow-non-root-access", false,
		"Always allow non-root users to access the daemon.")
	f.StringVar(&listenAddr, "listen", "",
		"Also serve on this TCP address, e.g. 127.0.0.1:8419.")

	return cmd
}
