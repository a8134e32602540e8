package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/appraise/pkg/types"
	"github.com/charlie0129/appraise/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewConstantsCommand() *cobra.Command {
	var (
		local  bool
		output string
	)

	cmd := &cobra.Command{
		Use:     "constants",
		Short:   "Show the calibration constants",
		GroupID: gValuation,
		Long: `Show the regional multipliers, yield boosts, universal calibration factor,
yield smoothing factor and zakat rate.

These are fixed at build time and cannot be configured.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}

			var c *types.Constants
			if local {
				cc := types.CurrentConstants()
				c = &cc
			} else {
				var err error
				c, err = apiClient.GetConstants()
				if err != nil {
					return err
				}
			}

			return printResult(cmd.OutOrStdout(), output, c, func() {
				cmd.Println(bold("Regions:"))
				for _, r := range c.Regions {
					cmd.Printf("  %s: multiplier %s, yield boost %s\n", bold("%s", r.Name), r.Multiplier, r.YieldBoost)
				}
				cmd.Println()
				cmd.Printf("Universal factor: %s\n", bold("%s", c.UniversalFactor))
				cmd.Printf("Yield smoothing: %s\n", bold("%s", c.YieldSmoothing))
				cmd.Printf("Zakat rate: %s\n", bold("%s", c.ZakatRate))
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "show the constants built into this binary")
	addOutputFlag(cmd, &output)

	return cmd
}

func NewRateLimitCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rate-limit [requests]",
		Short:   "Set the per-client request limit of the daemon",
		GroupID: gAdvanced,
		Long: `Set the per-client request limit of the daemon.

Each client may send this many valuation requests per rate limit window
(rateLimitWindowSeconds in the config file, 60 seconds by default). Setting it
to 0 disables rate limiting. The new limit is saved to the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			limit, err := parseIntArg(args[0], "rate limit")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetRateLimit(limit)
			if err != nil {
				return fmt.Errorf("failed to set rate limit: %w", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set rate limit to %d", limit)

			return nil
		},
	}
}
