package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/appraise/pkg/config"
	"github.com/charlie0129/appraise/pkg/types"
)

type statusData struct {
	Version string                `json:"version" yaml:"version"`
	Config  *config.RawFileConfig `json:"config" yaml:"config"`
	Stats   *types.Stats          `json:"stats" yaml:"stats"`
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	v, err := apiClient.GetVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	stats, err := apiClient.GetStats()
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return &statusData{
		Version: v,
		Config:  conf,
		Stats:   stats,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gValuation,
		Short:   "Get the current status of the appraise daemon",
		Long:    `Get daemon version, configuration, and request statistics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}

			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			return printResult(cmd.OutOrStdout(), output, data, func() {
				printStatusText(cmd, data)
			})
		},
	}

	addOutputFlag(cmd, &output)

	return cmd
}

func printStatusText(cmd *cobra.Command, data *statusData) {
	conf := config.NewFileFromConfig(data.Config, "")
	stats := data.Stats

	cmd.Println(bold("Daemon:"))
	cmd.Printf("  Version: %s\n", bold("%s", data.Version))
	cmd.Printf("  Started: %s (up %s)\n", stats.StartedAt.Local().Format(time.DateTime), time.Duration(stats.UptimeSeconds)*time.Second)
	cmd.Println()

	cmd.Println(bold("Requests:"))
	cmd.Printf("  Calibrations: %s\n", bold("%d", stats.Calibrations))
	cmd.Printf("  Yield projections: %s\n", bold("%d", stats.YieldProjections))
	cmd.Printf("  Zakat assessments: %s\n", bold("%d", stats.ZakatAssessments))
	cmd.Printf("  In the last minute: %s\n", bold("%d", stats.RequestsLastMinute))
	for _, k := range sortedKeys(stats.ByRegion) {
		cmd.Printf("  %s: %d\n", k, stats.ByRegion[k])
	}
	cmd.Printf("  Total calibrated value: %s\n", bold("%s", stats.TotalCalibrated))
	cmd.Printf("  Total final yield: %s\n", bold("%s", stats.TotalFinalYield))
	cmd.Printf("  Total zakat due: %s\n", bold("%s", stats.TotalZakatDue))
	if len(stats.Rejected) > 0 {
		cmd.Println("  Rejected:")
		for _, k := range sortedKeys(stats.Rejected) {
			cmd.Printf("    %s: %d\n", k, stats.Rejected[k])
		}
	}
	cmd.Println()

	cmd.Println(bold("Configuration:"))
	if conf.RateLimit() > 0 {
		cmd.Printf("  Rate limit: %s\n", bold("%d per %s", conf.RateLimit(), conf.RateLimitWindow()))
	} else {
		cmd.Printf("  Rate limit: %s\n", bold("disabled"))
	}
	cmd.Printf("  Nisab: %s\n", bold("%s", conf.Nisab()))
	if addr := conf.ListenAddr(); addr != "" {
		cmd.Printf("  TCP listen address: %s\n", bold("%s", addr))
	}
	if conf.StatsExportSchedule() != "" {
		cmd.Printf("  Stats export: %s to %s\n", bold("%s", conf.StatsExportSchedule()), conf.StatsExportPath())
	}
	cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(conf.AllowNonRootAccess()))
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
