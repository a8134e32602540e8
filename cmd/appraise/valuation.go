package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charlie0129/appraise/pkg/config"
	"github.com/charlie0129/appraise/pkg/types"
	"github.com/charlie0129/appraise/pkg/valuation"
)

func calibrate(req types.CalibrateRequest, local bool) (*types.CalibrateResponse, error) {
	if !local {
		return apiClient.Calibrate(req)
	}

	in, err := req.Input()
	if err != nil {
		return nil, err
	}
	res, err := valuation.Calibrate(in)
	if err != nil {
		return nil, err
	}
	resp := types.NewCalibrateResponse(res)
	return &resp, nil
}

func projectYield(req types.YieldRequest, local bool) (*types.YieldResponse, error) {
	if !local {
		return apiClient.ProjectYield(req)
	}

	in, err := req.Input()
	if err != nil {
		return nil, err
	}
	res, err := valuation.ProjectYield(in)
	if err != nil {
		return nil, err
	}
	resp := types.NewYieldResponse(res)
	return &resp, nil
}

func assessZakat(req types.ZakatRequest, local bool) (*types.ZakatResponse, error) {
	if !local {
		return apiClient.AssessZakat(req)
	}

	// Use the same nisab the daemon would.
	conf, err := config.NewFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	res, err := valuation.AssessZakat(req.Input(), conf.Nisab())
	if err != nil {
		return nil, err
	}
	resp := types.NewZakatResponse(res)
	return &resp, nil
}

func NewCalibrateCommand() *cobra.Command {
	var (
		local    bool
		output   string
		metadata map[string]string
	)

	cmd := &cobra.Command{
		Use:     "calibrate [base-amount] [region]",
		Short:   "Calibrate a base amount for a region",
		GroupID: gValuation,
		Long: fmt.Sprintf(`Calibrate a base amount for a region.

The base amount is multiplied by the regional multiplier and then by the
universal calibration factor. Supported regions: %s.`, strings.Join(valuation.RegionNames(), ", ")),
		Example: `  appraise calibrate 112500 RegionA
  appraise calibrate 112500 RegionA --metadata id=PROP-001 -o json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}

			amount, err := parseAmountArg(args[0], "base amount")
			if err != nil {
				return err
			}

			req := types.CalibrateRequest{
				BaseAmount: amount,
				Region:     args[1],
			}
			if len(metadata) > 0 {
				req.PropertyMetadata = make(map[string]any, len(metadata))
				for k, v := range metadata {
					req.PropertyMetadata[k] = v
				}
			}

			resp, err := calibrate(req, local)
			if err != nil {
				return fmt.Errorf("failed to calibrate: %w", err)
			}

			return printResult(cmd.OutOrStdout(), output, resp, func() {
				cmd.Println(bold("Calibration (%s):", args[1]))
				cmd.Printf("  Base value: %s\n", bold("%s", resp.BaseValue))
				cmd.Printf("  Regional value: %s (x %s)\n", bold("%s", resp.RegionalValue), resp.RegionalMultiplier)
				cmd.Printf("  Calibrated value: %s (x %s)\n", bold("%s", resp.CalibratedValue), resp.UniversalFactor)
				if len(resp.PropertyMetadata) > 0 {
					cmd.Println("  Property metadata:")
					keys := make([]string, 0, len(resp.PropertyMetadata))
					for k := range resp.PropertyMetadata {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						cmd.Printf("    %s: %v\n", k, resp.PropertyMetadata[k])
					}
				}
			})
		},
	}

	f := cmd.Flags()
	f.BoolVar(&local, "local", false, "compute in this process instead of asking the daemon")
	f.StringToStringVar(&metadata, "metadata", nil, "property metadata passed through unchanged, e.g. id=PROP-001")
	addOutputFlag(cmd, &output)

	return cmd
}

func NewYieldCommand() *cobra.Command {
	var (
		local  bool
		output string
	)

	cmd := &cobra.Command{
		Use:     "yield [calibrated-value] [region] [annual-rate] [period-months]",
		Short:   "Project the yield of a calibrated value",
		GroupID: gValuation,
		Long: fmt.Sprintf(`Project the yield of a calibrated value over a period.

The annual rate is a fraction between 0 and 1. The period is %d to %d months.
The period yield is smoothed and then boosted by the region's yield boost.`,
			valuation.MinPeriodMonths, valuation.MaxPeriodMonths),
		Example: `  appraise yield 161260.875 RegionA 0.055 12`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}

			value, err := parseAmountArg(args[0], "calibrated value")
			if err != nil {
				return err
			}
			rate, err := parseAmountArg(args[2], "annual rate")
			if err != nil {
				return err
			}
			months, err := parseIntArg(args[3], "period months")
			if err != nil {
				return err
			}

			resp, err := projectYield(types.YieldRequest{
				CalibratedValue: value,
				Region:          args[1],
				AnnualRate:      rate,
				PeriodMonths:    months,
			}, local)
			if err != nil {
				return fmt.Errorf("failed to project yield: %w", err)
			}

			return printResult(cmd.OutOrStdout(), output, resp, func() {
				cmd.Println(bold("Yield over %d months (%s):", months, args[1]))
				cmd.Printf("  Period yield: %s\n", bold("%s", resp.PeriodYield))
				cmd.Printf("  Calibrated yield: %s\n", bold("%s", resp.CalibratedYield))
				cmd.Printf("  Final yield: %s (x %s)\n", bold("%s", resp.FinalYield), resp.YieldBoost)
			})
		},
	}

	f := cmd.Flags()
	f.BoolVar(&local, "local", false, "compute in this process instead of asking the daemon")
	addOutputFlag(cmd, &output)

	return cmd
}

func NewZakatCommand() *cobra.Command {
	var (
		local    bool
		output   string
		currency string
	)

	cmd := &cobra.Command{
		Use:     "zakat [wealth]",
		Short:   "Assess the zakat due on an amount of wealth",
		GroupID: gValuation,
		Long: `Assess the zakat due on an amount of wealth.

Zakat is 2.5% of the wealth when it reaches the nisab threshold configured for
the daemon (nisab in the config file). With --local the nisab is read from
--config.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}

			wealth, err := parseAmountArg(args[0], "wealth")
			if err != nil {
				return err
			}

			resp, err := assessZakat(types.ZakatRequest{
				Wealth:   wealth,
				Currency: currency,
			}, local)
			if err != nil {
				return fmt.Errorf("failed to assess zakat: %w", err)
			}

			return printResult(cmd.OutOrStdout(), output, resp, func() {
				cmd.Println(bold("Zakat assessment:"))
				cmd.Printf("  Wealth: %s\n", bold("%s %s", resp.Wealth, resp.Currency))
				cmd.Printf("  Nisab: %s\n", bold("%s %s", resp.Nisab, resp.Currency))
				cmd.Printf("  Due: %s\n", bool2Text(resp.Due))
				cmd.Printf("  Zakat due: %s\n", bold("%s %s", resp.ZakatDue, resp.Currency))
			})
		},
	}

	f := cmd.Flags()
	f.BoolVar(&local, "local", false, "compute in this process instead of asking the daemon")
	f.StringVar(&currency, "currency", valuation.DefaultCurrency, "currency code of the wealth")
	addOutputFlag(cmd, &output)

	return cmd
}
