package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/appraise/pkg/events"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Stream valuation events from the daemon",
		GroupID: gAdvanced,
		Long: `Stream valuation events from the daemon until interrupted.

Every calibration, yield projection, zakat assessment and rejected request is
printed as it happens.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Fail fast if the daemon is not there.
			if _, err := apiClient.GetVersion(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for ev := range apiClient.SubscribeEvents(ctx) {
				printEvent(cmd, ev)
			}
			return nil
		},
	}
}

func printEvent(cmd *cobra.Command, ev events.Event) {
	switch ev.Name {
	case events.ValuationCalibrated, events.ValuationYield, events.ValuationZakat:
		payload, err := events.DecodeAs[events.ValuationEvent](ev)
		if err != nil {
			logrus.WithError(err).Errorf("failed to decode %s event", ev.Name)
			return
		}
		cmd.Printf("%s %s %s %s\n",
			time.Unix(payload.Ts, 0).Format(time.TimeOnly),
			color.GreenString("%-22s", ev.Name),
			payload.Region,
			bold("%s", payload.Value))
	case events.ValuationRejected:
		payload, err := events.DecodeAs[events.RejectedEvent](ev)
		if err != nil {
			logrus.WithError(err).Errorf("failed to decode %s event", ev.Name)
			return
		}
		cmd.Printf("%s %s %s %s: %s\n",
			time.Unix(payload.Ts, 0).Format(time.TimeOnly),
			color.RedString("%-22s", ev.Name),
			payload.Operation,
			payload.Kind,
			payload.Message)
	default:
		logrus.WithFields(logrus.Fields{
			"event": ev.Name,
			"data":  string(ev.Data),
		}).Debug("ignoring unknown event")
	}
}
