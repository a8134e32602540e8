package config

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Config interface {
	// ListenAddr is an optional TCP address served in addition to the unix socket.
	ListenAddr() string
	AllowNonRootAccess() bool
	// RateLimit is the number of requests a client may make per RateLimitWindow. 0 disables limiting.
	RateLimit() int
	RateLimitWindow() time.Duration
	// Nisab is the minimum wealth on which zakat is due.
	Nisab() decimal.Decimal
	StatsExportPath() string
	// StatsExportSchedule is a cron expression. Empty disables scheduled export.
	StatsExportSchedule() string

	SetAllowNonRootAccess(bool)
	SetRateLimit(int)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
