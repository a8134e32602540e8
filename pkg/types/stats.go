package types

import "time"

// Stats is a snapshot of the daemon's request counters and value totals.
type Stats struct {
	StartedAt          time.Time         `json:"startedAt" yaml:"startedAt"`
	UptimeSeconds      int64             `json:"uptimeSeconds" yaml:"uptimeSeconds"`
	Calibrations       uint64            `json:"calibrations" yaml:"calibrations"`
	YieldProjections   uint64            `json:"yieldProjections" yaml:"yieldProjections"`
	ZakatAssessments   uint64            `json:"zakatAssessments" yaml:"zakatAssessments"`
	TotalCalibrated    Amount            `json:"totalCalibrated" yaml:"totalCalibrated"`
	TotalFinalYield    Amount            `json:"totalFinalYield" yaml:"totalFinalYield"`
	TotalZakatDue      Amount            `json:"totalZakatDue" yaml:"totalZakatDue"`
	ByRegion           map[string]uint64 `json:"byRegion" yaml:"byRegion"`
	Rejected           map[string]uint64 `json:"rejected" yaml:"rejected"`
	RequestsLastMinute int               `json:"requestsLastMinute" yaml:"requestsLastMinute"`
}

// ExportStatus describes the scheduled stats export.
type ExportStatus struct {
	Enabled  bool       `json:"enabled" yaml:"enabled"`
	Schedule string     `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	Path     string     `json:"path,omitempty" yaml:"path,omitempty"`
	NextRun  *time.Time `json:"nextRun,omitempty" yaml:"nextRun,omitempty"`
}
