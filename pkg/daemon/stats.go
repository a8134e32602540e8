package daemon

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/charlie0129/appraise/pkg/types"
	"github.com/charlie0129/appraise/pkg/valuation"
)

const maxRecordedRequests = 10000

// Stats counts served and rejected valuation requests and keeps running
// totals of the values they produced. Nothing else about the requests is kept.
type Stats struct {
	startedAt time.Time

	mu           sync.Mutex
	calibrations uint64
	yields       uint64
	zakats       uint64
	byRegion     map[string]uint64
	rejected     map[string]uint64

	totalCalibrated decimal.Decimal
	totalYield      decimal.Decimal
	totalZakatDue   decimal.Decimal

	requests *TimeSeriesRecorder
}

func NewStats() *Stats {
	return &Stats{
		startedAt:       time.Now().Round(0),
		byRegion:        make(map[string]uint64),
		rejected:        make(map[string]uint64),
		totalCalibrated: decimal.Zero,
		totalYield:      decimal.Zero,
		totalZakatDue:   decimal.Zero,
		requests:        NewTimeSeriesRecorder(maxRecordedRequests),
	}
}

func (s *Stats) recordCalibration(r valuation.Region, calibrated decimal.Decimal) {
	s.mu.Lock()
	s.calibrations++
	s.byRegion[r.String()]++
	s.totalCalibrated = s.totalCalibrated.Add(calibrated)
	s.mu.Unlock()
	s.requests.AddRecordNow()
}

func (s *Stats) recordYield(r valuation.Region, finalYield decimal.Decimal) {
	s.mu.Lock()
	s.yields++
	s.byRegion[r.String()]++
	s.totalYield = s.totalYield.Add(finalYield)
	s.mu.Unlock()
	s.requests.AddRecordNow()
}

func (s *Stats) recordZakat(due decimal.Decimal) {
	s.mu.Lock()
	s.zakats++
	s.totalZakatDue = s.totalZakatDue.Add(due)
	s.mu.Unlock()
	s.requests.AddRecordNow()
}

func (s *Stats) recordRejection(kind string) {
	s.mu.Lock()
	s.rejected[kind]++
	s.mu.Unlock()
	s.requests.AddRecordNow()
}

// Reset zeroes every counter and total. The start time is kept.
func (s *Stats) Reset() {
	s.mu.Lock()
	s.calibrations = 0
	s.yields = 0
	s.zakats = 0
	clear(s.byRegion)
	clear(s.rejected)
	s.totalCalibrated = decimal.Zero
	s.totalYield = decimal.Zero
	s.totalZakatDue = decimal.Zero
	s.mu.Unlock()
	s.requests.ClearRecords()
}

// Snapshot returns a copy of the counters.
func (s *Stats) Snapshot() types.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := types.Stats{
		StartedAt:          s.startedAt,
		UptimeSeconds:      int64(time.Since(s.startedAt) / time.Second),
		Calibrations:       s.calibrations,
		YieldProjections:   s.yields,
		ZakatAssessments:   s.zakats,
		TotalCalibrated:    types.NewAmount(s.totalCalibrated),
		TotalFinalYield:    types.NewAmount(s.totalYield),
		TotalZakatDue:      types.NewAmount(s.totalZakatDue),
		ByRegion:           make(map[string]uint64, len(s.byRegion)),
		Rejected:           make(map[string]uint64, len(s.rejected)),
		RequestsLastMinute: s.requests.GetRecordsIn(time.Minute),
	}
	for k, v := range s.byRegion {
		snap.ByRegion[k] = v
	}
	for k, v := range s.rejected {
		snap.Rejected[k] = v
	}
	return snap
}

// Export writes the snapshot to path as indented JSON. The file is replaced
// atomically so readers never see a partial snapshot.
func (s *Stats) Export(path string) error {
	if path == "" {
		return pkgerrors.New("stats export path is empty")
	}

	b, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to marshal stats")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create temp file for %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		return pkgerrors.Wrapf(err, "failed to write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrapf(err, "failed to close %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return pkgerrors.Wrapf(err, "failed to chmod %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return pkgerrors.Wrapf(err, "failed to rename %s to %s", tmp.Name(), path)
	}

	return nil
}
