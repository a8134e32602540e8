// Package valuation implements the valuation calibration pipeline:
//
//   - Calibrate: base value, regional multiplier, universal calibration factor
//   - ProjectYield: period yield, smoothing, regional yield boost
//   - AssessZakat: the 2.5% zakat assessment on a stated wealth
//
// Every function here is pure. Nothing is cached or persisted, and all
// factors are fixed constants, so the functions are safe to call from any
// number of goroutines.
package valuation
