package valuation

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalibrate(t *testing.T) {
	tests := []struct {
		name           string
		in             CalibrationInput
		wantRegional   string
		wantCalibrated string
		wantErr        error
	}{
		{
			name:           "region a reference valuation",
			in:             CalibrationInput{BaseAmount: d("112500"), Region: RegionA},
			wantRegional:   "151875",
			wantCalibrated: "161260.875",
		},
		{
			name:           "region b",
			in:             CalibrationInput{BaseAmount: d("100000"), Region: RegionB},
			wantRegional:   "118000",
			wantCalibrated: "125292.4",
		},
		{
			name:           "fractional amount",
			in:             CalibrationInput{BaseAmount: d("0.01"), Region: RegionA},
			wantRegional:   "0.0135",
			wantCalibrated: "0.01433430",
		},
		{
			name:    "zero amount",
			in:      CalibrationInput{BaseAmount: decimal.Zero, Region: RegionA},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			in:      CalibrationInput{BaseAmount: d("-5"), Region: RegionB},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "zero region",
			in:      CalibrationInput{BaseAmount: d("1")},
			wantErr: ErrInvalidRegion,
		},
		{
			name:    "out of range region",
			in:      CalibrationInput{BaseAmount: d("1"), Region: Region(42)},
			wantErr: ErrInvalidRegion,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calibrate(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Calibrate() error = %v, want %v", err, tt.wantErr)
				}
				if !got.CalibratedValue.IsZero() || !got.RegionalValue.IsZero() {
					t.Fatalf("Calibrate() returned a partial result with an error: %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Calibrate() unexpected error: %v", err)
			}
			if !got.BaseValue.Equal(tt.in.BaseAmount) {
				t.Errorf("BaseValue = %s, want %s", got.BaseValue, tt.in.BaseAmount)
			}
			if !got.RegionalValue.Equal(d(tt.wantRegional)) {
				t.Errorf("RegionalValue = %s, want %s", got.RegionalValue, tt.wantRegional)
			}
			if !got.CalibratedValue.Equal(d(tt.wantCalibrated)) {
				t.Errorf("CalibratedValue = %s, want %s", got.CalibratedValue, tt.wantCalibrated)
			}
			if !got.UniversalFactor.Equal(UniversalFactor()) {
				t.Errorf("UniversalFactor = %s, want %s", got.UniversalFactor, UniversalFactor())
			}
		})
	}
}

func TestCalibrateRatioIsExact(t *testing.T) {
	amounts := []string{"1", "0.37", "112500", "999999999.99", "31415.9265"}
	for _, r := range Regions() {
		want := r.Multiplier().Mul(UniversalFactor())
		for _, a := range amounts {
			res, err := Calibrate(CalibrationInput{BaseAmount: d(a), Region: r})
			if err != nil {
				t.Fatalf("Calibrate(%s, %s) unexpected error: %v", a, r, err)
			}
			if !res.CalibratedValue.Equal(d(a).Mul(want)) {
				t.Errorf("Calibrate(%s, %s) = %s, want %s * %s", a, r, res.CalibratedValue, a, want)
			}
			if !res.RegionalValue.Equal(res.BaseValue.Mul(res.RegionalMultiplier)) {
				t.Errorf("RegionalValue %s != BaseValue * RegionalMultiplier", res.RegionalValue)
			}
			if !res.CalibratedValue.Equal(res.RegionalValue.Mul(res.UniversalFactor)) {
				t.Errorf("CalibratedValue %s != RegionalValue * UniversalFactor", res.CalibratedValue)
			}
		}
	}

	res, err := Calibrate(CalibrationInput{BaseAmount: d("112500"), Region: RegionA})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ratio := res.CalibratedValue.Div(res.BaseValue); !ratio.Equal(d("1.43343")) {
		t.Errorf("CalibratedValue / BaseAmount = %s, want 1.43343", ratio)
	}
}

func TestCalibrateIsDeterministic(t *testing.T) {
	in := CalibrationInput{
		BaseAmount:       d("250000.5"),
		Region:           RegionB,
		PropertyMetadata: map[string]any{"id": "PROP-001"},
	}
	first, err := Calibrate(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Calibrate(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !again.CalibratedValue.Equal(first.CalibratedValue) || !again.RegionalValue.Equal(first.RegionalValue) {
			t.Fatalf("Calibrate() not deterministic: %s != %s", again.CalibratedValue, first.CalibratedValue)
		}
	}
	if first.PropertyMetadata["id"] != "PROP-001" {
		t.Errorf("PropertyMetadata was not passed through: %v", first.PropertyMetadata)
	}
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in      string
		want    Region
		wantErr bool
	}{
		{in: "RegionA", want: RegionA},
		{in: "RegionB", want: RegionB},
		{in: "Unsupported", wantErr: true},
		{in: "regiona", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRegion(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRegion) {
					t.Fatalf("ParseRegion(%q) error = %v, want ErrInvalidRegion", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRegion(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRegion(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnsupportedRegionListsSupported(t *testing.T) {
	_, err := ParseRegion("Unsupported")
	if err == nil {
		t.Fatal("expected error")
	}
	for _, name := range RegionNames() {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention supported region %s", err, name)
		}
	}
}
