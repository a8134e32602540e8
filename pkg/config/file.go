package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/appraise/pkg/utils/ptr"
	"github.com/charlie0129/appraise/pkg/valuation"
)

var (
	defaultFileConfig = &RawFileConfig{
		ListenAddr:             ptr.To(""),
		AllowNonRootAccess:     ptr.To(false),
		RateLimit:              ptr.To(120),
		RateLimitWindowSeconds: ptr.To(60),
		// A zero nisab makes any stated wealth liable for zakat.
		Nisab:               ptr.To(decimal.Zero),
		StatsExportPath:     ptr.To(""),
		StatsExportSchedule: ptr.To(""),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	ListenAddr             *string          `json:"listenAddr,omitempty"`
	AllowNonRootAccess     *bool            `json:"allowNonRootAccess,omitempty"`
	RateLimit              *int             `json:"rateLimit,omitempty"`
	RateLimitWindowSeconds *int             `json:"rateLimitWindowSeconds,omitempty"`
	Nisab                  *decimal.Decimal `json:"nisab,omitempty"`
	StatsExportPath        *string          `json:"statsExportPath,omitempty"`
	StatsExportSchedule    *string          `json:"statsExportSchedule,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		ListenAddr:             ptr.To(c.ListenAddr()),
		AllowNonRootAccess:     ptr.To(c.AllowNonRootAccess()),
		RateLimit:              ptr.To(c.RateLimit()),
		RateLimitWindowSeconds: ptr.To(int(c.RateLimitWindow() / time.Second)),
		Nisab:                  ptr.To(c.Nisab()),
		StatsExportPath:        ptr.To(c.StatsExportPath()),
		StatsExportSchedule:    ptr.To(c.StatsExportSchedule()),
	}

	return rawConfig, nil
}

// Validate checks the values that are set. Unset values fall back to defaults.
func (c *RawFileConfig) Validate() error {
	if c.RateLimit != nil && *c.RateLimit < 0 {
		return pkgerrors.Errorf("rateLimit must not be negative, got %d", *c.RateLimit)
	}
	if c.RateLimitWindowSeconds != nil && *c.RateLimitWindowSeconds <= 0 {
		return pkgerrors.Errorf("rateLimitWindowSeconds must be positive, got %d", *c.RateLimitWindowSeconds)
	}
	if c.Nisab != nil && c.Nisab.IsNegative() {
		return pkgerrors.Errorf("nisab must not be negative, got %s", c.Nisab)
	}
	if c.Nisab != nil {
		if err := valuation.CheckBounds(*c.Nisab); err != nil {
			return pkgerrors.Wrap(err, "nisab")
		}
	}
	if c.StatsExportSchedule != nil && *c.StatsExportSchedule != "" &&
		(c.StatsExportPath == nil || *c.StatsExportPath == "") {
		return pkgerrors.New("statsExportSchedule is set but statsExportPath is empty")
	}
	return nil
}

func valueOr[T any](v, def *T) T {
	if v != nil {
		return *v
	}
	return *def
}

func (f *File) ListenAddr() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return valueOr(f.c.ListenAddr, defaultFileConfig.ListenAddr)
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return valueOr(f.c.AllowNonRootAccess, defaultFileConfig.AllowNonRootAccess)
}

func (f *File) RateLimit() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return valueOr(f.c.RateLimit, defaultFileConfig.RateLimit)
}

func (f *File) RateLimitWindow() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return time.Duration(valueOr(f.c.RateLimitWindowSeconds, defaultFileConfig.RateLimitWindowSeconds)) * time.Second
}

func (f *File) Nisab() decimal.Decimal {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return valueOr(f.c.Nisab, defaultFileConfig.Nisab)
}

func (f *File) StatsExportPath() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return valueOr(f.c.StatsExportPath, defaultFileConfig.StatsExportPath)
}

func (f *File) StatsExportSchedule() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return valueOr(f.c.StatsExportSchedule, defaultFileConfig.StatsExportSchedule)
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.AllowNonRootAccess = &b
}

func (f *File) SetRateLimit(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	if i < 0 {
		panic("rate limit must not be negative")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.RateLimit = &i
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	if err := conf.Validate(); err != nil {
		return pkgerrors.Wrapf(err, "invalid config in file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"listenAddr":          f.ListenAddr(),
		"allowNonRootAccess":  f.AllowNonRootAccess(),
		"rateLimit":           f.RateLimit(),
		"rateLimitWindow":     f.RateLimitWindow().String(),
		"nisab":               f.Nisab().String(),
		"statsExportPath":     f.StatsExportPath(),
		"statsExportSchedule": f.StatsExportSchedule(),
	}
}
