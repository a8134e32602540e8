package client

import (
	"encoding/json"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/appraise/pkg/config"
	"github.com/charlie0129/appraise/pkg/types"
)

func (c *Client) Calibrate(req types.CalibrateRequest) (*types.CalibrateResponse, error) {
	var resp types.CalibrateResponse
	if err := c.postJSON("/calibrate", req, &resp); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to calibrate")
	}
	return &resp, nil
}

func (c *Client) ProjectYield(req types.YieldRequest) (*types.YieldResponse, error) {
	var resp types.YieldResponse
	if err := c.postJSON("/yield", req, &resp); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to project yield")
	}
	return &resp, nil
}

func (c *Client) AssessZakat(req types.ZakatRequest) (*types.ZakatResponse, error) {
	var resp types.ZakatResponse
	if err := c.postJSON("/zakat", req, &resp); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to assess zakat")
	}
	return &resp, nil
}

func (c *Client) GetConstants() (*types.Constants, error) {
	ret, err := c.Get("/constants")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get constants")
	}

	var constants types.Constants
	if err := json.Unmarshal([]byte(ret), &constants); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal constants")
	}
	return &constants, nil
}

func (c *Client) GetStats() (*types.Stats, error) {
	ret, err := c.Get("/stats")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get stats")
	}

	var stats types.Stats
	if err := json.Unmarshal([]byte(ret), &stats); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal stats")
	}
	return &stats, nil
}

// ResetStats zeroes the daemon's counters and totals and returns the
// resulting snapshot.
func (c *Client) ResetStats() (*types.Stats, error) {
	ret, err := c.Delete("/stats")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to reset stats")
	}

	var stats types.Stats
	if err := json.Unmarshal([]byte(ret), &stats); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal stats")
	}
	return &stats, nil
}

func (c *Client) GetStatsExport() (*types.ExportStatus, error) {
	ret, err := c.Get("/stats-export")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get stats export status")
	}
	return unmarshalExportStatus(ret)
}

// SkipStatsExport skips the next scheduled stats export.
func (c *Client) SkipStatsExport() (*types.ExportStatus, error) {
	ret, err := c.Post("/stats-export/skip", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to skip stats export")
	}
	return unmarshalExportStatus(ret)
}

func unmarshalExportStatus(ret string) (*types.ExportStatus, error) {
	var st types.ExportStatus
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal stats export status")
	}
	return &st, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) SetRateLimit(l int) (string, error) {
	ret, err := c.Put("/rate-limit", strconv.Itoa(l))
	if err != nil {
		return "", err
	}
	return unquote(ret), nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return unquote(ret), nil
}

func (c *Client) postJSON(path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to marshal request")
	}
	ret, err := c.Post(path, string(b))
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(ret), out); err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal response")
	}
	return nil
}

// unquote decodes a JSON string body. Anything else is returned unchanged.
func unquote(s string) string {
	var ret string
	if err := json.Unmarshal([]byte(s), &ret); err != nil {
		return s
	}
	return ret
}
