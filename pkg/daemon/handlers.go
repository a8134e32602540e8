package daemon

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/appraise/pkg/config"
	"github.com/charlie0129/appraise/pkg/events"
	"github.com/charlie0129/appraise/pkg/types"
	"github.com/charlie0129/appraise/pkg/valuation"
	"github.com/charlie0129/appraise/pkg/version"
)

const (
	opCalibrate = "calibrate"
	opYield     = "yield"
	opZakat     = "zakat"
)

func (s *Server) calibrate(c *gin.Context) {
	var req types.CalibrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, opCalibrate, err)
		return
	}

	in, err := req.Input()
	if err != nil {
		s.reject(c, opCalibrate, err)
		return
	}

	res, err := valuation.Calibrate(in)
	if err != nil {
		s.reject(c, opCalibrate, err)
		return
	}

	s.stats.recordCalibration(in.Region, res.CalibratedValue)
	s.hub.Publish(events.ValuationCalibrated, events.ValuationEvent{
		RequestID: requestID(c),
		Region:    in.Region.String(),
		Value:     res.CalibratedValue.String(),
		Ts:        time.Now().Unix(),
	})

	logrus.WithFields(logrus.Fields{
		"requestId":       requestID(c),
		"region":          in.Region.String(),
		"baseValue":       res.BaseValue.String(),
		"calibratedValue": res.CalibratedValue.String(),
	}).Debug("calibrated")

	c.IndentedJSON(http.StatusOK, types.NewCalibrateResponse(res))
}

func (s *Server) projectYield(c *gin.Context) {
	var req types.YieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, opYield, err)
		return
	}

	in, err := req.Input()
	if err != nil {
		s.reject(c, opYield, err)
		return
	}

	res, err := valuation.ProjectYield(in)
	if err != nil {
		s.reject(c, opYield, err)
		return
	}

	s.stats.recordYield(in.Region, res.FinalYield)
	s.hub.Publish(events.ValuationYield, events.ValuationEvent{
		RequestID: requestID(c),
		Region:    in.Region.String(),
		Value:     res.FinalYield.String(),
		Ts:        time.Now().Unix(),
	})

	logrus.WithFields(logrus.Fields{
		"requestId":    requestID(c),
		"region":       in.Region.String(),
		"periodMonths": in.PeriodMonths,
		"finalYield":   res.FinalYield.String(),
	}).Debug("projected yield")

	c.IndentedJSON(http.StatusOK, types.NewYieldResponse(res))
}

func (s *Server) assessZakat(c *gin.Context) {
	var req types.ZakatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, opZakat, err)
		return
	}

	res, err := valuation.AssessZakat(req.Input(), s.conf.Nisab())
	if err != nil {
		s.reject(c, opZakat, err)
		return
	}

	s.stats.recordZakat(res.ZakatDue)
	s.hub.Publish(events.ValuationZakat, events.ValuationEvent{
		RequestID: requestID(c),
		Value:     res.ZakatDue.String(),
		Ts:        time.Now().Unix(),
	})

	c.IndentedJSON(http.StatusOK, types.NewZakatResponse(res))
}

// reject answers 400 with the classified error. It never returns a partial result.
func (s *Server) reject(c *gin.Context, op string, err error) {
	resp := types.NewErrorResponse(err)

	s.stats.recordRejection(resp.Error)
	s.hub.Publish(events.ValuationRejected, events.RejectedEvent{
		RequestID: requestID(c),
		Operation: op,
		Kind:      resp.Error,
		Message:   resp.Message,
		Ts:        time.Now().Unix(),
	})

	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			// Requests over the unix socket have no remote address.
			key = "unix"
		}

		ok, retryAfter := s.limiter.Allow(key)
		if ok {
			c.Next()
			return
		}

		s.stats.recordRejection(types.ErrKindRateLimited)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorResponse{
			Error:   types.ErrKindRateLimited,
			Message: fmt.Sprintf("rate limit exceeded, retry in %s", retryAfter.Round(time.Second)),
		})
	}
}

func (s *Server) getConstants(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, types.CurrentConstants())
}

func (s *Server) getStats(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.stats.Snapshot())
}

func (s *Server) resetStats(c *gin.Context) {
	s.stats.Reset()
	logrus.Info("stats reset")
	c.IndentedJSON(http.StatusOK, s.stats.Snapshot())
}

func (s *Server) getStatsExport(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.exportStatus())
}

func (s *Server) skipStatsExport(c *gin.Context) {
	if err := s.exporter.Skip(); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusConflict, types.ErrorResponse{Error: types.ErrKindBadRequest, Message: err.Error()})
		return
	}

	st := s.exportStatus()
	logrus.WithField("nextRun", st.NextRun).Info("next stats export skipped")
	c.IndentedJSON(http.StatusOK, st)
}

func (s *Server) exportStatus() types.ExportStatus {
	st := types.ExportStatus{
		Schedule: s.conf.StatsExportSchedule(),
		Path:     s.conf.StatsExportPath(),
	}
	if nextRun, _ := s.exporter.Status(); !nextRun.IsZero() {
		st.Enabled = true
		st.NextRun = &nextRun
	}
	return st
}

func (s *Server) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(s.conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func (s *Server) setRateLimit(c *gin.Context) {
	var l int
	if err := c.ShouldBindJSON(&l); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{Error: types.ErrKindBadRequest, Message: err.Error()})
		return
	}

	if l < 0 {
		err := fmt.Errorf("rate limit must not be negative, got %d", l)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{Error: types.ErrKindBadRequest, Message: err.Error()})
		return
	}

	old := s.conf.RateLimit()
	s.conf.SetRateLimit(l)
	if err := s.conf.Save(); err != nil {
		s.conf.SetRateLimit(old)
		logrus.Errorf("saveConfig failed: %v", err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{Error: types.ErrKindInternal, Message: err.Error()})
		return
	}
	s.limiter.SetLimit(l, s.conf.RateLimitWindow())

	msg := fmt.Sprintf("set rate limit to %d requests per %s", l, s.conf.RateLimitWindow())
	if l == 0 {
		msg = "rate limiting disabled"
	}
	logrus.Info(msg)

	c.IndentedJSON(http.StatusCreated, msg)
}

func (s *Server) streamEvents(c *gin.Context) {
	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	c.Stream(func(_ io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *Server) getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
