package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	cohortdomain "github.com/gioariciaga/sql-analysis/internal/cohort/domain"
	scoringdomain "github.com/gioariciaga/sql-analysis/internal/scoring/domain"
)

// parseRunRequest reads the shared query parameters of every report.
// as_of accepts RFC 3339 timestamps or plain dates; limit must be a
// positive integer when present.
func parseRunRequest(c *gin.Context) (scoringdomain.RunRequest, error) {
	var req scoringdomain.RunRequest

	if raw := strings.TrimSpace(c.Query("as_of")); raw != "" {
		asOf, err := parseAsOf(raw)
		if err != nil {
			return req, newValidationError("as_of", "invalid_as_of", "as_of must be an RFC 3339 timestamp or YYYY-MM-DD date")
		}
		req.AsOf = asOf
	}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return req, newValidationError("limit", "invalid_limit", "limit must be a positive integer")
		}
		req.Limit = limit
	}

	return req, nil
}

func parseAsOf(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (s *Server) GetHealthReport(c *gin.Context) {
	req, err := parseRunRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.scoringSvc.Health(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) GetChurnReport(c *gin.Context) {
	req, err := parseRunRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.scoringSvc.Churn(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) GetExpansionReport(c *gin.Context) {
	req, err := parseRunRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.scoringSvc.Expansion(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) GetTrendReport(c *gin.Context) {
	req, err := parseRunRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.scoringSvc.Trend(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) GetCohortReport(c *gin.Context) {
	req, err := parseRunRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.cohortSvc.Report(c.Request.Context(), cohortdomain.Request{
		AsOf:  req.AsOf,
		Limit: req.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
