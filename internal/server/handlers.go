package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/guiyumin/clipgrab/internal/downloader"
	"github.com/guiyumin/clipgrab/internal/extractor"
	"github.com/guiyumin/clipgrab/internal/media"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type mediaRequest struct {
	URL string `json:"url"`
}

// handleMedia returns the downloadable variants for a URL
func (s *Server) handleMedia(c *gin.Context) {
	var req mediaRequest
	// an unreadable body counts as an empty URL
	_ = c.ShouldBindJSON(&req)
	url := strings.TrimSpace(req.URL)

	if _, ok := extractor.Match(url); !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("Enter a valid URL from: %s.", extractor.SupportedList()),
		})
		return
	}

	inspection, err := s.service.Inspect(c.Request.Context(), url)
	if err != nil {
		status, message := errorStatus(err)
		if status >= http.StatusInternalServerError {
			s.log.Error().Err(err).Str("url", url).Msg("metadata request failed")
		}
		c.JSON(status, ErrorResponse{Error: message})
		return
	}

	c.JSON(http.StatusOK, inspection)
}

// handleDownload runs a download job and streams the file back. The job
// workspace is removed once the response has been written.
func (s *Server) handleDownload(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	index := parseIndex(c.Query("index"))
	formatID := strings.TrimSpace(c.Query("format_id"))

	platform, ok := extractor.Match(url)
	if !ok {
		c.String(http.StatusBadRequest, "Invalid URL. Supported platforms: %s.", extractor.SupportedList())
		return
	}

	started := time.Now()
	res, err := s.service.Download(c.Request.Context(), downloader.Request{
		URL:      url,
		Index:    index,
		FormatID: formatID,
	})
	if err != nil {
		status, message := errorStatus(err)
		if status >= http.StatusInternalServerError {
			s.log.Error().Err(err).Str("url", url).Msg("download request failed")
		}
		s.recordHistory(HistoryRecord{
			ID:       uuid.NewString(),
			URL:      url,
			Platform: string(platform),
			FormatID: orBest(formatID),
			Status:   StatusFailed,
			Error:    message,
		}, index, started)
		c.String(status, "%s", message)
		return
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			s.log.Error().Err(err).Str("job_id", res.JobID).Msg("failed to remove workspace")
		}
	}()

	c.FileAttachment(res.Path, res.Filename)

	s.recordHistory(HistoryRecord{
		ID:        res.JobID,
		URL:       url,
		Platform:  string(platform),
		FormatID:  orBest(formatID),
		Filename:  res.Filename,
		Status:    StatusCompleted,
		SizeBytes: res.Size,
	}, index, started)
}

// parseIndex accepts only plain digit strings; anything else is treated
// as no index at all. Values too large for int clamp to math.MaxInt.
func parseIndex(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return nil
		}
	}
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		n = math.MaxInt
	} else if err != nil {
		return nil
	}
	return &n
}

func orBest(formatID string) string {
	if formatID == "" {
		return media.BestOptionID
	}
	return formatID
}

func (s *Server) recordHistory(r HistoryRecord, index *int, started time.Time) {
	if s.history == nil {
		return
	}
	if index != nil {
		r.ItemIndex = *index
	}
	finished := time.Now()
	r.StartedAt = started.Unix()
	r.CompletedAt = finished.Unix()
	r.DurationMs = finished.Sub(started).Milliseconds()

	// the request context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.history.Record(ctx, r); err != nil {
		s.log.Warn().Err(err).Str("id", r.ID).Msg("failed to record history")
	}
}

type historyResponse struct {
	Records []HistoryRecord `json:"records"`
	Total   int             `json:"total"`
	Stats   HistoryStats    `json:"stats"`
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := queryInt(c, "limit", defaultHistoryLimit)
	if limit < 1 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	ctx := c.Request.Context()
	records, total, err := s.history.List(ctx, limit, offset)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: internalErrorMessage})
		return
	}
	stats, err := s.history.Stats(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to compute history stats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: internalErrorMessage})
		return
	}

	c.JSON(http.StatusOK, historyResponse{Records: records, Total: total, Stats: stats})
}

func (s *Server) handleDeleteHistory(c *gin.Context) {
	err := s.history.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, ErrRecordNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "History record not found."})
	case err != nil:
		s.log.Error().Err(err).Msg("failed to delete history record")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: internalErrorMessage})
	default:
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleClearHistory(c *gin.Context) {
	deleted, err := s.history.Clear(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to clear history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: internalErrorMessage})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
