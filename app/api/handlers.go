package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hannahlog/rss-reruns/app/cfg"
	"github.com/hannahlog/rss-reruns/app/database"
	"github.com/hannahlog/rss-reruns/app/tasks"
)

type Handler struct {
	runner  *tasks.Runner
	history *database.HistoryRepository
}

func NewHandler(runner *tasks.Runner, history *database.HistoryRepository) *Handler {
	return &Handler{
		runner:  runner,
		history: history,
	}
}

// GetFeed serves the current serialized document.
func (h *Handler) GetFeed(c *gin.Context) {
	data, contentType, err := h.runner.Snapshot()
	if err != nil {
		slog.Error("Failed to serialize feed", "feed", h.runner.FeedName(), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, contentType, data)
}

// HealthCheck reports service liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   cfg.Get().Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetStats reports the scheduler state and rerun history counts.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.runner.Stats()
	if err != nil {
		slog.Error("Failed to collect stats", "feed", h.runner.FeedName(), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	total, err := h.history.Count(h.runner.FeedName())
	if err != nil {
		slog.Error("Failed to count history", "feed", h.runner.FeedName(), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feed": h.runner.FeedName(),
		"entries": gin.H{
			"total":       stats.Total,
			"pending":     stats.Pending,
			"rebroadcast": stats.Rebroadcast,
		},
		"history": gin.H{
			"recorded_reruns": total,
		},
	})
}

// Rebroadcast triggers a manual batch. The count query parameter defaults
// to the profile's batch size when absent or zero.
func (h *Handler) Rebroadcast(c *gin.Context) {
	count := 0
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be an integer"})
			return
		}
		count = parsed
	}
	if count < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be non-negative"})
		return
	}
	if count == 0 {
		count = h.runner.BatchSize()
	}

	reruns, err := h.runner.RunBatch(count)
	if err != nil {
		slog.Error("Manual rebroadcast failed", "feed", h.runner.FeedName(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	entries := make([]gin.H, 0, len(reruns))
	for _, rerun := range reruns {
		entries = append(entries, gin.H{
			"guid":             rerun.GUID,
			"title":            rerun.Title,
			"original_pubdate": rerun.OriginalPubDate.UTC().Format(time.RFC3339),
			"rebroadcast_at":   rerun.RebroadcastAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"feed":        h.runner.FeedName(),
		"rebroadcast": len(reruns),
		"entries":     entries,
	})
}

// GetHistory returns the most recent recorded reruns.
func (h *Handler) GetHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	history, err := h.history.Recent(h.runner.FeedName(), limit)
	if err != nil {
		slog.Error("Failed to load history", "feed", h.runner.FeedName(), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	entries := make([]gin.H, 0, len(history))
	for _, rb := range history {
		entry := gin.H{
			"guid":           rb.EntryGUID,
			"title":          rb.EntryTitle,
			"rebroadcast_at": rb.RebroadcastAt.UTC().Format(time.RFC3339),
		}
		if rb.OriginalPubDate != nil {
			entry["original_pubdate"] = rb.OriginalPubDate.UTC().Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"feed":    h.runner.FeedName(),
		"history": entries,
	})
}
