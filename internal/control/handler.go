package control

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/analytics"
	"github.com/calder/inbox-sentinel/internal/core"
	"github.com/calder/inbox-sentinel/internal/scan"
	"github.com/calder/inbox-sentinel/internal/settings"
)

// ExportVersion is the literal version string stamped on export documents.
const ExportVersion = "2.0.0"

// Request is the control envelope. Action selects the operation; the
// remaining fields are read per action.
type Request struct {
	Action   string         `json:"action" binding:"required"`
	Settings *core.Settings `json:"settings,omitempty"`
	Sender   string         `json:"sender,omitempty"`
}

// ExportDoc is the full data export produced by the exportData action.
type ExportDoc struct {
	Timestamp    time.Time             `json:"timestamp"`
	Version      string                `json:"version"`
	Settings     core.Settings         `json:"settings"`
	Deleted      []core.DeletionLog    `json:"deletedEmails"`
	Unsubscribes []core.UnsubscribeLog `json:"unsubscribeLogs"`
	Analytics    analytics.Snapshot    `json:"analytics"`
}

// Handler dispatches control actions. Every request gets exactly one
// response; failures are reported as {"error": message}.
type Handler struct {
	settings *settings.Store
	activity core.ActivityLog
	cache    core.CacheRepository
	scanner  *scan.Service
	stats    *analytics.Collector
	logger   *zap.Logger
	clock    core.Clock
}

// NewHandler wires the control dispatcher.
func NewHandler(
	store *settings.Store,
	activity core.ActivityLog,
	cache core.CacheRepository,
	scanner *scan.Service,
	stats *analytics.Collector,
	logger *zap.Logger,
	clock core.Clock,
) *Handler {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Handler{
		settings: store,
		activity: activity,
		cache:    cache,
		scanner:  scanner,
		stats:    stats,
		logger:   logger,
		clock:    clock,
	}
}

// Dispatch handles POST /control.
func (h *Handler) Dispatch(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	h.logger.Debug("control action received", zap.String("action", req.Action))

	switch req.Action {
	case "getSettings":
		c.JSON(http.StatusOK, gin.H{"settings": h.settings.Get()})

	case "saveSettings", "updateSettings":
		h.saveSettings(c, &req)

	case "getDeletedEmails":
		h.getDeletedEmails(c)

	case "getUnsubscribeLogs":
		h.getUnsubscribeLogs(c)

	case "clearActivityLog":
		h.clearActivityLog(c)

	case "scanUnsubscribeLinks":
		h.scanUnsubscribeLinks(c)

	case "manualUnsubscribe":
		h.manualUnsubscribe(c, &req)

	case "getAnalytics":
		c.JSON(http.StatusOK, gin.H{"analytics": h.stats.Snapshot()})

	case "getPerformanceMetrics":
		h.getPerformanceMetrics(c)

	case "clearCache":
		h.clearCache(c)

	case "exportData":
		h.exportData(c)

	case "scanNow":
		h.scanNow(c)

	case "getStats":
		h.getStats(c)

	case "toggleExtension":
		c.JSON(http.StatusOK, gin.H{"enabled": h.scanner.Toggle()})

	default:
		c.JSON(http.StatusOK, gin.H{"error": "Unknown action"})
	}
}

func (h *Handler) saveSettings(c *gin.Context, req *Request) {
	if req.Settings == nil {
		c.JSON(http.StatusOK, gin.H{"error": "missing settings"})
		return
	}
	if err := h.settings.Set(c.Request.Context(), *req.Settings); err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) getDeletedEmails(c *gin.Context) {
	logs, err := h.activity.Deletions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []core.DeletionLog{}
	}
	c.JSON(http.StatusOK, gin.H{"deletedEmails": logs})
}

func (h *Handler) getUnsubscribeLogs(c *gin.Context) {
	logs, err := h.activity.Unsubscribes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []core.UnsubscribeLog{}
	}
	c.JSON(http.StatusOK, gin.H{"unsubscribeLogs": logs})
}

func (h *Handler) clearActivityLog(c *gin.Context) {
	if err := h.activity.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	h.stats.ClearErrors()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) scanUnsubscribeLinks(c *gin.Context) {
	senders, err := h.scanner.ScanUnsubscribeLinks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	if senders == nil {
		senders = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"senders": senders, "count": len(senders)})
}

func (h *Handler) manualUnsubscribe(c *gin.Context, req *Request) {
	if req.Sender == "" {
		c.JSON(http.StatusOK, gin.H{"error": "missing sender"})
		return
	}
	found, err := h.scanner.ManualUnsubscribe(c.Request.Context(), req.Sender)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": found})
}

func (h *Handler) getPerformanceMetrics(c *gin.Context) {
	snap := h.stats.Snapshot()
	c.JSON(http.StatusOK, gin.H{"metrics": gin.H{
		"emailsProcessed":   snap.EmailsProcessed,
		"cacheHits":         snap.CacheHits,
		"cacheMisses":       snap.CacheMisses,
		"avgProcessingTime": snap.AvgProcessingTime,
		"uptime":            snap.Uptime.Seconds(),
	}})
}

func (h *Handler) clearCache(c *gin.Context) {
	n, err := h.cache.Clear(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}

func (h *Handler) exportData(c *gin.Context) {
	ctx := c.Request.Context()
	deleted, err := h.activity.Deletions(ctx)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	unsubs, err := h.activity.Unsubscribes(ctx)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	if deleted == nil {
		deleted = []core.DeletionLog{}
	}
	if unsubs == nil {
		unsubs = []core.UnsubscribeLog{}
	}
	c.JSON(http.StatusOK, ExportDoc{
		Timestamp:    h.clock.Now(),
		Version:      ExportVersion,
		Settings:     h.settings.Get(),
		Deleted:      deleted,
		Unsubscribes: unsubs,
		Analytics:    h.stats.Snapshot(),
	})
}

func (h *Handler) scanNow(c *gin.Context) {
	n, err := h.scanner.ScanNow(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scanned": n})
}

func (h *Handler) getStats(c *gin.Context) {
	snap := h.stats.Snapshot()
	c.JSON(http.StatusOK, gin.H{"stats": gin.H{
		"processed":    snap.EmailsProcessed,
		"spam":         snap.SpamDetected,
		"unsubscribes": snap.Unsubscribes,
		"organized":    snap.Organized,
	}})
}
