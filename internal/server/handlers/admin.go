package handlers

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/agentstation/storefront/internal/server/response"
	"github.com/agentstation/storefront/pkg/errors"
	syncpkg "github.com/agentstation/storefront/pkg/sync"
)

// HandleSync handles POST /api/admin/sync.
// @Summary Trigger catalog sync
// @Description Run one sync cycle now. Cycle failures are reported in the run record.
// @Tags admin
// @Produce json
// @Param dry_run query bool false "Classify devices without writing"
// @Success 202 {object} response.Response{data=syncpkg.Run}
// @Failure 409 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/admin/sync [post].
func (h *Handlers) HandleSync(w http.ResponseWriter, r *http.Request) {
	var dryRun bool
	if raw := r.URL.Query().Get("dry_run"); raw != "" {
		var err error
		if dryRun, err = strconv.ParseBool(raw); err != nil {
			response.ErrorFromType(w, r, errors.NewValidationError("dry_run", raw, "must be a boolean"))
			return
		}
	}

	ctx, cancel := detached(r.Context(), h.syncTimeout)
	defer cancel()

	run, err := h.syncer.Run(ctx,
		syncpkg.WithTrigger(syncpkg.TriggerManual),
		syncpkg.WithDryRun(dryRun),
	)
	if run == nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.Accepted(w, run)
}

// HandleSyncStatus handles GET /api/admin/sync.
// @Summary Last sync status
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Security BearerAuth
// @Router /api/admin/sync [get].
func (h *Handlers) HandleSyncStatus(w http.ResponseWriter, _ *http.Request) {
	last, ok := h.syncer.Last()
	data := map[string]any{
		"running": h.syncer.Running(),
		"last":    nil,
	}
	if ok {
		data["last"] = last
		data["summary"] = last.Summary()
	}
	response.OK(w, data)
}

// HandleStats handles GET /api/admin/stats.
// @Summary Server statistics
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Security BearerAuth
// @Router /api/admin/stats [get].
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	devices, err := h.store.Devices.Count(r.Context())
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	userCount, err := h.store.Users.Count(r.Context())
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	response.OK(w, map[string]any{
		"catalog": map[string]any{
			"devices": devices,
			"users":   userCount,
		},
		"server": map[string]any{
			"uptime_seconds": int64(time.Since(h.started).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"memory_mb":      mem.Alloc / 1024 / 1024,
			"version":        h.version,
		},
		"cache": h.cache.GetStats(),
		"realtime": map[string]any{
			"websocket_clients": h.wsHub.ClientCount(),
			"sse_clients":       h.sseBroadcaster.ClientCount(),
		},
	})
}
