package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/open-mmpa/functions/utils"
)

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
	}

	if h.debug {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		status["goroutines"] = runtime.NumGoroutine()
		status["memory"] = map[string]interface{}{
			"allocated": m.Alloc,
			"total":     m.TotalAlloc,
			"system":    m.Sys,
			"gc_cycles": m.NumGC,
		}
	}

	utils.RespondWithData(w, http.StatusOK, status)
}
