package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-reservation-cache/keys"
)

func (a *API) cacheStats(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.cache.Stats(r.Context()))
}

func (a *API) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := a.cache.Clear(r.Context()); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.logger.Warn("cache cleared", zap.String("remote_addr", r.RemoteAddr))
	w.WriteHeader(http.StatusNoContent)
}

// invalidateCache purges every entry matching the ?pattern= values, e.g.
// ?pattern=reservations::5&pattern=availability::5.
func (a *API) invalidateCache(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query()["pattern"]
	if len(raw) == 0 {
		a.respondError(w, r, badRequestf("pattern is required"))
		return
	}

	patterns := make([]keys.Pattern, 0, len(raw))
	for _, s := range raw {
		p, err := keys.ParsePattern(s)
		if err != nil {
			a.respondError(w, r, err)
			return
		}
		patterns = append(patterns, p)
	}

	removed, err := a.cache.Invalidate(r.Context(), patterns...)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.logger.Info("cache invalidated by admin",
		zap.Stringers("patterns", patterns),
		zap.Int("removed", removed),
	)
	a.respondJSON(w, http.StatusOK, map[string]any{
		"patterns": raw,
		"removed":  removed,
	})
}
