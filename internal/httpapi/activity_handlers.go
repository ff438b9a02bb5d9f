package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"afa.directory/internal/audit"
)

func (a *API) handleListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "limit must be an integer")
		return
	}
	offset, err := queryInt(q.Get("offset"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "offset must be an integer")
		return
	}
	page, err := a.activity.List(r.Context(), audit.Filter{
		ActionType: q.Get("action_type"),
		EntityType: q.Get("entity_type"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		a.fail(w, r, err, "Activity")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) handleTodayStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.activity.TodayStats(r.Context())
	if err != nil {
		a.fail(w, r, err, "Activity")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.PathValue("limit"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "limit must be an integer")
		return
	}
	entries, err := a.activity.Recent(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err, "Activity")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func queryInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
