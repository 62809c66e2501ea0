package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gluk-w/ocr-gateway/internal/database"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// GetUsage returns aggregate request counts from the audit log. Unlike the
// in-memory quota table, the audit log survives restarts, so this is the
// operator's durable view of traffic.
func GetUsage(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since")
	until := r.URL.Query().Get("until")
	groupBy := r.URL.Query().Get("group_by")

	query := database.DB.Model(&database.RequestRecord{})

	if since != "" {
		if t, err := time.Parse("2006-01-02", since); err == nil {
			query = query.Where("created_at >= ?", t)
		}
	}
	if until != "" {
		if t, err := time.Parse("2006-01-02", until); err == nil {
			query = query.Where("created_at < ?", t.AddDate(0, 0, 1))
		}
	}

	type usageSummary struct {
		Group    string `json:"group"`
		Requests int64  `json:"requests"`
		Images   int64  `json:"images"`
		Denied   int64  `json:"denied"`
		Failed   int64  `json:"failed"`
	}

	var results []usageSummary

	selectFields := "COUNT(*) as requests, " +
		"COALESCE(SUM(images),0) as images, " +
		"COALESCE(SUM(CASE WHEN status_code = 429 THEN 1 ELSE 0 END),0) as denied, " +
		"COALESCE(SUM(CASE WHEN status_code >= 500 THEN 1 ELSE 0 END),0) as failed"

	switch groupBy {
	case "owner":
		query.Select("owner as `group`, " + selectFields).Group("owner").Order("requests DESC").Scan(&results)
	case "endpoint":
		query.Select("endpoint as `group`, " + selectFields).Group("endpoint").Order("requests DESC").Scan(&results)
	case "day":
		query.Select("DATE(created_at) as `group`, " + selectFields).Group("DATE(created_at)").Order("`group` DESC").Scan(&results)
	default:
		var total usageSummary
		total.Group = "total"
		query.Select(selectFields).Scan(&total)
		results = []usageSummary{total}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"usage":   results,
	})
}
