package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

// tickerPattern accepts provider symbols such as AAPL, BRK-B, BF.B, ^GSPC
var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-^=]{1,15}$`)

// normalizeTicker upper-cases a path ticker and reports whether it is well-formed
func normalizeTicker(raw string) (string, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	return ticker, tickerPattern.MatchString(ticker)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
