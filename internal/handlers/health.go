package handlers

import "net/http"

// HealthHandler reports process liveness for load balancer probes.
type HealthHandler struct{}

// Handle implements GET /healthz.
func (HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	respondData(r.Context(), w, http.StatusOK, map[string]string{
		"service": "streamtube",
		"status":  "ok",
	}, "service is healthy")
}
