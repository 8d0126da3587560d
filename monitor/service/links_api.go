package service

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yaron8/netmonitor/telemetrics"
)

// PublishedLinks is what external readers currently see in Redis.
type PublishedLinks struct {
	UpdatedAt int64                  `json:"updated_at"` // unix seconds, 0 if never published
	Links     []telemetrics.LinkView `json:"links"`
}

func (api *APIServer) ListLinksHandler(w http.ResponseWriter, r *http.Request) {
	links := api.aggregator.Links()

	// Set content type and status code before encoding
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(links); err != nil {
		// Can't send error response after WriteHeader, just log it
		api.logger.Error("Error encoding links to JSON", "error", err)
	}
}

func (api *APIServer) PublishedLinksHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	links, err := api.published.GetAll(ctx)
	if err != nil {
		api.logger.Error("Error retrieving published links", "error", err)
		http.Error(w, fmt.Sprintf("Error retrieving published links: %v", err),
			http.StatusInternalServerError)
		return
	}

	updatedAt, err := api.published.GetLastUpdateTime(ctx)
	if err != nil {
		api.logger.Error("Error retrieving last update time", "error", err)
		http.Error(w, fmt.Sprintf("Error retrieving last update time: %v", err),
			http.StatusInternalServerError)
		return
	}

	resp := PublishedLinks{Links: links}
	if resp.Links == nil {
		resp.Links = []telemetrics.LinkView{}
	}
	if !updatedAt.IsZero() {
		resp.UpdatedAt = updatedAt.Unix()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		api.logger.Error("Error encoding published links to JSON", "error", err)
	}
}
