package service

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/yaron8/netmonitor/telemetrics"
	"github.com/yaron8/netmonitor/timeunits"
)

func (api *APIServer) ResponseTimeHandler(w http.ResponseWriter, r *http.Request) {
	node, err := telemetrics.ParseNodeID(mux.Vars(r)["node"])
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid node: %v", err), http.StatusBadRequest)
		return
	}

	rtt := api.aggregator.ResponseTime(node)
	api.writeValue(w, rtt.RoundedMilliseconds(timeunits.DefaultPrecision))
}

func (api *APIServer) LatencyHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	src, err := telemetrics.ParseNodeID(vars["src"])
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid src: %v", err), http.StatusBadRequest)
		return
	}
	dst, err := telemetrics.ParseNodeID(vars["dst"])
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid dst: %v", err), http.StatusBadRequest)
		return
	}

	latency := api.aggregator.Latency(src, dst)
	api.writeValue(w, latency.RoundedMilliseconds(timeunits.DefaultPrecision))
}

func (api *APIServer) BandwidthHandler(w http.ResponseWriter, r *http.Request) {
	node, port, ok := parsePortVars(w, r)
	if !ok {
		return
	}
	api.writeValue(w, api.aggregator.Bandwidth(node, port))
}

func (api *APIServer) LossHandler(w http.ResponseWriter, r *http.Request) {
	node, port, ok := parsePortVars(w, r)
	if !ok {
		return
	}
	api.writeValue(w, api.aggregator.Loss(node, port))
}

func parsePortVars(w http.ResponseWriter, r *http.Request) (telemetrics.NodeID, telemetrics.PortID, bool) {
	vars := mux.Vars(r)
	node, err := telemetrics.ParseNodeID(vars["node"])
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid node: %v", err), http.StatusBadRequest)
		return 0, 0, false
	}
	port, err := telemetrics.ParsePortID(vars["port"])
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid port: %v", err), http.StatusBadRequest)
		return 0, 0, false
	}
	return node, port, true
}

func (api *APIServer) writeValue(w http.ResponseWriter, val float64) {
	jsonData, err := json.Marshal(val)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error encoding value to JSON: %v", err),
			http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(jsonData); err != nil {
		api.logger.Error("Error writing response", "error", err)
	}
}
