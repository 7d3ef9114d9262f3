/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"

	"github.com/Seednode/taprace/game"
	"github.com/julienschmidt/httprouter"
)

func registerProfileHandlers(cfg *Config, mux *httprouter.Router) {
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handler("GET", cfg.prefix+"/pprof/"+name, pprof.Handler(name))
	}

	mux.HandlerFunc("GET", cfg.prefix+"/pprof/cmdline", pprof.Cmdline)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/profile", pprof.Profile)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/symbol", pprof.Symbol)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/trace", pprof.Trace)
}

type debugRooms struct {
	Rooms       []game.RoomSummary `json:"rooms"`
	Connections int                `json:"connections"`
	Members     int                `json:"members"`
}

// serveDebugRooms reads the store on the event loop so the snapshot is
// consistent.
func serveDebugRooms(cfg *Config, h *Hub, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var out debugRooms

		if !h.loop.Call(func() {
			out.Rooms = h.gateway.Store().Snapshot()
			out.Members = h.gateway.Registry().Len()
		}) {
			http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
			return
		}
		out.Connections = h.Len()

		w.Header().Set("Content-Type", "application/json")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(out); err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Room debug info (%d rooms) to %s", len(out.Rooms), realIP(r))
	}
}

func registerDebugHandlers(cfg *Config, mux *httprouter.Router, h *Hub, errs chan<- error) {
	mux.GET(cfg.prefix+"/debug/rooms", serveDebugRooms(cfg, h, errs))
}
