package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"evacsim/server/internal/plan"
	"evacsim/server/internal/sim"
	"evacsim/server/logging"
	"evacsim/server/logging/sinks"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	occupants := flag.Int("occupants", 0, "default occupants per room (0 keeps the built-in default)")
	speed := flag.Float64("speed", 0, "base agent speed in m/s (0 keeps the built-in default)")
	seed := flag.String("seed", "", "deterministic run seed (empty keeps the built-in default)")
	logJSONPath := flag.String("log-json", "", "append structured events to this file")
	flag.Parse()

	logCfg := logging.DefaultConfig()
	named := []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout, logCfg.Console)},
	}
	if *logJSONPath != "" {
		file, err := os.OpenFile(*logJSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("failed to open %s: %v", *logJSONPath, err)
		}
		defer file.Close()
		named = append(named, logging.NamedSink{Name: "json", Sink: sinks.NewJSONSink(file, logCfg.JSON.FlushInterval)})
		logCfg.EnabledSinks = append(logCfg.EnabledSinks, "json")
	}

	router, err := logging.NewRouter(logging.ClockFunc(time.Now), logCfg, named)
	if err != nil {
		log.Fatalf("failed to start event router: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		router.Close(ctx)
	}()

	cfg := sim.DefaultConfig()
	if *occupants > 0 {
		cfg.OccupantsPerRoom = *occupants
	}
	if *speed > 0 {
		cfg.AgentSpeed = *speed
	}
	if *seed != "" {
		cfg.Seed = *seed
	}

	hub := newHub(cfg, router)
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	http.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		stats := router.Stats()
		payload := struct {
			Status      string                  `json:"status"`
			ServerTime  int64                   `json:"serverTime"`
			Running     bool                    `json:"running"`
			Subscribers []diagnosticsSubscriber `json:"subscribers"`
			TickRate    int                     `json:"tickRate"`
			Heartbeat   int64                   `json:"heartbeatMillis"`
			Telemetry   telemetrySnapshot       `json:"telemetry"`
			Events      uint64                  `json:"eventsTotal"`
			Dropped     uint64                  `json:"eventsDropped"`
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			Running:     hub.IsRunning(),
			Subscribers: hub.DiagnosticsSnapshot(),
			TickRate:    tickRate,
			Heartbeat:   heartbeatInterval.Milliseconds(),
			Telemetry:   hub.Telemetry(),
			Events:      stats.EventsTotal,
			Dropped:     stats.DroppedTotal,
		}

		data, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	http.HandleFunc("/simulation/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var snap plan.Snapshot
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&snap); err != nil {
			http.Error(w, "malformed plan snapshot", http.StatusBadRequest)
			return
		}

		running := hub.StartSimulation(&snap)
		resp := controlResponse{Running: running, Config: hub.Config()}
		if !running {
			resp.Warning = "simulation did not start: plan has no reachable exit doors or no spaces"
		}
		writeJSON(w, resp)
	})

	http.HandleFunc("/simulation/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		hub.StopSimulation()
		writeJSON(w, controlResponse{Running: false, Config: hub.Config()})
	})

	http.HandleFunc("/simulation/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		hub.ResetSimulation()
		writeJSON(w, controlResponse{Running: false, Config: hub.Config()})
	})

	http.HandleFunc("/simulation/config", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req configRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed config request", http.StatusBadRequest)
			return
		}

		applied := hub.UpdateConfig(req)
		resp := controlResponse{Running: hub.IsRunning(), Config: applied}
		if hub.IsRunning() {
			resp.Warning = "configuration applies to the next run"
		}
		writeJSON(w, resp)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade failed: %v", err)
			return
		}

		sub, scene := hub.Subscribe(conn)

		data, err := json.Marshal(scene)
		if err != nil {
			log.Printf("failed to marshal scene for %s: %v", sub.id, err)
			hub.Disconnect(sub.id)
			return
		}

		sub.mu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			sub.mu.Unlock()
			hub.Disconnect(sub.id)
			return
		}
		sub.mu.Unlock()

		// Viewers are read-only. The read loop exists to detect disconnects
		// and to answer heartbeats.
		for {
			conn.SetReadDeadline(time.Now().Add(disconnectAfter))
			_, payload, err := conn.ReadMessage()
			if err != nil {
				hub.Disconnect(sub.id)
				return
			}

			var msg struct {
				Type   string `json:"type"`
				SentAt int64  `json:"sentAt"`
			}
			if err := json.Unmarshal(payload, &msg); err != nil {
				log.Printf("discarding malformed message from %s: %v", sub.id, err)
				continue
			}

			switch msg.Type {
			case "heartbeat":
				ack := struct {
					Type       string `json:"type"`
					ServerTime int64  `json:"serverTime"`
					ClientTime int64  `json:"clientTime"`
				}{Type: "heartbeat", ServerTime: time.Now().UnixMilli(), ClientTime: msg.SentAt}

				data, err := json.Marshal(ack)
				if err != nil {
					continue
				}

				sub.mu.Lock()
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					sub.mu.Unlock()
					hub.Disconnect(sub.id)
					return
				}
				sub.mu.Unlock()
			default:
				log.Printf("unknown message type %q from %s", msg.Type, sub.id)
			}
		}
	})

	log.Printf("server listening on %s", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
