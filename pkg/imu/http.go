package imu

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// DefaultHTTPAddr is where Sensor Logger's HTTP push is pointed at.
const DefaultHTTPAddr = ":8080"

// HTTPStreamer receives orientation samples via HTTP POST, the transport
// used by Sensor Logger's "HTTP push" mode.
//
// POST / or /imu accepts any of the formats parseJSON understands. GET
// /status reports the current sample and its age as JSON, which is handy for
// checking that the phone is actually reaching the machine.
type HTTPStreamer struct {
	addr string

	mu     sync.Mutex
	ln     net.Listener
	srv    *http.Server
	latest *Sample
	zero   offsets

	wg sync.WaitGroup
}

// NewHTTPStreamer creates a streamer serving on addr, e.g. ":8080".
func NewHTTPStreamer(addr string) *HTTPStreamer {
	if addr == "" {
		addr = DefaultHTTPAddr
	}
	return &HTTPStreamer{addr: addr}
}

// Start binds the listener and serves in the background.
func (h *HTTPStreamer) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.srv != nil {
		return fmt.Errorf("imu: http streamer already started")
	}

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", h.addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /", h.handlePost)
	mux.HandleFunc("POST /imu", h.handlePost)
	mux.HandleFunc("GET /status", h.handleStatus)

	h.ln = ln
	h.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.srv.Serve(ln)
	}()
	return nil
}

// Stop closes the server and waits for it to exit.
func (h *HTTPStreamer) Stop() error {
	h.mu.Lock()
	srv := h.srv
	h.srv = nil
	h.ln = nil
	h.mu.Unlock()
	if srv == nil {
		return nil
	}
	err := srv.Close()
	h.wg.Wait()
	return err
}

// Addr returns the bound listener address, once started.
func (h *HTTPStreamer) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln == nil {
		return nil
	}
	return h.ln.Addr()
}

func (h *HTTPStreamer) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	a, ok := parseJSON(body)
	if !ok {
		http.Error(w, "no orientation in payload", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	s := h.zero.apply(a.roll, a.pitch, a.yaw)
	h.latest = &s
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status": "ok"}`))
}

func (h *HTTPStreamer) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	latest := h.latest
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if latest == nil {
		json.NewEncoder(w).Encode(map[string]any{"status": "waiting"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"status": "receiving",
		"roll":   latest.Roll,
		"pitch":  latest.Pitch,
		"yaw":    latest.Yaw,
		"age":    time.Since(latest.Time).Seconds(),
	})
}

// Latest returns the most recent sample, or false if none has arrived.
func (h *HTTPStreamer) Latest() (Sample, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest == nil {
		return Sample{}, false
	}
	return *h.latest, true
}

// Calibrate makes the current orientation the new zero reference. It reports
// false when no sample has arrived yet.
func (h *HTTPStreamer) Calibrate() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest == nil {
		return false
	}
	h.zero.rezero(*h.latest)
	return true
}
