// imu-inspect is a throwaway HTTP sink for figuring out what a phone sensor
// app actually sends: point the app at this machine and every POST body is
// pretty-printed, with a short breakdown of the payload entries.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	flags "github.com/jessevdk/go-flags"
)

type options struct {
	Listen string `long:"listen" default:":8080" description:"Address to listen on"`
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

var messageCount atomic.Int64

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	fmt.Println(headerStyle.Render("IMU Stream Inspector"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━"))
	fmt.Printf("Listening on %s — POST your sensor stream here.\n\n", opts.Listen)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /", handlePost)
	mux.HandleFunc("POST /imu", handlePost)

	if err := http.ListenAndServe(opts.Listen, mux); err != nil {
		fmt.Fprintf(os.Stderr, "serve: %v\n", err)
		os.Exit(1)
	}
}

func handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	n := messageCount.Add(1)
	fmt.Println(headerStyle.Render(fmt.Sprintf("━━━ message #%d (%d bytes) ━━━", n, len(body))))

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		fmt.Printf("not JSON (%v), raw bytes:\n% X\n\n", err, body)
		writeOK(w)
		return
	}

	pretty, _ := json.MarshalIndent(data, "", "  ")
	fmt.Println(string(pretty))

	if payload, ok := data["payload"]; ok {
		describePayload(payload)
	}
	fmt.Println()

	writeOK(w)
}

// describePayload summarizes the Sensor Logger payload array: one line per
// entry naming the sensor and the keys inside its values object.
func describePayload(payload any) {
	entries, ok := payload.([]any)
	if !ok {
		fmt.Printf("payload is %T, not a list\n", payload)
		return
	}

	fmt.Println(dimStyle.Render(fmt.Sprintf("payload: %d entries", len(entries))))
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		values, _ := entry["values"].(map[string]any)
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		fmt.Printf("  %s %v\n", keyStyle.Render(name), keys)
	}
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}
