package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

var (
	httpClient *http.Client

	remoteMu  sync.RWMutex
	remoteURI string
	remoteJob = "microservices-demo"
)

func init() {
	httpClient = &http.Client{
		Timeout: 5 * time.Second,
	}
}

// ConfigureRemote enables shipping of log entries to a Loki/Alloy push
// endpoint. An empty uri disables it.
func ConfigureRemote(uri, job string) {
	remoteMu.Lock()
	defer remoteMu.Unlock()
	remoteURI = uri
	if job != "" {
		remoteJob = job
	}
}

func remoteTarget() (string, string) {
	remoteMu.RLock()
	defer remoteMu.RUnlock()
	return remoteURI, remoteJob
}

// sendLog sends log entry in background
func sendLog(level, message string, attrs []slog.Attr) {
	uri, job := remoteTarget()
	if uri == "" {
		return
	}

	go func() {
		logEntry := newLokiPush(time.Now(), job, level, message, attrs)

		jsonData, err := json.Marshal(logEntry)
		if err != nil {
			// Log error to stderr only, don't break the flow
			fmt.Fprintf(os.Stderr, "Failed to marshal for remote log entry: %v\n", err)
			return
		}

		req, err := http.NewRequest(http.MethodPost, uri, bytes.NewBuffer(jsonData))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create request for remote log: %v\n", err)
			return
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to send to remote log: %v\n", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			fmt.Fprintf(os.Stderr, "Remote log returned error status: %d\n", resp.StatusCode)
		}
	}()
}
