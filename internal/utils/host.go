package utils

import (
	"os"
	"sync"
)

var (
	hostInstance string
	hostOnce     sync.Once
)

// GetHost returns the machine hostname, resolved once per process.
// Container runtimes that set POD_NAME win over the kernel hostname.
func GetHost() string {
	hostOnce.Do(func() {
		if pod := os.Getenv("POD_NAME"); pod != "" {
			hostInstance = pod
			return
		}
		h, err := os.Hostname()
		if err != nil {
			hostInstance = "unknown"
		} else {
			hostInstance = h
		}
	})

	return hostInstance
}
