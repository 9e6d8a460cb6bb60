package instance

import "os"

// GetID returns the worker instance identifier, falling back to the dyno name
// on platforms that set one.
func GetID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	return "worker-0"
}
