package clients

import (
	"fmt"
	"time"
)

// RequestObserver receives one observation per upstream request.
// *metrics.Collector satisfies it.
type RequestObserver interface {
	ObserveRequest(code string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, time.Duration) {}

// StatusClass buckets a status code as "2xx", "4xx" and so on. Zero means
// no response was received and maps to "error".
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "error"
	}
	return fmt.Sprintf("%dxx", code/100)
}
