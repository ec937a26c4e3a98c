package fingerprint

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

// stableHeaders are included in the header-set signal. Headers whose presence
// varies between requests of the same browser are left out.
var stableHeaders = map[string]struct{}{
	"user-agent": {}, "accept": {}, "accept-language": {}, "accept-encoding": {},
	"upgrade-insecure-requests": {}, "sec-fetch-dest": {}, "sec-fetch-mode": {},
	"sec-ch-ua": {}, "sec-ch-ua-platform": {}, "sec-ch-ua-mobile": {},
}

// RequestSource derives signals from an HTTP request for server-side use.
// The client IP is deliberately not included: it changes with the network
// while the device stays the same.
type RequestSource struct {
	r *http.Request
}

// NewRequestSource wraps r.
func NewRequestSource(r *http.Request) RequestSource {
	return RequestSource{r: r}
}

// Signals extracts the request signals.
func (s RequestSource) Signals() Signals {
	h := s.r.Header
	return Signals{
		UserAgent:   s.r.UserAgent(),
		Platform:    strings.Trim(h.Get("Sec-Ch-Ua-Platform"), `"`),
		Renderer:    h.Get("Accept") + ";" + h.Get("Accept-Encoding"),
		Language:    h.Get("Accept-Language"),
		HeaderOrder: headerSet(h),
	}
}

// Fingerprint hashes the request signals.
func (s RequestSource) Fingerprint(context.Context) (string, error) {
	return s.Signals().Hash(), nil
}

// DeviceName uses the user agent.
func (s RequestSource) DeviceName(context.Context) string {
	return s.Signals().DisplayName()
}

func headerSet(h http.Header) string {
	var names []string
	for name := range h {
		lower := strings.ToLower(name)
		if _, ok := stableHeaders[lower]; ok {
			names = append(names, lower)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
