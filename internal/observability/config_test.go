package observability

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"
)

func TestMountRespectsToggle(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		status int
	}{
		{"disabled", Config{}, nethttp.StatusNotFound},
		{"enabled", Config{EnablePprof: true}, nethttp.StatusOK},
	}
	for _, tc := range tests {
		mux := nethttp.NewServeMux()
		tc.cfg.Mount(mux)
		resp := httptest.NewRecorder()
		mux.ServeHTTP(resp, httptest.NewRequest(nethttp.MethodGet, "/debug/pprof/", nil))
		if resp.Code != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.status, resp.Code)
		}
	}
}
