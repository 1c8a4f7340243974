package connection

import (
	"errors"
	"testing"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		path    string
		want    string
		wantErr bool
	}{
		{
			name:   "https maps to wss",
			origin: "https://neuro.example.com",
			want:   "wss://neuro.example.com/ws/neuro/",
		},
		{
			name:   "http maps to ws with port",
			origin: "http://localhost:8000",
			want:   "ws://localhost:8000/ws/neuro/",
		},
		{
			name:   "origin path is discarded",
			origin: "http://localhost:8000/dashboard/index.html",
			want:   "ws://localhost:8000/ws/neuro/",
		},
		{
			name:   "custom path",
			origin: "https://neuro.example.com:8443",
			path:   "/ws/other/",
			want:   "wss://neuro.example.com:8443/ws/other/",
		},
		{name: "unsupported scheme", origin: "ftp://example.com", wantErr: true},
		{name: "missing host", origin: "localhost", wantErr: true},
		{name: "empty", origin: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Endpoint(tt.origin, tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOrigin) {
					t.Errorf("Endpoint(%q) error = %v, want ErrInvalidOrigin", tt.origin, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Endpoint(%q) error = %v", tt.origin, err)
			}
			if got != tt.want {
				t.Errorf("Endpoint(%q) = %q, want %q", tt.origin, got, tt.want)
			}
		})
	}
}
