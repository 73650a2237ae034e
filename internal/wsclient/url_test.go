package wsclient

import "testing"

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		prefix  string
		id      string
		want    string
		wantErr bool
	}{
		{"http to ws", "http://localhost:8000", "/ws/rooms/", "abc", "ws://localhost:8000/ws/rooms/abc", false},
		{"https to wss", "https://api.example.com/", "ws/transcript", "r1", "wss://api.example.com/ws/transcript/r1", false},
		{"ws kept", "ws://h:1", "/ws/rooms", "x", "ws://h:1/ws/rooms/x", false},
		{"base path kept", "https://h/api", "/ws/rooms/", "x", "wss://h/api/ws/rooms/x", false},
		{"space escaped once", "http://h", "/ws/rooms/", "a b", "ws://h/ws/rooms/a%20b", false},
		{"slash stays in segment", "http://h", "/ws/transcript/", "a/b", "ws://h/ws/transcript/a%2Fb", false},
		{"query chars escaped", "http://h", "/ws/rooms/", "r?1#2", "ws://h/ws/rooms/r%3F1%232", false},
		{"non-ascii", "http://h", "/ws/rooms/", "sala-ñ", "ws://h/ws/rooms/sala-%C3%B1", false},
		{"escaped base path", "http://h/my%20api", "/ws/rooms/", "x y", "ws://h/my%20api/ws/rooms/x%20y", false},
		{"empty id", "http://h", "/ws/rooms/", "", "", true},
		{"bad scheme", "ftp://h", "/ws/rooms/", "x", "", true},
		{"no host", "http://", "/ws/rooms/", "x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EndpointURL(tt.base, tt.prefix, tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EndpointURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("EndpointURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
