package lineup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const mockLineupResponse = `[
  {"GuideNumber":"2.1","GuideName":"News","URL":"http://10.0.0.5:5004/auto/v2.1"},
  {"GuideNumber":"2.2","GuideName":"Weather","URL":"http://10.0.0.5:5004/auto/v2.2"}
]`

const mockDiscoverResponse = `{"DeviceID":"1052D6A8","FriendlyName":"HDHomeRun CONNECT","ModelNumber":"HDHR5-2US","FirmwareName":"hdhomerun5_atsc","TunerCount":2,"BaseURL":"http://10.0.0.5:80","LineupURL":"http://10.0.0.5:80/lineup.json"}`

func testServer(t *testing.T, handler http.HandlerFunc) (addr string, close func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	return strings.TrimPrefix(srv.URL, "http://"), srv.Close
}

func TestClientFetch(t *testing.T) {
	addr, done := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lineup.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(mockLineupResponse))
	})
	defer done()

	client := NewClient(2 * time.Second)
	channels, err := client.Fetch(context.Background(), addr)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(channels) != 2 {
		t.Fatalf("Fetch() returned %d channels, want 2", len(channels))
	}
	if channels[0].Key != "2.1" || channels[0].Name != "News" {
		t.Errorf("channels[0] = %+v", channels[0])
	}
	if channels[1].StreamURL != "http://10.0.0.5:5004/auto/v2.2" {
		t.Errorf("channels[1].StreamURL = %s", channels[1].StreamURL)
	}
}

func TestClientFetchDuplicateKeysLastWins(t *testing.T) {
	body := `[
	  {"GuideNumber":"2.1","GuideName":"Old Name","URL":"http://a/1"},
	  {"GuideNumber":"2.2","GuideName":"Weather","URL":"http://a/2"},
	  {"GuideNumber":"2.1","GuideName":"New Name","URL":"http://a/3"}
	]`
	addr, done := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
	defer done()

	client := NewClient(2 * time.Second)
	channels, err := client.Fetch(context.Background(), addr)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(channels) != 2 {
		t.Fatalf("Fetch() returned %d channels, want 2 after dedupe", len(channels))
	}
	if channels[0].Name != "New Name" || channels[0].StreamURL != "http://a/3" {
		t.Errorf("duplicate key should resolve last-write-wins, got %+v", channels[0])
	}
}

func TestClientFetchDropsEntriesWithoutURL(t *testing.T) {
	body := `[
	  {"GuideNumber":"2.1","GuideName":"News","URL":""},
	  {"GuideNumber":"2.2","GuideName":"Weather","URL":"http://a/2"}
	]`
	addr, done := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
	defer done()

	client := NewClient(2 * time.Second)
	channels, err := client.Fetch(context.Background(), addr)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(channels) != 1 || channels[0].Key != "2.2" {
		t.Errorf("channels = %+v, want only 2.2", channels)
	}
}

func TestClientFetchMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "truncated JSON", body: `[{"GuideNumber":"2.1"`, code: http.StatusOK},
		{name: "HTML error page", body: `<html>device rebooting</html>`, code: http.StatusOK},
		{name: "server error status", body: "oops", code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, done := testServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			})
			defer done()

			client := NewClient(2 * time.Second)
			_, err := client.Fetch(context.Background(), addr)
			if err == nil {
				t.Fatal("Fetch() expected error for malformed response")
			}

			fe := AsFetchError(err)
			if fe == nil {
				t.Fatalf("error is not a *FetchError: %v", err)
			}
			if fe.Kind != KindMalformedResponse {
				t.Errorf("Kind = %v, want MalformedResponse", fe.Kind)
			}
		})
	}
}

func TestClientFetchTimeout(t *testing.T) {
	addr, done := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(mockLineupResponse))
	})
	defer done()

	client := NewClient(50 * time.Millisecond)
	_, err := client.Fetch(context.Background(), addr)
	if err == nil {
		t.Fatal("Fetch() expected timeout error")
	}

	fe := AsFetchError(err)
	if fe == nil {
		t.Fatalf("error is not a *FetchError: %v", err)
	}
	if fe.Kind != KindTimeout {
		t.Errorf("Kind = %v, want Timeout", fe.Kind)
	}
}

func TestClientFetchUnreachable(t *testing.T) {
	// Reserved TEST-NET-1 address; nothing listens there.
	client := NewClient(200 * time.Millisecond)
	_, err := client.Fetch(context.Background(), "192.0.2.1:65530")
	if err == nil {
		t.Fatal("Fetch() expected error for unreachable device")
	}

	fe := AsFetchError(err)
	if fe == nil {
		t.Fatalf("error is not a *FetchError: %v", err)
	}
	if fe.Kind != KindUnreachable && fe.Kind != KindTimeout {
		t.Errorf("Kind = %v, want Unreachable or Timeout", fe.Kind)
	}
}

func TestClientDeviceInfo(t *testing.T) {
	addr, done := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discover.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(mockDiscoverResponse))
	})
	defer done()

	client := NewClient(2 * time.Second)
	info, err := client.DeviceInfo(context.Background(), addr)
	if err != nil {
		t.Fatalf("DeviceInfo() error = %v", err)
	}

	if info.DeviceID != "1052D6A8" {
		t.Errorf("DeviceID = %s", info.DeviceID)
	}
	if !info.IsTuner() {
		t.Error("IsTuner() = false for a valid discover document")
	}
	if info.Name(addr) != "HDHomeRun CONNECT" {
		t.Errorf("Name() = %s", info.Name(addr))
	}
}

func TestDeviceInfoNameFallback(t *testing.T) {
	info := &DeviceInfo{DeviceID: "ABC", ModelNumber: "HDHR"}
	if got := info.Name("10.0.0.9"); got != "HDHomeRun at 10.0.0.9" {
		t.Errorf("Name() = %s", got)
	}
}

func TestDeviceURL(t *testing.T) {
	tests := []struct {
		address string
		path    string
		want    string
	}{
		{"10.0.0.5", "/lineup.json", "http://10.0.0.5/lineup.json"},
		{"10.0.0.5:8080", "/lineup.json", "http://10.0.0.5:8080/lineup.json"},
		{"http://10.0.0.5:80", "/discover.json", "http://10.0.0.5:80/discover.json"},
		{"10.0.0.5/", "/lineup.json", "http://10.0.0.5/lineup.json"},
	}

	for _, tt := range tests {
		if got := deviceURL(tt.address, tt.path); got != tt.want {
			t.Errorf("deviceURL(%q, %q) = %q, want %q", tt.address, tt.path, got, tt.want)
		}
	}
}
