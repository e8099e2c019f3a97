package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akrauze/OpenFilamentSensor/pkg/status"
)

func TestNewNormalizesBaseURL(t *testing.T) {
	assert.Equal(t, "http://192.168.1.42", New("192.168.1.42").BaseURL())
	assert.Equal(t, "https://sensor.local", New("https://sensor.local/").BaseURL())
}

func TestSensorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sensor_status", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"stopped":false,"filamentRunout":true,"device":{"printState":2,"movementPulses":17,"refreshIntervalMs":1000}}`)
	}))
	defer srv.Close()

	snap, err := New(srv.URL).SensorStatus(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.FilamentRunout)
	assert.Equal(t, status.PrintState(2), snap.Device.PrintState)
	assert.Equal(t, int64(17), snap.Device.MovementPulses)
}

func TestUpdateSettings(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"success":true}`)
	}))
	defer srv.Close()

	err := New(srv.URL).UpdateSettings(context.Background(), map[string]any{"elegoo_ip": "10.0.0.5"})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", got["elegoo_ip"])
}

func TestUpdateSettingsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"success":false,"error":"malformed settings body"}`)
	}))
	defer srv.Close()

	err := New(srv.URL).UpdateSettingsJSON(context.Background(), []byte("not json"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "malformed settings body", apiErr.Message)
}

func TestErrorDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
		fmt.Fprint(w, `{"error":"printer not found","details":"no answer"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).DiscoverPrinter(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "printer not found", apiErr.Message)
	assert.Equal(t, "no answer", apiErr.Details)
	assert.Contains(t, apiErr.Error(), "504")
}

func TestPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "405 method not allowed", http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Version(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "405 method not allowed", apiErr.Message)
}

func TestLogs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/logs_live", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"logs":["[INFO] a","[WARNING] b"]}`)
	})
	mux.HandleFunc("/api/logs_text", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[INFO] a\n[WARNING] b")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	lines, err := c.Logs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"[INFO] a", "[WARNING] b"}, lines)

	text, err := c.LogsText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, strings.Join(lines, "\n"), text)
}

func TestBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ip":`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).DiscoverPrinter(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestEventReader(t *testing.T) {
	stream := ": comment\n" +
		"event: status\ndata: {\"a\":1}\n\n" +
		"data: line1\ndata: line2\nid: 7\n\n" +
		"event: empty\n\n" +
		"event: status\ndata:{\"a\":2}\n\n"
	r := NewEventReader(strings.NewReader(stream))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Name: "status", Data: `{"a":1}`}, ev)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Name: "message", Data: "line1\nline2", ID: "7"}, ev)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Name: "status", Data: `{"a":2}`}, ev)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(w, "event: status\ndata: {\"device\":{\"movementPulses\":%d}}\n\n", i)
			flusher.Flush()
		}
		fmt.Fprint(w, "event: other\ndata: {}\n\n")
	}))
	defer srv.Close()

	var pulses []int64
	err := New(srv.URL).StreamStatus(context.Background(), func(s status.Snapshot) error {
		pulses = append(pulses, s.Device.MovementPulses)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, pulses)
}

func TestStreamStatusCallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for {
			if _, err := fmt.Fprint(w, "event: status\ndata: {}\n\n"); err != nil {
				return
			}
			w.(http.Flusher).Flush()
			select {
			case <-r.Context().Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
		}
	}))
	defer srv.Close()

	stop := errors.New("enough")
	n := 0
	err := New(srv.URL).StreamStatus(context.Background(), func(status.Snapshot) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, n)
}

func TestStreamStatusWrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	err := New(srv.URL).StreamStatus(context.Background(), func(status.Snapshot) error { return nil })
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}
