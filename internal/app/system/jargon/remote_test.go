package jargon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteDetector_Success(t *testing.T) {
	var got detectRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/detect-jargon", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jargon_spans":[{"start":4,"end":8,"confidence":0.9,"term":"ping"}],"jargon_score":0.42}`))
	}))
	defer srv.Close()

	d := NewRemoteDetector(RemoteConfig{BaseURL: srv.URL + "/"}, nil)
	det, err := d.Detect(context.Background(), "can ping you", qbrGlossary)
	require.NoError(t, err)

	assert.Equal(t, "can ping you", got.Text)
	require.Len(t, got.Glossary, 1)
	assert.Equal(t, "quarterly business review", got.Glossary[0].PlainLanguage)

	require.Len(t, det.Spans, 1)
	assert.Equal(t, Span{Start: 4, End: 8, Confidence: 0.9, Term: "ping"}, det.Spans[0])
	assert.True(t, det.HasScore)
	assert.Equal(t, 0.42, det.Score)
}

func TestRemoteDetector_NoAggregate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jargon_spans":[]}`))
	}))
	defer srv.Close()

	det, err := NewRemoteDetector(RemoteConfig{BaseURL: srv.URL}, nil).Detect(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.False(t, det.HasScore)
}

func TestRemoteDetector_FailuresAreServiceUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"jargon_spans":`))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			d := NewRemoteDetector(RemoteConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
			_, err := d.Detect(context.Background(), "touch base", nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrServiceUnavailable), "got %v", err)
		})
	}
}

func TestRemoteDetector_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRemoteDetector(RemoteConfig{BaseURL: url}, nil).Detect(context.Background(), "touch base", nil)
	assert.True(t, errors.Is(err, errs.ErrServiceUnavailable), "got %v", err)
}

func TestRemoteDetector_ThrottleRespectsDeadline(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"jargon_spans":[],"jargon_score":0}`))
	}))
	defer srv.Close()

	d := NewRemoteDetector(RemoteConfig{
		BaseURL:           srv.URL,
		Timeout:           50 * time.Millisecond,
		RequestsPerSecond: 0.01,
		Burst:             1,
	}, nil)

	_, err := d.Detect(context.Background(), "first", nil)
	require.NoError(t, err)

	_, err = d.Detect(context.Background(), "second", nil)
	assert.True(t, errors.Is(err, errs.ErrServiceUnavailable), "got %v", err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRemoteDetector_TooManyRequestsBacksOff(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewRemoteDetector(RemoteConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)

	_, err := d.Detect(context.Background(), "first", []models.GlossaryEntry{})
	assert.True(t, errors.Is(err, errs.ErrServiceUnavailable))

	_, err = d.Detect(context.Background(), "second", nil)
	assert.True(t, errors.Is(err, errs.ErrServiceUnavailable))
	assert.Equal(t, int32(1), hits.Load(), "second call must wait out Retry-After instead of hitting the server")
}
