package fdsn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayRequest(t *testing.T) Request {
	t.Helper()
	start, end := DayWindow(time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC))
	return Request{
		Network: "NZ", Station: "NZ37", Location: "*", Channel: "BH?",
		Start: start, End: end,
	}
}

func TestDayWindow(t *testing.T) {
	start, end := DayWindow(time.Date(2024, 3, 15, 9, 30, 12, 0, time.UTC))
	assert.True(t, start.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestFetchWindow(t *testing.T) {
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte("miniseed-bytes"))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	data, err := c.FetchWindow(context.Background(), dayRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "miniseed-bytes", string(data))

	assert.Equal(t, []string{"NZ"}, query["network"])
	assert.Equal(t, []string{"NZ37"}, query["station"])
	assert.Equal(t, []string{"2024-03-15T00:00:00"}, query["starttime"])
	assert.Equal(t, []string{"2024-03-16T00:00:00"}, query["endtime"])
	assert.Equal(t, []string{"404"}, query["nodata"])
}

func TestFetchWindow_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).FetchWindow(context.Background(), dayRequest(t))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFetchWindow_EmptyBodyIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).FetchWindow(context.Background(), dayRequest(t))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFetchWindow_GzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("compressed-payload"))
		gz.Close()
	}))
	defer srv.Close()

	data, err := New(srv.URL, 0).FetchWindow(context.Background(), dayRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "compressed-payload", string(data))
}

func TestFetchWindow_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "shard offline", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).FetchWindow(context.Background(), dayRequest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestFetchWindow_RateSpacing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	c := New(srv.URL, 50*time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.FetchWindow(context.Background(), dayRequest(t))
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchWindow_Cancelled(t *testing.T) {
	c := New("http://127.0.0.1:0", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchWindow(ctx, dayRequest(t))
	assert.Error(t, err)
}
