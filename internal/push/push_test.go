package push

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"groupchat/backend/internal/models"
	"groupchat/backend/pkg/errors"
	"groupchat/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", JSON: false, Output: io.Discard})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Provider
	}{
		{"https://ntfy.sh/mytopic", ProviderNtfy},
		{"https://push.ntfy.example.com/topic", ProviderNtfy},
		{"https://notifymelife.example.com/api?uuid=abc", ProviderNotifyMe},
		{"https://example.com/hook", ProviderGeneric},
		{"http://127.0.0.1:9999/x", ProviderGeneric},
		{"://bad", ProviderGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.url), tt.url)
	}
}

func TestNtfyAdapterPostsPlainText(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
	}))
	defer srv.Close()

	a := &ntfyAdapter{client: srv.Client()}
	err := a.Deliver(context.Background(), srv.URL, models.Message{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", gotBody)
	assert.Contains(t, gotContentType, "text/plain")
}

func TestNtfyAdapterNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := &ntfyAdapter{client: srv.Client()}
	err := a.Deliver(context.Background(), srv.URL, models.Message{Content: "x"})
	assert.True(t, errors.IsCode(err, errors.CodeDelivery))
}

func TestNotifyMeAdapter(t *testing.T) {
	t.Run("requires uuid", func(t *testing.T) {
		a := &notifyMeAdapter{client: http.DefaultClient}
		err := a.Deliver(context.Background(), "https://notifymelife.example.com/api", models.Message{Content: "x"})
		assert.True(t, errors.IsCode(err, errors.CodeValidation))
	})

	t.Run("sets body and defaults without clobbering", func(t *testing.T) {
		var got url.Values
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			got = r.URL.Query()
			io.WriteString(w, `{"status":"success"}`)
		}))
		defer srv.Close()

		a := &notifyMeAdapter{client: srv.Client()}
		err := a.Deliver(context.Background(), srv.URL+"/api?uuid=abc&title=Custom", models.Message{Content: "ping"})
		require.NoError(t, err)
		assert.Equal(t, "abc", got.Get("uuid"))
		assert.Equal(t, "ping", got.Get("body"))
		assert.Equal(t, "Custom", got.Get("title"), "existing title must be kept")
		assert.Equal(t, "ping", got.Get("bigText"))
		assert.Equal(t, "chat", got.Get("group"))
	})

	t.Run("missing success indicator is a delivery error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"status":"rejected"}`)
		}))
		defer srv.Close()

		a := &notifyMeAdapter{client: srv.Client()}
		err := a.Deliver(context.Background(), srv.URL+"/api?uuid=abc", models.Message{Content: "x"})
		assert.True(t, errors.IsCode(err, errors.CodeDelivery))
	})
}

func TestGenericAdapterAppendsPathSegment(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
	}))
	defer srv.Close()

	a := &genericAdapter{client: srv.Client()}

	err := a.Deliver(context.Background(), srv.URL+"/notify", models.Message{Content: "hello world"})
	require.NoError(t, err)
	assert.Equal(t, "/notify/hello%20world", gotPath)

	// A base URL already ending in / must not grow a double slash.
	err = a.Deliver(context.Background(), srv.URL+"/notify/", models.Message{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "/notify/hi", gotPath)
}

func TestDispatchIsolatesFailures(t *testing.T) {
	var delivered atomic.Int32
	okSrv1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered.Add(1)
	}))
	defer okSrv1.Close()
	okSrv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered.Add(1)
	}))
	defer okSrv2.Close()

	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	failSrv.Close() // already closed: connection refused

	d := NewDispatcher(testLogger(), 2*time.Second, 4)
	d.Dispatch(models.Message{ID: 1, Content: "hello"}, []string{
		okSrv1.URL + "/hook",
		failSrv.URL + "/hook",
		okSrv2.URL + "/hook",
	})
	d.Wait()

	assert.Equal(t, int32(2), delivered.Load())
}

func TestDispatchReturnsImmediately(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	d := NewDispatcher(testLogger(), 5*time.Second, 1)

	start := time.Now()
	d.Dispatch(models.Message{ID: 1, Content: "x"}, []string{srv.URL, srv.URL, srv.URL})
	assert.Less(t, time.Since(start), 500*time.Millisecond, "Dispatch must not block on deliveries")
}
