package horizon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const offerRecord = `{
  "id": "166529",
  "paging_token": "166529",
  "seller": "GDSELLERACCOUNT",
  "selling": {"asset_type": "native"},
  "buying": {"asset_type": "credit_alphanum4", "asset_code": "USDC", "asset_issuer": "GISSUER"},
  "amount": "100.0000000",
  "price_r": {"n": 3, "d": 2},
  "price": "1.5000000",
  "last_modified_ledger": 12345
}`

func TestFetchOffers(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/offers", r.URL.Path)
		gotQuery = r.URL.RawQuery

		w.Header().Set("Content-Type", "application/hal+json")
		fmt.Fprintf(w, `{
		  "_links": {"next": {"href": "%s/offers?cursor=166529&limit=10&order=desc"}},
		  "_embedded": {"records": [%s]}
		}`, srvURL(r), offerRecord)
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	page, err := client.FetchOffers(context.Background(), "", 10, "desc")
	require.NoError(t, err)

	assert.Equal(t, "limit=10&order=desc", gotQuery)
	require.Len(t, page.Records(), 1)
	assert.Equal(t, "166529", page.Records()[0].ID)
	assert.Equal(t, "166529", page.NextCursor())
}

// srvURL rebuilds the test server base URL from the incoming request.
func srvURL(r *http.Request) string {
	return "http://" + r.Host
}

func TestFetchOffersPassesCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "166529", r.URL.Query().Get("cursor"))
		fmt.Fprint(w, `{"_embedded": {"records": []}}`)
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	page, err := client.FetchOffers(context.Background(), "166529", 0, "")
	require.NoError(t, err)
	assert.Empty(t, page.Records())
	assert.Empty(t, page.NextCursor())
}

func TestFetchOffersHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title": "Rate Limit Exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	_, err := client.FetchOffers(context.Background(), "", 10, "desc")
	require.Error(t, err)

	code, ok := IsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Contains(t, err.Error(), "Rate Limit Exceeded")
}

func TestFetchOffersDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"_embedded": {"records": [`)
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	_, err := client.FetchOffers(context.Background(), "", 10, "desc")
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
}

func TestFetchOffersTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := New(srv.URL, time.Second)
	_, err := client.FetchOffers(context.Background(), "", 10, "desc")
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
}

func TestStreamOffers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")

		fmt.Fprint(w, "retry: 1000\nevent: open\ndata: \"hello\"\n\n")
		fmt.Fprintf(w, "data: %s\n\n", `{"id": "1", "seller": "GA", "selling": {"asset_type": "native"}, "buying": {"asset_type": "credit_alphanum4", "asset_code": "USDC", "asset_issuer": "GI"}, "amount": "1", "price": "1", "price_r": {"n": 1, "d": 1}, "last_modified_ledger": 1}`)
		fmt.Fprint(w, "data: {not json\n\n")
		fmt.Fprintf(w, "data: %s\n\n", `{"id": "2", "seller": "GA", "selling": {"asset_type": "native"}, "buying": {"asset_type": "credit_alphanum4", "asset_code": "EURT", "asset_issuer": "GI"}, "amount": "2", "price": "2", "price_r": {"n": 2, "d": 1}, "last_modified_ledger": 2}`)
		fmt.Fprint(w, "data: \"byebye\"\n\n")
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	events, err := client.StreamOffers(context.Background())
	require.NoError(t, err)

	var offers []string
	var decodeErrs int
	for ev := range events {
		if ev.Err != nil {
			assert.True(t, IsDecodeError(ev.Err))
			decodeErrs++
			continue
		}
		require.NotNil(t, ev.Offer)
		offers = append(offers, ev.Offer.ID)
	}

	// The malformed frame surfaces as an error without ending the stream.
	assert.Equal(t, []string{"1", "2"}, offers)
	assert.Equal(t, 1, decodeErrs)
}

func TestStreamOffersConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	_, err := client.StreamOffers(context.Background())
	require.Error(t, err)
	code, ok := IsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestStreamOffersHonorsContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: \"hello\"\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	client := New(srv.URL, time.Second)
	events, err := client.StreamOffers(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, open := <-events:
		// Either the channel closes immediately or drains one final
		// transport error from the cancelled body read.
		if open {
			_, open = <-events
			assert.False(t, open)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not shut down after cancel")
	}
}

func TestSplitSSEFraming(t *testing.T) {
	adv, token, err := splitSSE([]byte("data: a\n\ndata: b\n\n"), false)
	require.NoError(t, err)
	assert.Equal(t, 9, adv)
	assert.Equal(t, "data: a", string(token))

	// Incomplete block waits for more input.
	adv, token, err = splitSSE([]byte("data: a\n"), false)
	require.NoError(t, err)
	assert.Zero(t, adv)
	assert.Nil(t, token)

	// EOF flushes the remainder.
	adv, token, err = splitSSE([]byte("data: tail"), true)
	require.NoError(t, err)
	assert.Equal(t, 10, adv)
	assert.Equal(t, "data: tail", string(token))
}

func TestParseSSEEvent(t *testing.T) {
	ev := parseSSEEvent("event: message\nid: 7\ndata: {\"a\":1}")
	assert.Equal(t, "message", ev.Name)
	assert.Equal(t, `{"a":1}`, ev.Data)

	// Multi-line data joins with newlines; comments are dropped.
	ev = parseSSEEvent(": keepalive\ndata: line1\ndata: line2")
	assert.Equal(t, "line1\nline2", ev.Data)

	ev = parseSSEEvent("event: close\ndata: \"byebye\"")
	assert.Equal(t, "close", ev.Name)
}
