// Package horizon speaks the Horizon REST and SSE protocol for /offers.
// The client decodes wire form only; retries and business semantics
// belong to the caller.
package horizon

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stellarroute/stellarroute/internal/models"
)

const (
	// DefaultTimeout bounds a single REST request.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error response is kept for logs.
	maxErrorBody = 512

	// streamBufferCap caps a single SSE event; offer records are small
	// but Horizon occasionally batches embedded metadata.
	streamBufferCap = 1 << 20
)

// Client fetches and streams SDEX offers from a Horizon-compatible API.
type Client struct {
	baseURL string
	// rest carries the bounded timeout; stream must not, as SSE
	// responses are unbounded by design.
	rest   *http.Client
	stream *http.Client
}

// New builds a client for the given Horizon base URL. A non-positive
// timeout falls back to DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    &http.Client{Timeout: timeout},
		stream:  &http.Client{},
	}
}

// OfferEvent is one element of an offer stream: either a decoded record
// or a per-message error. Errors never terminate the stream.
type OfferEvent struct {
	Offer *models.HorizonOffer
	Err   error
}

// FetchOffers returns one page of /offers. An empty cursor starts from
// the top of the collection.
func (c *Client) FetchOffers(ctx context.Context, cursor string, limit int, order string) (*models.OffersPage, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if order != "" {
		q.Set("order", order)
	}

	endpoint := c.baseURL + "/offers"
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Op: "build request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.rest.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "fetch offers", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var page models.OffersPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &DecodeError{Cause: err}
	}
	return &page, nil
}

// StreamOffers opens the /offers SSE stream and feeds decoded records to
// the returned channel. Per-message decode failures surface as events
// carrying an error; the channel closes when the server ends the stream,
// the transport fails, or ctx is cancelled. The returned error covers
// connection establishment only.
func (c *Client) StreamOffers(ctx context.Context) (<-chan OfferEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/offers", nil)
	if err != nil {
		return nil, &TransportError{Op: "build stream request", Cause: err}
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "open stream", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	events := make(chan OfferEvent)
	go c.consumeStream(ctx, resp.Body, events)
	return events, nil
}

// consumeStream reads SSE blocks until the body ends or ctx cancels.
func (c *Client) consumeStream(ctx context.Context, body io.ReadCloser, events chan<- OfferEvent) {
	defer close(events)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Split(splitSSE)
	scanner.Buffer(make([]byte, 0, 64*1024), streamBufferCap)

	for scanner.Scan() {
		ev := parseSSEEvent(scanner.Text())
		if ev.Name != "message" || ev.Data == "" {
			continue
		}
		// Horizon frames the stream with "hello" and "byebye" markers.
		if ev.Data == `"hello"` || ev.Data == `"byebye"` {
			continue
		}

		var offer models.HorizonOffer
		out := OfferEvent{}
		if err := json.Unmarshal([]byte(ev.Data), &offer); err != nil {
			out.Err = &DecodeError{Cause: fmt.Errorf("stream message: %w", err)}
		} else {
			out.Offer = &offer
		}

		select {
		case events <- out:
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		select {
		case events <- OfferEvent{Err: &TransportError{Op: "read stream", Cause: err}}:
		case <-ctx.Done():
		}
	}
}
