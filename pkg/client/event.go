/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/r3labs/sse/v2"
	"k8s.io/klog/v2"

	"github.com/NREL/torc-sub003/pkg/api"
	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
)

// CreateEvent appends one immutable event row.
func (c *Client) CreateEvent(ctx context.Context, event *api.Event) (*api.Event, error) {
	var created api.Event
	if err := c.post(ctx, fmt.Sprintf("/workflows/%d/events", event.WorkflowID), event, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetLatestEvent returns the most recent event, or nil when none exist.
func (c *Client) GetLatestEvent(ctx context.Context, workflowID int64) (*api.Event, error) {
	var event api.Event
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/events/latest", workflowID), nil, &event)
	if torcerrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents pages through events matching the filter.
func (c *Client) ListEvents(ctx context.Context, workflowID int64, filter api.EventFilter) (api.ListResponse[api.Event], error) {
	q := listQuery(filter.ListParams)
	setString(q, "category", filter.Category)
	setInt64(q, "after_timestamp", filter.AfterTimestamp)
	var page api.ListResponse[api.Event]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/events", workflowID), q, &page)
	return page, err
}

// DeleteEvent deletes one event row.
func (c *Client) DeleteEvent(ctx context.Context, workflowID, eventID int64) error {
	return c.delete(ctx, fmt.Sprintf("/workflows/%d/events/%d", workflowID, eventID))
}

// EventHandler receives each streamed event in server timestamp order.
type EventHandler func(event api.Event)

// linearBackOff grows its interval by step on each retry, capped at max.
// Implements the backoff.BackOff interface the SSE client expects.
type linearBackOff struct {
	step    time.Duration
	max     time.Duration
	current time.Duration
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.current += b.step
	if b.current > b.max {
		b.current = b.max
	}
	return b.current
}

func (b *linearBackOff) Reset() {
	b.current = 0
}

// StreamEvents consumes the store's SSE endpoint, invoking handler for every
// event at or above minSeverity until ctx is canceled. Reconnection uses
// linear backoff capped at maxBackoff; the last-seen timestamp is preserved
// as a resume cursor so no events are dropped or reordered across
// reconnects. While the stream is down, the endpoint is polled every
// pollInterval with the same cursor so events keep flowing.
func (c *Client) StreamEvents(ctx context.Context, workflowID int64, minSeverity string, pollInterval, maxBackoff time.Duration, handler EventHandler) error {
	cursor := int64(0)
	retry := &linearBackOff{step: 1 * time.Second, max: maxBackoff}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		streamed, err := c.streamOnce(ctx, workflowID, minSeverity, cursor, &cursor, handler)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			klog.Warningf("event stream for workflow %d disconnected: %v", workflowID, err)
			if pollErr := c.pollEventsOnce(ctx, workflowID, minSeverity, &cursor, handler); pollErr != nil {
				klog.Warningf("event poll for workflow %d failed: %v", workflowID, pollErr)
			}
		}
		if streamed {
			retry.Reset()
		}
		wait := retry.NextBackOff()
		if pollInterval > 0 && wait > pollInterval {
			wait = pollInterval
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// pollEventsOnce is the fallback path when the stream is down: one paged list
// of everything past the cursor, dispatched through the same handler.
func (c *Client) pollEventsOnce(ctx context.Context, workflowID int64, minSeverity string, cursor *int64, handler EventHandler) error {
	events, err := CollectAll(func(params api.ListParams) (api.ListResponse[api.Event], error) {
		return c.ListEvents(ctx, workflowID, api.EventFilter{ListParams: params, AfterTimestamp: *cursor})
	})
	if err != nil {
		return err
	}
	minRank := api.SeverityRank(minSeverity)
	for _, event := range events {
		if event.Timestamp > *cursor {
			*cursor = event.Timestamp
		}
		if api.SeverityRank(event.Severity) < minRank {
			continue
		}
		handler(event)
	}
	return nil
}

// streamOnce opens one SSE connection and dispatches events until the
// connection drops. Reports whether any event arrived.
func (c *Client) streamOnce(ctx context.Context, workflowID int64, minSeverity string, after int64, cursor *int64, handler EventHandler) (bool, error) {
	q := url.Values{}
	setString(q, "level", minSeverity)
	if after > 0 {
		q.Set("after_timestamp", strconv.FormatInt(after, 10))
	}
	streamURL := fmt.Sprintf("%s/workflows/%d/events/stream?%s", c.baseURL, workflowID, q.Encode())
	sseClient := sse.NewClient(streamURL)
	sseClient.Connection = c.http
	// Reconnects are driven by StreamEvents so the resume cursor advances.
	sseClient.ReconnectStrategy = &backoff.StopBackOff{}
	if c.username != "" {
		sseClient.Headers["Authorization"] = basicAuthHeader(c.username, c.password)
	}

	streamed := false
	minRank := api.SeverityRank(minSeverity)
	err := sseClient.SubscribeRawWithContext(ctx, func(msg *sse.Event) {
		if len(msg.Data) == 0 {
			return
		}
		var event api.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			klog.Warningf("dropping undecodable stream event: %v", err)
			return
		}
		if api.SeverityRank(event.Severity) < minRank {
			return
		}
		streamed = true
		if event.Timestamp > *cursor {
			*cursor = event.Timestamp
		}
		handler(event)
	})
	return streamed, err
}
