// Package qdrant stores record vectors in a Qdrant collection over its REST
// API. Point ids are derived deterministically from the record's vector key,
// so re-indexing a record overwrites its point instead of accumulating
// duplicates.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/infrastructure/resilience"
)

// pointNamespace seeds the UUIDv5 derivation of point ids from vector keys.
var pointNamespace = uuid.MustParse("7b1ddbd6-2f0f-4cbe-9a64-cc5b0b6da25c")

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu   sync.Mutex
	ensuredDim int
}

func New(baseURL, collection string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

// PointID maps a vector key onto Qdrant's UUID point-id space.
func PointID(key string) string {
	return uuid.NewSHA1(pointNamespace, []byte(key)).String()
}

func (c *Client) Upsert(ctx context.Context, key string, vector []float32, meta domain.VectorMeta) error {
	if len(vector) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "qdrant upsert", fmt.Errorf("empty vector for key %s", key))
	}
	if err := c.ensureCollection(ctx, len(vector)); err != nil {
		return err
	}

	reqBody := map[string]any{
		"points": []map[string]any{{
			"id":     PointID(key),
			"vector": vector,
			"payload": map[string]any{
				"key":       key,
				"record_id": meta.RecordID,
				"kind":      string(meta.Kind),
			},
		}},
	}

	return c.execute(ctx, "upsert", func(ctx context.Context) error {
		path := fmt.Sprintf("/collections/%s/points?wait=true", c.collection)
		return c.call(ctx, http.MethodPut, path, reqBody, nil, "upsert")
	})
}

func (c *Client) Query(ctx context.Context, vector []float32, filter domain.VectorFilter, topK int) ([]domain.VectorHit, error) {
	reqBody := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}

	var must []map[string]any
	if filter.Kind != "" {
		must = append(must, map[string]any{
			"key":   "kind",
			"match": map[string]any{"value": string(filter.Kind)},
		})
	}
	if filter.RecordID != "" {
		must = append(must, map[string]any{
			"key":   "record_id",
			"match": map[string]any{"value": filter.RecordID},
		})
	}
	if len(must) > 0 {
		reqBody["filter"] = map[string]any{"must": must}
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := c.execute(ctx, "search", func(ctx context.Context) error {
		path := fmt.Sprintf("/collections/%s/points/search", c.collection)
		err := c.call(ctx, http.MethodPost, path, reqBody, &searchResp, "search")
		var statusErr *statusError
		// A collection that was never created holds no vectors.
		if asStatusError(err, &statusErr) && statusErr.code == http.StatusNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	hits := make([]domain.VectorHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		hits = append(hits, domain.VectorHit{
			Key:      payloadString(r.Payload, "key"),
			RecordID: payloadString(r.Payload, "record_id"),
			Kind:     domain.RecordKind(payloadString(r.Payload, "kind")),
			Score:    r.Score,
		})
	}
	return hits, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	reqBody := map[string]any{
		"points": []string{PointID(key)},
	}
	return c.execute(ctx, "delete", func(ctx context.Context) error {
		path := fmt.Sprintf("/collections/%s/points/delete?wait=true", c.collection)
		err := c.call(ctx, http.MethodPost, path, reqBody, nil, "delete")
		var statusErr *statusError
		// No collection means the point was never written.
		if asStatusError(err, &statusErr) && statusErr.code == http.StatusNotFound {
			return nil
		}
		return err
	})
}

func (c *Client) ensureCollection(ctx context.Context, dim int) error {
	c.ensureMu.Lock()
	ensured := c.ensuredDim == dim
	c.ensureMu.Unlock()
	if ensured {
		return nil
	}

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}

	err := c.execute(ctx, "ensure_collection", func(ctx context.Context) error {
		path := fmt.Sprintf("/collections/%s", c.collection)
		err := c.call(ctx, http.MethodPut, path, reqBody, nil, "ensure collection")
		var statusErr *statusError
		// Conflict means a previous process already created it.
		if asStatusError(err, &statusErr) && statusErr.code == http.StatusConflict {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}

	c.ensureMu.Lock()
	c.ensuredDim = dim
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	err := c.executor.Execute(ctx, "qdrant_"+operation, fn, classifyError)
	return wrapIndexError(operation, err)
}

func (c *Client) call(ctx context.Context, method, path string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{
			operation: operation,
			code:      resp.StatusCode,
			status:    resp.Status,
			body:      strings.TrimSpace(string(raw)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
