// Package client talks to a planline server: the REST API for persistence
// and the websocket relay for live snapshots.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"planline/internal/model"
)

// APIError is a non-2xx response. Message is the server's "error" field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed (%d)", e.Status)
	}
	return e.Message
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

type API struct {
	BaseURL string
	Actor   string
	HTTP    *http.Client
}

func NewAPI(baseURL, actor string) *API {
	return &API{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Actor:   strings.TrimSpace(actor),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if a.Actor != "" {
		req.Header.Set("X-Planline-Actor", a.Actor)
	}
	hc := a.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	res, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(b, &e)
		return &APIError{Status: res.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(b, out)
}

type timelineEnvelope struct {
	Timeline model.Record `json:"timeline"`
}

func (a *API) List(ctx context.Context) ([]model.Summary, error) {
	var out struct {
		Timelines []model.Summary `json:"timelines"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/timelines", nil, &out); err != nil {
		return nil, err
	}
	if out.Timelines == nil {
		out.Timelines = []model.Summary{}
	}
	return out.Timelines, nil
}

func (a *API) Get(ctx context.Context, id string) (model.Record, error) {
	var out timelineEnvelope
	err := a.do(ctx, http.MethodGet, "/api/timelines/"+id, nil, &out)
	return out.Timeline, err
}

// CreateInput mirrors the POST body; every field is optional.
type CreateInput struct {
	Name          string          `json:"name,omitempty"`
	StartDate     string          `json:"startDate,omitempty"`
	Tasks         []model.Task    `json:"tasks,omitempty"`
	NodePositions model.Positions `json:"nodePositions,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

func (a *API) Create(ctx context.Context, in CreateInput) (model.Record, error) {
	var out timelineEnvelope
	err := a.do(ctx, http.MethodPost, "/api/timelines", in, &out)
	return out.Timeline, err
}

func (a *API) Update(ctx context.Context, id string, p model.Patch) (model.Record, error) {
	var out timelineEnvelope
	err := a.do(ctx, http.MethodPut, "/api/timelines/"+id, p, &out)
	return out.Timeline, err
}

func (a *API) Delete(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/timelines/"+id, nil, nil)
}

// Save persists a whole snapshot; it is the session's persistence collaborator.
func (a *API) Save(ctx context.Context, timelineID string, snap model.Snapshot) error {
	_, err := a.Update(ctx, timelineID, model.PatchFromSnapshot(snap))
	return err
}
