package workoutapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fitsync/svc-exercise-refresh/internal/config"
	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	appLogger "github.com/fitsync/svc-exercise-refresh/pkg/logger"
)

type (
	// exercisePayload mirrors the workout API wire format.
	exercisePayload struct {
		ID     int      `json:"id"`
		Name   string   `json:"name"`
		Sets   int      `json:"sets"`
		Reps   int      `json:"reps"`
		Weight *float64 `json:"weight"`
	}

	// Client talks to the workout API over HTTP.
	Client struct {
		baseURL    string
		token      string
		httpClient *http.Client
		logger     appLogger.Logger
	}
)

// NewClient creates a workout API client with a pooled, traced transport.
func NewClient(cfg config.WorkoutAPI, logger appLogger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(cleanhttp.DefaultPooledTransport()),
			Timeout:   cfg.Timeout,
		},
		logger: logger,
	}
}

// ListExercises retrieves the full exercise catalog.
func (c *Client) ListExercises(ctx context.Context) ([]model.Exercise, error) {
	var payload []exercisePayload

	if err := c.getJSON(ctx, "/exercises", &payload); err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}

	exercises := make([]model.Exercise, len(payload))
	for index, entry := range payload {
		exercises[index] = entry.toDomain()
	}

	return exercises, nil
}

// VerifyExercise re-validates a single exercise by id.
// Returns model.ErrExerciseNotFound when the API answers 404.
func (c *Client) VerifyExercise(ctx context.Context, id int) (*model.Exercise, error) {
	var payload exercisePayload

	if err := c.getJSON(ctx, fmt.Sprintf("/exercises/%d", id), &payload); err != nil {
		return nil, fmt.Errorf("verifying exercise %d: %w", id, err)
	}

	exercise := payload.toDomain()

	return &exercise, nil
}

// Health probes the API's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, "/health")
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("checking health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("checking health: unexpected status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, path)
	if err != nil {
		return err
	}

	startTime := time.Now()

	resp, err := c.httpClient.Do(req)

	duration := time.Since(startTime)

	c.logger.Debug().
		Str("path", path).
		Int64("duration_ms", duration.Milliseconds()).
		Bool("success", err == nil).
		Msg("workout api request")

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.ErrExerciseNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}

func (p exercisePayload) toDomain() model.Exercise {
	return model.Exercise{
		ID:     p.ID,
		Name:   p.Name,
		Sets:   p.Sets,
		Reps:   p.Reps,
		Weight: p.Weight,
	}
}
