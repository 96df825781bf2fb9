//go:build integration

package itest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

type OpsEndpointsTestSuite struct {
	BaseTestSuite
}

func TestOpsEndpointsTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OpsEndpointsTestSuite))
}

func (s *OpsEndpointsTestSuite) getJSON(path string) (map[string]any, *http.Response) {
	resp, err := s.Env.GetOps(s.T().Context(), path)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var body map[string]any
	s.Require().NoError(DecodeJSON(resp.Body, &body))

	return body, resp
}

func (s *OpsEndpointsTestSuite) TestLiveness() {
	body, resp := s.getJSON("/healthz")

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", body["status"])
}

func (s *OpsEndpointsTestSuite) TestReadinessWithHealthyDependencies() {
	body, resp := s.getJSON("/readyz")

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", body["status"])

	checks := body["checks"].(map[string]any)
	s.Contains(checks, "keydb")
	s.Contains(checks, "workout-api")
}

func (s *OpsEndpointsTestSuite) TestReadinessWhenAPIDown() {
	s.Env.API.SetDown(true)

	body, resp := s.getJSON("/readyz")

	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
	s.Equal("down", body["status"])

	checks := body["checks"].(map[string]any)
	apiCheck := checks["workout-api"].(map[string]any)
	s.Equal("down", apiCheck["status"])
}

func (s *OpsEndpointsTestSuite) TestStatusBeforeFirstRun() {
	body, resp := s.getJSON("/status")

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Nil(body["last_run"])
	s.Equal("disabled", body["catalog_breaker"])

	store := body["store"].(map[string]any)
	s.Equal("keydb", store["kind"])
}

func (s *OpsEndpointsTestSuite) TestStatusAfterRun() {
	_, err := s.Env.RunOnce(s.T().Context())
	s.Require().NoError(err)

	body, resp := s.getJSON("/status")

	s.Equal(http.StatusOK, resp.StatusCode)

	lastRun := body["last_run"].(map[string]any)
	summary := lastRun["summary"].(map[string]any)
	s.InDelta(3, summary["total"], 0.001)
	s.InDelta(3, summary["processed"], 0.001)
	s.InDelta(0, summary["failed"], 0.001)
	s.Len(lastRun["results"], 3)

	store := body["store"].(map[string]any)
	s.InDelta(3, store["processed_count"], 0.001)
}

func (s *OpsEndpointsTestSuite) TestResponsesCarryRequestID() {
	resp, err := s.Env.GetOps(s.T().Context(), "/healthz")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.NotEmpty(resp.Header.Get("X-Request-Id"))
}
