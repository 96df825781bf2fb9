//go:build integration

package itest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"
	otelNoop "go.opentelemetry.io/otel/trace/noop"

	internalhttp "github.com/fitsync/svc-exercise-refresh/internal/adapters/inbound/http"
	"github.com/fitsync/svc-exercise-refresh/internal/adapters/outbound/workoutapi"
	"github.com/fitsync/svc-exercise-refresh/internal/adapters/repos"
	"github.com/fitsync/svc-exercise-refresh/internal/adapters/services"
	"github.com/fitsync/svc-exercise-refresh/internal/config"
	"github.com/fitsync/svc-exercise-refresh/internal/domain/model"
	"github.com/fitsync/svc-exercise-refresh/internal/infrastructure"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases"
	"github.com/fitsync/svc-exercise-refresh/internal/usecases/commands"
	"github.com/fitsync/svc-exercise-refresh/pkg/idempotency"
	"github.com/fitsync/svc-exercise-refresh/pkg/logger"
	"github.com/fitsync/svc-exercise-refresh/pkg/metrics/noop"
)

// BaseTestSuite provides a fully wired refresher environment shared by the
// integration tests.
type BaseTestSuite struct {
	suite.Suite
	Env *RefreshTestEnv
}

// SetupSuite initializes the integration test environment.
func (s *BaseTestSuite) SetupSuite() {
	env, err := NewRefreshTestEnv()
	s.Require().NoError(err)
	s.Env = env
}

// TearDownSuite shuts down the integration test environment.
func (s *BaseTestSuite) TearDownSuite() {
	if s.Env != nil {
		s.Env.Close()
	}
}

// SetupTest clears claims, reports and scripted API behavior before each test.
func (s *BaseTestSuite) SetupTest() {
	s.Env.ResetState()
}

// DefaultCatalog returns the three-exercise fixture catalog seeded before
// each test.
func DefaultCatalog() []model.Exercise {
	benchWeight := 60.5
	deadliftWeight := 120.0

	return []model.Exercise{
		{ID: 1, Name: "Bench Press", Sets: 3, Reps: 10, Weight: &benchWeight},
		{ID: 2, Name: "Plank", Sets: 3, Reps: 1},
		{ID: 3, Name: "Deadlift", Sets: 5, Reps: 5, Weight: &deadliftWeight},
	}
}

// ClaimKey returns today's idempotency claim key for an exercise.
func ClaimKey(exerciseID int) string {
	return idempotency.Key("refresh", exerciseID, time.Now())
}

// DecodeJSON decodes a JSON response body.
func DecodeJSON(r io.Reader, out any) error {
	return json.NewDecoder(r).Decode(out)
}

// RefreshTestEnv wires the full refresher stack, from the ops HTTP surface
// down to an embedded KeyDB, against a scriptable fake workout API.
type RefreshTestEnv struct {
	API       *FakeWorkoutAPI
	APIServer *httptest.Server
	Store     *miniredis.Miniredis
	Keydb     *infrastructure.KeydbClient
	Guard     *repos.IdempotencyRepository
	Reports   *repos.ReportRepository
	Exercises *services.ExerciseService
	App       *usecases.Application
	OpsServer *httptest.Server
	Config    *config.ServiceConfig
}

// NewRefreshTestEnv builds the whole stack through the production
// constructors. The catalog circuit breaker is disabled so scripted API
// outages in one test cannot leak state into the next.
func NewRefreshTestEnv() (*RefreshTestEnv, error) {
	store, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("starting embedded keydb: %w", err)
	}

	api := NewFakeWorkoutAPI()
	apiServer := httptest.NewServer(api.Handler())

	cfg := &config.ServiceConfig{
		App: config.App{
			ServiceName: "svc-exercise-refresh-itest",
			Env:         config.Environment{Name: "test"},
		},
		WorkoutAPI: config.WorkoutAPI{
			BaseURL:     apiServer.URL,
			Timeout:     5 * time.Second,
			VerifyRPS:   100,
			VerifyBurst: 100,
			CircuitBreaker: config.CircuitBreakerConfig{
				Enabled: false,
			},
		},
		Keydb: config.Keydb{
			URL:           "redis://" + store.Addr(),
			PoolSize:      5,
			DialTimeout:   500 * time.Millisecond,
			ReadTimeout:   500 * time.Millisecond,
			WriteTimeout:  500 * time.Millisecond,
			PoolTimeout:   time.Second,
			DefaultExpiry: time.Hour,
		},
		Refresh: config.Refresh{
			MaxConcurrency: 2,
			MaxRetries:     3,
			RetryBaseDelay: 5 * time.Millisecond,
			IdempotencyTTL: time.Hour,
			SnapshotTTL:    time.Hour,
		},
		OpsHTTPServer: config.OpsHTTPServer{
			WriteTimeout: 5 * time.Second,
		},
	}

	log := logger.NewTestLogger()
	metricsClient := noop.NewMetricsClient()
	tracerProvider := otelNoop.NewTracerProvider()

	keydb, err := infrastructure.NewKeydbClient(cfg.Keydb, log)
	if err != nil {
		apiServer.Close()
		store.Close()

		return nil, err
	}

	rateLimitStore, err := repos.NewRateLimitStore(keydb)
	if err != nil {
		keydb.Close()
		apiServer.Close()
		store.Close()

		return nil, err
	}

	apiClient := workoutapi.NewClient(cfg.WorkoutAPI, log)

	exercises, err := services.NewExerciseService(apiClient, cfg.WorkoutAPI, rateLimitStore, log)
	if err != nil {
		keydb.Close()
		apiServer.Close()
		store.Close()

		return nil, err
	}

	guard := repos.NewIdempotencyRepository(keydb, cfg.Refresh.IdempotencyTTL, log)
	reports := repos.NewReportRepository(keydb, cfg.Refresh.SnapshotTTL, log)
	healthChecker := services.NewHealthService(keydb, apiClient)

	app := usecases.NewApplication(
		exercises,
		guard,
		reports,
		healthChecker,
		cfg.Refresh,
		log,
		metricsClient,
		tracerProvider,
	)

	router := internalhttp.NewOpsRouter(internalhttp.OpsRouterConfig{
		App:     app,
		Breaker: exercises,
		Logger:  log,
		Config:  cfg,
	})

	return &RefreshTestEnv{
		API:       api,
		APIServer: apiServer,
		Store:     store,
		Keydb:     keydb,
		Guard:     guard,
		Reports:   reports,
		Exercises: exercises,
		App:       app,
		OpsServer: httptest.NewServer(router),
		Config:    cfg,
	}, nil
}

// Close shuts down all test resources.
func (e *RefreshTestEnv) Close() {
	if e.OpsServer != nil {
		e.OpsServer.Close()
	}

	if e.APIServer != nil {
		e.APIServer.Close()
	}

	if e.Keydb != nil {
		e.Keydb.Close()
	}

	if e.Store != nil {
		e.Store.Close()
	}
}

// ResetState flushes the store and re-seeds the fake API with the default
// catalog.
func (e *RefreshTestEnv) ResetState() {
	e.Store.FlushAll()
	e.API.Reset(DefaultCatalog())
}

// RunOnce drives a single refresh batch through the command handler.
func (e *RefreshTestEnv) RunOnce(ctx context.Context) (*model.RunReport, error) {
	return e.App.Commands.RunRefresh.Handle(ctx, commands.RunRefreshCommand{})
}

// GetOps performs a GET against the ops HTTP server.
func (e *RefreshTestEnv) GetOps(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.OpsServer.URL+path, nil)
	if err != nil {
		return nil, err
	}

	return e.OpsServer.Client().Do(req)
}

type exercisePayload struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Sets   int      `json:"sets"`
	Reps   int      `json:"reps"`
	Weight *float64 `json:"weight"`
}

// FakeWorkoutAPI is an in-memory stand-in for the workout API with
// scriptable per-exercise failures and request accounting.
type FakeWorkoutAPI struct {
	mu sync.Mutex

	catalog     []model.Exercise
	missing     map[int]bool
	failVerify  map[int]int
	down        bool
	verifyDelay time.Duration

	listCalls      int
	verifyCalls    map[int]int
	verifyInFlight int
	verifyPeak     int
}

// NewFakeWorkoutAPI creates a fake with an empty catalog.
func NewFakeWorkoutAPI() *FakeWorkoutAPI {
	api := &FakeWorkoutAPI{}
	api.Reset(nil)

	return api
}

// Reset clears all scripted behavior and counters and replaces the catalog.
func (f *FakeWorkoutAPI) Reset(catalog []model.Exercise) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.catalog = catalog
	f.missing = make(map[int]bool)
	f.failVerify = make(map[int]int)
	f.down = false
	f.verifyDelay = 0
	f.listCalls = 0
	f.verifyCalls = make(map[int]int)
	f.verifyPeak = 0
}

// SetCatalog replaces the served catalog.
func (f *FakeWorkoutAPI) SetCatalog(catalog []model.Exercise) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.catalog = catalog
}

// RemoveExercise makes per-id verification answer 404 while the exercise is
// still listed in the catalog.
func (f *FakeWorkoutAPI) RemoveExercise(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.missing[id] = true
}

// RestoreExercise undoes RemoveExercise.
func (f *FakeWorkoutAPI) RestoreExercise(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.missing, id)
}

// FailVerify makes the next times verifications of id answer 500.
func (f *FakeWorkoutAPI) FailVerify(id, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failVerify[id] = times
}

// SetDown makes every endpoint answer 503.
func (f *FakeWorkoutAPI) SetDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.down = down
}

// SetVerifyDelay stalls every verification response by delay.
func (f *FakeWorkoutAPI) SetVerifyDelay(delay time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.verifyDelay = delay
}

// ListCalls reports how often the catalog was listed.
func (f *FakeWorkoutAPI) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.listCalls
}

// VerifyCalls reports how often an exercise was verified.
func (f *FakeWorkoutAPI) VerifyCalls(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.verifyCalls[id]
}

// VerifyPeak reports the highest number of concurrently served
// verification requests.
func (f *FakeWorkoutAPI) VerifyPeak() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.verifyPeak
}

// Handler serves the workout API wire format.
func (f *FakeWorkoutAPI) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", f.handleHealth)
	mux.HandleFunc("/exercises", f.handleList)
	mux.HandleFunc("/exercises/", f.handleVerify)

	return mux
}

func (f *FakeWorkoutAPI) handleHealth(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	down := f.down
	f.mu.Unlock()

	if down {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	writeJSON(w, map[string]string{"status": "healthy"})
}

func (f *FakeWorkoutAPI) handleList(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()

	if f.down {
		f.mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	f.listCalls++

	payload := make([]exercisePayload, len(f.catalog))
	for index, exercise := range f.catalog {
		payload[index] = toPayload(exercise)
	}

	f.mu.Unlock()

	writeJSON(w, payload)
}

func (f *FakeWorkoutAPI) handleVerify(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/exercises/"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	f.mu.Lock()

	if f.down {
		f.mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	f.verifyCalls[id]++

	f.verifyInFlight++
	if f.verifyInFlight > f.verifyPeak {
		f.verifyPeak = f.verifyInFlight
	}

	fail := f.failVerify[id] > 0
	if fail {
		f.failVerify[id]--
	}

	missing := f.missing[id]

	var payload *exercisePayload

	for _, exercise := range f.catalog {
		if exercise.ID == id {
			entry := toPayload(exercise)
			payload = &entry

			break
		}
	}

	delay := f.verifyDelay

	f.mu.Unlock()

	// The stall happens outside the lock so requests overlap and the peak
	// concurrency measurement means something.
	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.verifyInFlight--
	f.mu.Unlock()

	switch {
	case fail:
		w.WriteHeader(http.StatusInternalServerError)
	case missing || payload == nil:
		w.WriteHeader(http.StatusNotFound)
	default:
		writeJSON(w, *payload)
	}
}

func toPayload(exercise model.Exercise) exercisePayload {
	return exercisePayload{
		ID:     exercise.ID,
		Name:   exercise.Name,
		Sets:   exercise.Sets,
		Reps:   exercise.Reps,
		Weight: exercise.Weight,
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}
