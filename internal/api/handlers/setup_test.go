package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hugh/go-recipes/internal/activity"
	"github.com/hugh/go-recipes/internal/api/handlers"
	"github.com/hugh/go-recipes/internal/api/middleware"
	"github.com/hugh/go-recipes/internal/auth"
	"github.com/hugh/go-recipes/internal/recipe"
	"github.com/hugh/go-recipes/internal/testutil"
)

type recordingRecorder struct {
	mu     sync.Mutex
	events []activity.Event
}

func (r *recordingRecorder) Record(_ context.Context, event activity.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

type errorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

type testServer struct {
	*testutil.TestSetup
	router   *chi.Mux
	recorder *recordingRecorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tc := testutil.NewTestContext(t)
	logger := testutil.DiscardLogger()
	recorder := &recordingRecorder{}

	users := auth.NewService(tc.DB)
	tokens := auth.NewTokenService(tc.DB, users, 0, logger)

	userHandler := handlers.NewUserHandler(users, tokens, recorder, logger)
	tagHandler := handlers.NewAttributeHandler(recipe.NewTagRepository(tc.DB), "tag", recorder, logger)
	ingredientHandler := handlers.NewAttributeHandler(recipe.NewIngredientRepository(tc.DB), "ingredient", recorder, logger)
	recipeHandler := handlers.NewRecipeHandler(recipe.NewRecipeRepository(tc.DB), recorder, logger)
	activityHandler := handlers.NewActivityHandler(tc.DB, logger)

	r := chi.NewRouter()
	r.Use(chimw.StripSlashes)
	r.MethodNotAllowed(handlers.MethodNotAllowed)
	r.NotFound(handlers.NotFound)

	requireToken := middleware.Auth(tokens, nil, logger)

	r.Post("/api/user/create", userHandler.Create)
	r.Post("/api/user/token", userHandler.Token)
	r.With(requireToken).Route("/api/user/me", func(r chi.Router) {
		r.Get("/", userHandler.Me)
		r.Put("/", userHandler.UpdateMe(false))
		r.Patch("/", userHandler.UpdateMe(true))
	})

	r.Route("/api/recipe", func(r chi.Router) {
		r.Use(requireToken)
		r.Route("/tags", func(r chi.Router) {
			r.Get("/", tagHandler.List)
			r.Post("/", tagHandler.Create)
			r.Get("/{id}", tagHandler.Get)
			r.Put("/{id}", tagHandler.Update(false))
			r.Patch("/{id}", tagHandler.Update(true))
			r.Delete("/{id}", tagHandler.Delete)
		})
		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", ingredientHandler.List)
			r.Post("/", ingredientHandler.Create)
			r.Get("/{id}", ingredientHandler.Get)
			r.Put("/{id}", ingredientHandler.Update(false))
			r.Patch("/{id}", ingredientHandler.Update(true))
			r.Delete("/{id}", ingredientHandler.Delete)
		})
		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.List)
			r.Post("/", recipeHandler.Create)
			r.Get("/{id}", recipeHandler.Get)
			r.Put("/{id}", recipeHandler.Update(false))
			r.Patch("/{id}", recipeHandler.Update(true))
			r.Delete("/{id}", recipeHandler.Delete)
		})
	})

	r.With(requireToken, middleware.RequireStaff).Get("/api/admin/activity", activityHandler.List)

	return &testServer{TestSetup: tc, router: r, recorder: recorder}
}

// do sends an authenticated request when token is non-empty.
func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, method, path, body, token))
	return rr
}

func (s *testServer) doRaw(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}
