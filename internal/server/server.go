// Package server exposes the submission API over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"subline/internal/engine"
	"subline/internal/events"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   *engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_event"`
	Message string         `json:"message" example:"cannot set title: title must not be all-caps"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError is the error envelope for every failure response.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the submission API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/submission"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Subline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerSubmissions(group, cfg.Engine)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body:   apiErrorBody{Code: code, Message: message, Details: details},
	}
}

// handleError maps command handler errors onto the API envelope. Invalid
// events are caller errors; an invalid consequent stack is not.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var invalid *events.InvalidEvent
	if errors.As(err, &invalid) {
		return newAPIError(http.StatusUnprocessableEntity, "invalid_event", invalid.Error(), map[string]any{
			"event_type": string(invalid.Event.Data.Type()),
		})
	}
	if errors.Is(err, engine.ErrNoSuchSubmission) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	var stack *engine.InvalidStack
	if errors.As(err, &stack) {
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
	var save *engine.SaveError
	if errors.As(err, &save) {
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", nil)
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "invalid_event"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status" example:"ok"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*healthOutput, error) {
		out := &healthOutput{}
		out.Body.Status = "ok"
		return out, nil
	})
}

func registerSubmissions(api huma.API, e *engine.Engine) {
	type createInput struct {
		Body struct {
			Events []EventInput `json:"events" minItems:"1"`
		}
	}
	type submissionOutput struct {
		Body SubmissionOutput
	}
	huma.Register(api, huma.Operation{
		OperationID:   "create-submission",
		Method:        http.MethodPost,
		Path:          "/",
		Summary:       "Create a submission",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, in *createInput) (*submissionOutput, error) {
		principal, authErr := agentFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		evs, err := decodeEvents(in.Body.Events, principal)
		if err != nil {
			return nil, err
		}
		state, committed, saveErr := e.Save(ctx, 0, evs...)
		if saveErr != nil {
			return nil, handleError(saveErr)
		}
		return &submissionOutput{Body: toSubmissionOutput(state, committed)}, nil
	})

	type idInput struct {
		ID int64 `path:"id" minimum:"1"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-submission",
		Method:      http.MethodGet,
		Path:        "/{id}",
		Summary:     "Get submission state",
		Description: "Reads the materialized state without replaying the event log.",
	}, func(ctx context.Context, in *idInput) (*submissionOutput, error) {
		if _, authErr := agentFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		state, err := e.LoadFast(ctx, in.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &submissionOutput{Body: toSubmissionOutput(state, nil)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-submission-history",
		Method:      http.MethodGet,
		Path:        "/{id}/history",
		Summary:     "Get submission event history",
		Description: "Replays the full event log and returns the state with every event.",
	}, func(ctx context.Context, in *idInput) (*submissionOutput, error) {
		if _, authErr := agentFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		state, evs, err := e.Load(ctx, in.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &submissionOutput{Body: toSubmissionOutput(state, evs)}, nil
	})

	type applyInput struct {
		ID   int64 `path:"id" minimum:"1"`
		Body struct {
			Events []EventInput `json:"events" minItems:"1"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "apply-events",
		Method:      http.MethodPost,
		Path:        "/{id}/events",
		Summary:     "Apply events to a submission",
	}, func(ctx context.Context, in *applyInput) (*submissionOutput, error) {
		principal, authErr := agentFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		evs, err := decodeEvents(in.Body.Events, principal)
		if err != nil {
			return nil, err
		}
		state, committed, saveErr := e.Save(ctx, in.ID, evs...)
		if saveErr != nil {
			return nil, handleError(saveErr)
		}
		return &submissionOutput{Body: toSubmissionOutput(state, committed)}, nil
	})

	type listOutput struct {
		Body struct {
			Submissions []SubmissionSummary `json:"submissions"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "list-submissions",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "List submissions",
	}, func(ctx context.Context, _ *struct{}) (*listOutput, error) {
		if _, authErr := agentFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		rows, err := e.Repo.ListSubmissions(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := &listOutput{}
		for _, r := range rows {
			out.Body.Submissions = append(out.Body.Submissions, SubmissionSummary{
				SubmissionID: r.SubmissionID,
				Status:       r.Status,
				Title:        r.Title,
				OwnerID:      r.OwnerID,
				CreatedAt:    r.CreatedAt,
				UpdatedAt:    r.UpdatedAt,
			})
		}
		return out, nil
	})
}

func decodeEvents(inputs []EventInput, p Principal) ([]*events.Event, huma.StatusError) {
	var out []*events.Event
	for _, in := range inputs {
		e, err := in.decode(p.Agent, p.Proxy)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		out = append(out, e)
	}
	return out, nil
}
