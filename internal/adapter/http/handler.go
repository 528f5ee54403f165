package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"thorplan/internal/app/action"
	"thorplan/internal/app/domains"
	"thorplan/internal/app/observe"
	"thorplan/internal/app/ports"
	"thorplan/internal/app/replay"
	domainaction "thorplan/internal/domain/action"
	"thorplan/internal/domain/world"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type Handler struct {
	ActionUC  action.UseCase
	ObserveUC observe.UseCase
	ReplayUC  replay.UseCase
	DomainsUC domains.UseCase
	KPI       kpiSnapshotProvider
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())

	agent := s.Group("/api/agent")
	agent.POST("/action", h.action)
	agent.POST("/observe", h.observe)
	agent.GET("/targets", h.targets)
	agent.GET("/records", h.records)
	agent.GET("/records/:scene/:counter", h.record)

	s.GET("/pddl/domains/index.json", h.domainsIndex)
	s.GET("/pddl/domains/*filepath", h.domainFile)
	s.GET("/ops/kpi", h.kpi)
}

type actionRequest struct {
	Scene       string               `json:"scene"`
	SceneNumber int                  `json:"scene_number,omitempty"`
	Counter     int                  `json:"counter,omitempty"`
	Reset       bool                 `json:"reset,omitempty"`
	Action      domainaction.Request `json:"action"`
}

type observeRequest struct {
	Kind           string `json:"kind,omitempty"`
	IncludeObjects bool   `json:"include_objects,omitempty"`
}

func (h Handler) action(c context.Context, ctx *app.RequestContext) {
	var body actionRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if hasJSONField(ctx.Request.Body(), "cycle_id") {
		writeErrorBody(ctx, consts.StatusBadRequest, "cycle_id_managed_by_server", "cycle_id is assigned by the server")
		return
	}

	resp, err := h.ActionUC.Execute(c, action.Request{
		Scene:       body.Scene,
		SceneNumber: body.SceneNumber,
		Counter:     body.Counter,
		Reset:       body.Reset,
		Action:      body.Action,
	})
	if err != nil {
		writeActionFailure(ctx, resp, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) observe(c context.Context, ctx *app.RequestContext) {
	var body observeRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	resp, err := h.ObserveUC.Execute(c, observe.Request{Kind: body.Kind, IncludeObjects: body.IncludeObjects})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) targets(c context.Context, ctx *app.RequestContext) {
	kind := strings.TrimSpace(string(ctx.Query("kind")))
	if kind == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "missing_kind", "kind query parameter is required")
		return
	}
	resp, err := h.ObserveUC.Execute(c, observe.Request{Kind: kind})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) records(c context.Context, ctx *app.RequestContext) {
	sceneNumber, _ := strconv.Atoi(string(ctx.Query("scene_number")))
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	recordedFrom, _ := strconv.ParseInt(string(ctx.Query("recorded_from")), 10, 64)
	recordedTo, _ := strconv.ParseInt(string(ctx.Query("recorded_to")), 10, 64)
	includeWorld, _ := strconv.ParseBool(string(ctx.Query("include_world")))

	resp, err := h.ReplayUC.Execute(c, replay.Request{
		Scene:        string(ctx.Query("scene")),
		SceneNumber:  sceneNumber,
		ActionName:   string(ctx.Query("action")),
		Limit:        limit,
		RecordedFrom: recordedFrom,
		RecordedTo:   recordedTo,
		IncludeWorld: includeWorld,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

// record accepts the scene either as its number or as FloorPlan<n>.
func (h Handler) record(c context.Context, ctx *app.RequestContext) {
	scene := ctx.Param("scene")
	sceneNumber, err := strconv.Atoi(scene)
	if err != nil {
		n, ok := world.SceneNumber(scene)
		if !ok {
			writeErrorBody(ctx, consts.StatusBadRequest, "invalid_scene", "invalid scene")
			return
		}
		sceneNumber = n
	}
	counter, err := strconv.Atoi(ctx.Param("counter"))
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_counter", "invalid counter")
		return
	}

	resp, err := h.ReplayUC.Detail(c, replay.DetailRequest{SceneNumber: sceneNumber, Counter: counter})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) domainsIndex(c context.Context, ctx *app.RequestContext) {
	idx, err := h.DomainsUC.Index(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, idx)
}

func (h Handler) domainFile(c context.Context, ctx *app.RequestContext) {
	path := strings.TrimPrefix(string(ctx.Param("filepath")), "/")
	if path == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_filepath", "invalid filepath")
		return
	}

	b, err := h.DomainsUC.File(c, path)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, "text/plain; charset=utf-8", b)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func hasJSONField(body []byte, key string) bool {
	if len(body) == 0 {
		return false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return false
	}
	_, ok := m[key]
	return ok
}

// actionStatus returns the status for a failed cycle whose response is still
// worth sending, or zero when only the plain error body applies.
func actionStatus(err error) int {
	switch action.Classify(err) {
	case action.OutcomeInvalid:
		return consts.StatusBadRequest
	case action.OutcomeEncoding, action.OutcomePlanParsing, action.OutcomeDispatch:
		return consts.StatusUnprocessableEntity
	case action.OutcomeTimedOut:
		return consts.StatusGatewayTimeout
	case action.OutcomeSolverNotFound:
		return consts.StatusServiceUnavailable
	case action.OutcomeConflict:
		return consts.StatusConflict
	default:
		return 0
	}
}

func writeActionFailure(ctx *app.RequestContext, resp action.Response, err error) {
	status := actionStatus(err)
	if status == 0 {
		writeError(ctx, err)
		return
	}
	ctx.JSON(status, resp)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, action.ErrInvalidRequest),
		errors.Is(err, domainaction.ErrInvalidRequest),
		errors.Is(err, observe.ErrInvalidRequest),
		errors.Is(err, replay.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrInvalidPath):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_filepath", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ports.ErrPlannerTimedOut):
		writeErrorBody(ctx, consts.StatusGatewayTimeout, "planner_timed_out", err.Error())
	case errors.Is(err, ports.ErrSolverNotFound):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "solver_not_found", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
