package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourorg/pretriaged/internal/http/middleware"
	"github.com/yourorg/pretriaged/internal/triage"
)

// TriageDeps are the collaborators the turn handler needs, supplied once at
// startup by cmd/pretriaged and closed over by the returned gin.HandlerFunc.
type TriageDeps struct {
	Orchestrator *triage.Orchestrator
	MaxBodyBytes int64
	TurnDeadline time.Duration
}

type turnAnswerRequest struct {
	Canonical string `json:"canonical"`
	Value     string `json:"value"`
}

// turnRequest mirrors the wire contract in full, including lat/lon: those
// two fields are accepted so a schema-conforming body never 400s, but
// facility geolocation lookup is an external collaborator this module does
// not implement, so they are parsed and otherwise unused.
type turnRequest struct {
	SessionID    string             `json:"session_id"`
	Locale       string             `json:"locale"`
	UserMessage  string             `json:"user_message"`
	Answer       *turnAnswerRequest `json:"answer"`
	AgeYears     *int               `json:"age_years"`
	Pregnant     bool               `json:"pregnant"`
	DurationDays *int               `json:"duration_days"`
	Lat          *float64           `json:"lat"`
	Lon          *float64           `json:"lon"`
}

// TurnHandler returns the POST /triage/turn handler: parse, run one turn
// through the orchestrator, and translate the resulting Envelope into an
// HTTP status per the 200/404/400 contract (429 is handled upstream by the
// rate-limit middleware; it never reaches here).
func TurnHandler(deps TriageDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := middleware.GetRequestID(c)

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, deps.MaxBodyBytes+1))
		if err != nil {
			c.Error(&middleware.ErrBadRequest{Err: err})
			return
		}

		var req turnRequest
		if err := json.Unmarshal(body, &req); err != nil {
			c.Error(&middleware.ErrBadRequest{Err: err})
			return
		}
		if req.Locale == "" {
			c.Error(&middleware.ErrBadRequest{Err: errors.New("locale is required")})
			return
		}

		var answer *triage.TurnAnswer
		if req.Answer != nil {
			answer = &triage.TurnAnswer{Canonical: req.Answer.Canonical, Value: req.Answer.Value}
		}

		ctx, cancel := deadlineFromRequest(c.Request.Context(), deps.TurnDeadline)
		defer cancel()

		env := deps.Orchestrator.HandleTurn(ctx, triage.HandleTurnRequest{
			SessionID:   req.SessionID,
			Locale:      req.Locale,
			UserMessage: req.UserMessage,
			Answer:      answer,
			Profile: triage.Profile{
				AgeYears: req.AgeYears,
				Pregnant: req.Pregnant,
			},
			DurationDays: req.DurationDays,
		})

		slog.Debug("triage turn handled", "request_id", requestID, "session_id", env.SessionID, "envelope_type", env.Type)
		c.JSON(statusForEnvelope(env), env)
	}
}

// deadlineFromRequest bounds one turn's end-to-end processing at
// cfg.TurnDeadline, so a degraded downstream (session store, phraser call)
// can't hold a request open indefinitely.
func deadlineFromRequest(ctx context.Context, turnDeadline time.Duration) (context.Context, context.CancelFunc) {
	if turnDeadline <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, turnDeadline)
}

// statusForEnvelope maps a terminal Envelope to its HTTP status: 200 for
// every envelope type including ERROR, except SESSION_NOT_FOUND which
// surfaces as 404 per the wire contract.
func statusForEnvelope(env triage.Envelope) int {
	if env.Type == triage.EnvelopeError && env.Error != nil && env.Error.Code == "SESSION_NOT_FOUND" {
		return http.StatusNotFound
	}
	return http.StatusOK
}
