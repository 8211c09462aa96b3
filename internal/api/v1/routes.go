// Package v1 provides the REST handlers for controlling the playback synchronizer.
package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/playback-sync/internal/api/common"
	"github.com/stacklok/playback-sync/internal/config"
	"github.com/stacklok/playback-sync/internal/service"
)

// Routes defines the player and resource routes with dependency injection
type Routes struct {
	service service.PlayerService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.PlayerService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates a new router for the control API
func Router(svc service.PlayerService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Route("/player", func(r chi.Router) {
		r.Get("/", routes.getState)
		r.Post("/play", routes.play)
		r.Post("/pause", routes.pause)
		r.Post("/seek", routes.seek)
		r.Put("/rate", routes.setRate)
		r.Put("/duration", routes.setDuration)
		r.Post("/resync", routes.resync)
	})

	r.Route("/resources", func(r chi.Router) {
		r.Get("/", routes.listResources)
		r.Post("/", routes.addResource)
		r.Delete("/{id}", routes.removeResource)
	})

	return r
}

// getState handles GET /v1/player
//
// @Summary		Get player state
// @Tags			player
// @Produce		json
// @Success		200	{object}	playback.State
// @Failure		503	{object}	ErrorResponse
// @Router			/v1/player [get]
func (rr *Routes) getState(w http.ResponseWriter, r *http.Request) {
	st, err := rr.service.State(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	common.WriteJSONResponse(w, st, http.StatusOK)
}

// play handles POST /v1/player/play
//
// @Summary		Start the playback driver
// @Tags			player
// @Accept			json
// @Produce		json
// @Param			request	body		PlayRequest	false	"Tick interval and step"
// @Success		202		{object}	StatusResponse
// @Failure		400		{object}	ErrorResponse
// @Router			/v1/player/play [post]
func (rr *Routes) play(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil && !errors.Is(err, common.ErrEmptyBody) {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var interval time.Duration
	if req.Interval != "" {
		d, err := time.ParseDuration(req.Interval)
		if err != nil {
			common.WriteErrorResponse(w, "interval must be a valid duration (e.g., '500ms')", http.StatusBadRequest)
			return
		}
		interval = d
	}

	rr.accepted(w, r, rr.service.Play(r.Context(), interval, req.Step))
}

// pause handles POST /v1/player/pause
//
// @Summary		Stop the playback driver
// @Tags			player
// @Produce		json
// @Success		202	{object}	StatusResponse
// @Router			/v1/player/pause [post]
func (rr *Routes) pause(w http.ResponseWriter, r *http.Request) {
	rr.accepted(w, r, rr.service.Pause(r.Context()))
}

// seek handles POST /v1/player/seek
//
// @Summary		Seek every resource
// @Description	Requests a round at the given time. The request is dropped with 409 while a round is in flight.
// @Tags			player
// @Accept			json
// @Produce		json
// @Param			request	body		SeekRequest	true	"Target time in seconds"
// @Success		202		{object}	SeekResponse
// @Failure		400		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/v1/player/seek [post]
func (rr *Routes) seek(w http.ResponseWriter, r *http.Request) {
	var req SeekRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Time == nil {
		common.WriteErrorResponse(w, "time is required", http.StatusBadRequest)
		return
	}

	accepted, err := rr.service.Seek(r.Context(), *req.Time)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	if !accepted {
		common.WriteErrorResponse(w, "a round is in flight, seek dropped", http.StatusConflict)
		return
	}
	common.WriteJSONResponse(w, SeekResponse{Accepted: true, Time: *req.Time}, http.StatusAccepted)
}

// setRate handles PUT /v1/player/rate
//
// @Summary		Set the playback rate
// @Tags			player
// @Accept			json
// @Produce		json
// @Param			request	body		RateRequest	true	"Playback rate"
// @Success		202		{object}	StatusResponse
// @Failure		400		{object}	ErrorResponse
// @Router			/v1/player/rate [put]
func (rr *Routes) setRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Rate == nil {
		common.WriteErrorResponse(w, "rate is required", http.StatusBadRequest)
		return
	}

	rr.accepted(w, r, rr.service.SetPlaybackRate(r.Context(), *req.Rate))
}

// setDuration handles PUT /v1/player/duration
//
// @Summary		Set the logical duration
// @Tags			player
// @Accept			json
// @Produce		json
// @Param			request	body		DurationRequest	true	"Duration in seconds"
// @Success		202		{object}	StatusResponse
// @Failure		400		{object}	ErrorResponse
// @Router			/v1/player/duration [put]
func (rr *Routes) setDuration(w http.ResponseWriter, r *http.Request) {
	var req DurationRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Duration == nil {
		common.WriteErrorResponse(w, "duration is required", http.StatusBadRequest)
		return
	}

	rr.accepted(w, r, rr.service.SetDuration(r.Context(), *req.Duration))
}

// resync handles POST /v1/player/resync
//
// @Summary		Request a debounced resync at the current time
// @Tags			player
// @Produce		json
// @Success		202	{object}	StatusResponse
// @Router			/v1/player/resync [post]
func (rr *Routes) resync(w http.ResponseWriter, r *http.Request) {
	rr.accepted(w, r, rr.service.RequestResync(r.Context()))
}

// listResources handles GET /v1/resources
//
// @Summary		List registered resources
// @Tags			resources
// @Produce		json
// @Success		200	{array}		playback.ResourceInfo
// @Failure		503	{object}	ErrorResponse
// @Router			/v1/resources [get]
func (rr *Routes) listResources(w http.ResponseWriter, r *http.Request) {
	infos, err := rr.service.Resources(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	common.WriteJSONResponse(w, infos, http.StatusOK)
}

// addResource handles POST /v1/resources
//
// @Summary		Add a simulated resource
// @Description	Registers and loads a simulated resource. An id is generated when omitted.
// @Tags			resources
// @Accept			json
// @Produce		json
// @Param			request	body		config.ResourceConfig	true	"Resource definition"
// @Success		201		{object}	AddResourceResponse
// @Failure		400		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/v1/resources [post]
func (rr *Routes) addResource(w http.ResponseWriter, r *http.Request) {
	var req config.ResourceConfig
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := rr.service.AddResource(r.Context(), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	common.WriteJSONResponse(w, AddResourceResponse{ID: id}, http.StatusCreated)
}

// removeResource handles DELETE /v1/resources/{id}
//
// @Summary		Remove a resource
// @Tags			resources
// @Param			id	path	string	true	"Resource id"
// @Success		204
// @Failure		404	{object}	ErrorResponse
// @Router			/v1/resources/{id} [delete]
func (rr *Routes) removeResource(w http.ResponseWriter, r *http.Request) {
	id, err := common.PathParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := rr.service.RemoveResource(r.Context(), id); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (*Routes) accepted(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	common.WriteJSONResponse(w, StatusResponse{Status: "accepted"}, http.StatusAccepted)
}

// writeServiceError maps service errors to HTTP status codes
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrResourceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrResourceExists):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNotReady),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "Request failed", "error", err)
	}
	common.WriteErrorResponse(w, err.Error(), status)
}
