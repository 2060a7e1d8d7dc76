// Copyright 2026 The Logward Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package http exposes the administrative API over the grant store and the
// permission resolver. Identity is established elsewhere; requests arrive
// with a bearer token whose subject names the acting principal.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/logward/logward/internal/authz"
	"github.com/logward/logward/internal/capability"
	"github.com/logward/logward/internal/grant"
	"github.com/logward/logward/internal/grn"
	"github.com/logward/logward/internal/identity"
	"github.com/logward/logward/internal/observability/logger"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	grantService    *grant.Service
	identityService *identity.Service
	provider        *authz.Provider
	grnRegistry     *grn.Registry
	capabilities    *capability.Registry
	tokenSecret     string
	tokenIssuer     string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	grantService *grant.Service,
	identityService *identity.Service,
	provider *authz.Provider,
	grnRegistry *grn.Registry,
	capabilities *capability.Registry,
	tokenSecret string,
	tokenIssuer string,
) *Handler {
	return &Handler{
		grantService:    grantService,
		identityService: identityService,
		provider:        provider,
		grnRegistry:     grnRegistry,
		capabilities:    capabilities,
		tokenSecret:     tokenSecret,
		tokenIssuer:     tokenIssuer,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes, all behind the actor middleware
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.ActorMiddleware)

		r.Route("/grants", func(r chi.Router) {
			r.Post("/", h.CreateGrant)
			r.Post("/share", h.Share)
			r.Get("/export", h.ExportGrants)
			r.Route("/{grantID}", func(r chi.Router) {
				r.Get("/", h.GetGrant)
				r.Put("/", h.UpdateGrant)
				r.Delete("/", h.RevokeGrant)
			})
		})

		r.Route("/targets/{target}", func(r chi.Router) {
			r.Get("/grants", h.GrantsForTarget)
			r.Get("/grantees", h.GranteesForTarget)
		})
		r.Post("/targets/owners", h.OwnersByTarget)

		r.Get("/grantees/{grantee}/grants", h.GrantsForGrantee)

		r.Route("/principals", func(r chi.Router) {
			r.Post("/", h.CreatePrincipal)
			r.Route("/{principalID}", func(r chi.Router) {
				r.Get("/", h.GetPrincipal)
				r.Delete("/", h.DeletePrincipal)
				r.Get("/permissions", h.ResolvePermissions)
			})
		})

		r.Get("/capabilities", h.ListCapabilities)
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "logward",
	})
}

// GrantRequest carries the mutable grant fields on create and update.
type GrantRequest struct {
	Grantee    string     `json:"grantee" example:"grn::::user:jane"`
	Capability string     `json:"capability" example:"view"`
	Target     string     `json:"target" example:"grn::::stream:stream-1"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func (h *Handler) grantFields(req GrantRequest) (grant.Fields, error) {
	grantee, err := h.grnRegistry.Parse(req.Grantee)
	if err != nil {
		return grant.Fields{}, errors.Join(errors.New("grantee"), err)
	}

	target, err := h.grnRegistry.Parse(req.Target)
	if err != nil {
		return grant.Fields{}, errors.Join(errors.New("target"), err)
	}

	c, err := capability.Parse(req.Capability)
	if err != nil {
		return grant.Fields{}, err
	}

	return grant.Fields{
		Grantee:    grantee,
		Capability: c,
		Target:     target,
		ExpiresAt:  req.ExpiresAt,
	}, nil
}

// CreateGrant creates a new grant for the requested grantee and target.
func (h *Handler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, err := h.grantFields(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := h.grantService.Create(r.Context(), fields, GetActor(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create grant",
			logger.Error(err),
			logger.Grantee(req.Grantee),
			logger.Target(req.Target),
		)

		if errors.Is(err, grant.ErrInvalidGrant) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create grant")
		return
	}

	respondJSON(w, http.StatusCreated, grantResponse(g))
}

// GetGrant retrieves a single grant by id.
func (h *Handler) GetGrant(w http.ResponseWriter, r *http.Request) {
	g, err := h.grantService.Get(r.Context(), chi.URLParam(r, "grantID"))
	if err != nil {
		if errors.Is(err, grant.ErrGrantNotFound) {
			respondError(w, http.StatusNotFound, "grant not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load grant")
		return
	}

	respondJSON(w, http.StatusOK, grantResponse(g))
}

// UpdateGrant overwrites the mutable fields of an existing grant.
func (h *Handler) UpdateGrant(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, err := h.grantFields(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := h.grantService.Update(r.Context(), chi.URLParam(r, "grantID"), fields, GetActor(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, grant.ErrGrantNotFound):
			respondError(w, http.StatusNotFound, "grant not found")
		case errors.Is(err, grant.ErrInvalidGrant):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "failed to update grant")
		}
		return
	}

	respondJSON(w, http.StatusOK, grantResponse(g))
}

// RevokeGrant deletes a grant by id.
func (h *Handler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	err := h.grantService.Revoke(r.Context(), chi.URLParam(r, "grantID"), GetActor(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, grant.ErrGrantNotFound):
			respondError(w, http.StatusNotFound, "grant not found")
		case errors.Is(err, grant.ErrTargetOwnerless):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "failed to revoke grant")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "grant revoked",
	})
}

// Share upserts a grant: a new grant when the grantee holds none on the
// target, an update when the held capability or expiry differs, otherwise a
// no-op. Downgrading the last owner is rejected.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, err := h.grantFields(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := h.grantService.Share(r.Context(), fields, GetActor(r.Context()))
	if err != nil {
		if errors.Is(err, grant.ErrTargetOwnerless) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "failed to share",
			logger.Error(err),
			logger.Grantee(req.Grantee),
			logger.Target(req.Target),
		)
		respondError(w, http.StatusInternalServerError, "failed to share")
		return
	}

	respondJSON(w, http.StatusOK, grantResponse(g))
}

// GrantsForTarget lists the grants on a target. With the exclude query
// parameter set, grants held by that grantee are filtered out; sharing
// dialogs use this to hide the sharing user's own grant.
func (h *Handler) GrantsForTarget(w http.ResponseWriter, r *http.Request) {
	target, err := h.grnRegistry.Parse(chi.URLParam(r, "target"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid target grn")
		return
	}

	var grants []*grant.Grant
	if exclude := r.URL.Query().Get("exclude"); exclude != "" {
		grantee, err := h.grnRegistry.Parse(exclude)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid exclude grn")
			return
		}
		grants, err = h.grantService.ForTargetExcludingGrantee(r.Context(), target, grantee)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to list grants")
			return
		}
	} else {
		grants, err = h.grantService.ForTarget(r.Context(), target)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to list grants")
			return
		}
	}

	respondJSON(w, http.StatusOK, grantListResponse(grants))
}

// GrantsForGrantee lists the grants held by a grantee: the resources shared
// with that principal or team.
func (h *Handler) GrantsForGrantee(w http.ResponseWriter, r *http.Request) {
	grantee, err := h.grnRegistry.Parse(chi.URLParam(r, "grantee"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid grantee grn")
		return
	}

	grants, err := h.grantService.ForGrantee(r.Context(), grantee)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list grants")
		return
	}

	respondJSON(w, http.StatusOK, grantListResponse(grants))
}

// GranteesForTarget lists the current grantee-to-capability assignments on a
// target, the shape a sharing dialog renders.
func (h *Handler) GranteesForTarget(w http.ResponseWriter, r *http.Request) {
	target, err := h.grnRegistry.Parse(chi.URLParam(r, "target"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid target grn")
		return
	}

	grants, err := h.grantService.ForTarget(r.Context(), target)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list grants")
		return
	}

	assignments := make(map[string]string, len(grants))
	for _, g := range grants {
		assignments[g.Grantee.String()] = g.Capability.String()
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"target":   target.String(),
		"grantees": assignments,
	})
}

// OwnersByTargetRequest names the targets to group grantees for.
type OwnersByTargetRequest struct {
	Targets []string `json:"targets"`
}

// OwnersByTarget groups the grantees holding grants on each requested
// target. Callers filter by capability where they need owners only.
func (h *Handler) OwnersByTarget(w http.ResponseWriter, r *http.Request) {
	var req OwnersByTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	targets := make([]grn.GRN, 0, len(req.Targets))
	for _, raw := range req.Targets {
		target, err := h.grnRegistry.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid target grn: "+raw)
			return
		}
		targets = append(targets, target)
	}

	grouped, err := h.grantService.OwnersByTarget(r.Context(), targets)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to group grantees")
		return
	}

	out := make(map[string][]string, len(grouped))
	for target, grantees := range grouped {
		names := make([]string, 0, len(grantees))
		for _, g := range grantees {
			names = append(names, g.String())
		}
		out[target.String()] = names
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"owners": out,
	})
}

// ExportGrants dumps every grant in the store. Administrative use only.
func (h *Handler) ExportGrants(w http.ResponseWriter, r *http.Request) {
	grants, err := h.grantService.GetAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to export grants")
		return
	}

	respondJSON(w, http.StatusOK, grantListResponse(grants))
}

// CreatePrincipalRequest represents principal registration data
type CreatePrincipalRequest struct {
	Name  string `json:"name" example:"jane"`
	Email string `json:"email" example:"jane@example.com"`
}

// CreatePrincipal registers a principal in the directory.
func (h *Handler) CreatePrincipal(w http.ResponseWriter, r *http.Request) {
	var req CreatePrincipalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUserAlreadyExists):
			respondError(w, http.StatusConflict, "principal already exists")
		case errors.Is(err, identity.ErrInvalidUser):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "failed to create principal")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// GetPrincipal retrieves a principal by id.
func (h *Handler) GetPrincipal(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.Get(r.Context(), chi.URLParam(r, "principalID"))
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "principal not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load principal")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}

// DeletePrincipal removes a principal from the directory. The grant
// collector picks up the resulting event and sweeps the orphaned grants.
func (h *Handler) DeletePrincipal(w http.ResponseWriter, r *http.Request) {
	err := h.identityService.Delete(r.Context(), chi.URLParam(r, "principalID"), GetActor(r.Context()))
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "principal not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete principal")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "principal deleted",
	})
}

// ResolvePermissions computes the effective permission set of a principal.
func (h *Handler) ResolvePermissions(w http.ResponseWriter, r *http.Request) {
	principal, err := h.grnRegistry.OfUser(chi.URLParam(r, "principalID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid principal id")
		return
	}

	permissions, err := h.provider.Permissions(r.Context(), principal)
	if err != nil {
		slog.ErrorContext(r.Context(), "permission resolution failed",
			logger.Error(err),
			logger.Principal(principal.String()),
		)
		respondError(w, http.StatusInternalServerError, "failed to resolve permissions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"principal":   principal.String(),
		"permissions": permissions.Strings(),
	})
}

// ListCapabilities returns every registered capability with its per-type
// permission sets.
func (h *Handler) ListCapabilities(w http.ResponseWriter, r *http.Request) {
	descriptors := h.capabilities.Descriptors()

	out := make([]map[string]any, 0, len(descriptors))
	for _, d := range descriptors {
		perTypes := make(map[string][]string, len(d.Permissions))
		for resourceType := range d.Permissions {
			perTypes[resourceType] = d.PermissionsFor(resourceType)
		}
		out = append(out, map[string]any{
			"capability":  d.Capability.String(),
			"title":       d.Capability.Title(),
			"priority":    d.Capability.Priority(),
			"permissions": perTypes,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"capabilities": out,
	})
}

func grantResponse(g *grant.Grant) map[string]any {
	resp := map[string]any{
		"id":         g.ID,
		"grantee":    g.Grantee.String(),
		"capability": g.Capability.String(),
		"target":     g.Target.String(),
		"created_by": g.CreatedBy,
		"created_at": g.CreatedAt,
		"updated_by": g.UpdatedBy,
		"updated_at": g.UpdatedAt,
	}
	if g.ExpiresAt != nil {
		resp["expires_at"] = g.ExpiresAt
	}
	return resp
}

func grantListResponse(grants []*grant.Grant) map[string]any {
	out := make([]map[string]any, 0, len(grants))
	for _, g := range grants {
		out = append(out, grantResponse(g))
	}
	return map[string]any{
		"grants": out,
		"count":  len(out),
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
