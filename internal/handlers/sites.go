// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storesmith/internal/cache"
	"storesmith/internal/generator"
	"storesmith/internal/jobs"
	"storesmith/internal/models"
	"storesmith/internal/store"
)

// Sites groups the JSON API handlers for storefront page generation.
// Generation itself runs in the background; Generate only records the
// request and hands it to the coordinator.
type Sites struct {
	siteStore   *store.SiteStore
	coordinator *jobs.Coordinator
	siteCache   *cache.SiteCache
}

// NewSites creates a new Sites handler group.
func NewSites(siteStore *store.SiteStore, coordinator *jobs.Coordinator, siteCache *cache.SiteCache) *Sites {
	return &Sites{
		siteStore:   siteStore,
		coordinator: coordinator,
		siteCache:   siteCache,
	}
}

// generateRequest is the JSON body accepted by POST /generate.
type generateRequest struct {
	ProductType  string `json:"product_type"`
	DesignStyle  string `json:"design_style"`
	ReferenceURL string `json:"reference_url"`
	Mode         string `json:"mode"`
}

// Generate accepts a generation request, persists a pending site record,
// dispatches the background job, and returns 202 with the record ID. The
// client polls GET /results/{id} for the outcome.
func (s *Sites) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Request body must be valid JSON.")
		return
	}

	req.ProductType = strings.TrimSpace(req.ProductType)
	req.DesignStyle = strings.TrimSpace(req.DesignStyle)
	req.ReferenceURL = strings.TrimSpace(req.ReferenceURL)
	if req.Mode == "" {
		req.Mode = string(models.ReferenceModeSmart)
	}

	if msg := validateGenerateRequest(req.ProductType, req.DesignStyle, req.ReferenceURL, req.Mode); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	mode := models.ReferenceMode(req.Mode)
	var refURL *string
	if req.ReferenceURL != "" {
		refURL = &req.ReferenceURL
	}

	site, err := s.siteStore.Create(req.ProductType, req.DesignStyle, refURL, mode)
	if err != nil {
		slog.Error("create site record failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to record the generation request.")
		return
	}

	s.coordinator.Dispatch(site.ID, generator.Request{
		ProductType:  site.ProductType,
		DesignStyle:  site.DesignStyle,
		ReferenceURL: req.ReferenceURL,
		Mode:         site.Mode,
	})

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":      site.ID.String(),
		"status":  string(site.Status),
		"message": "Generation started. Poll /results/{id} for the outcome.",
	})
}

// Result returns the full site record, whatever its state. Clients poll
// this until status leaves "pending".
func (s *Sites) Result(w http.ResponseWriter, r *http.Request) {
	site, ok := s.findSite(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// Gallery lists all completed sites, newest first.
func (s *Sites) Gallery(w http.ResponseWriter, r *http.Request) {
	sites, err := s.siteStore.ListCompleted()
	if err != nil {
		slog.Error("list completed sites failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to list sites.")
		return
	}
	if sites == nil {
		sites = []models.Site{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sites": sites,
		"count": len(sites),
	})
}

// HTML serves the generated page markup of a completed site as text/html,
// backed by the Valkey cache.
func (s *Sites) HTML(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSiteID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if cached, hit := s.siteCache.Get(ctx, id); hit {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(cached)
		return
	}

	site, err := s.siteStore.FindByID(id)
	if err != nil {
		slog.Error("find site failed", "error", err, "site_id", id)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load the site.")
		return
	}
	if site == nil {
		writeJSONError(w, http.StatusNotFound, "Site not found.")
		return
	}
	if site.Status != models.SiteStatusCompleted {
		writeJSONError(w, http.StatusConflict, "Site has no generated page yet.")
		return
	}

	s.siteCache.Set(ctx, id, []byte(site.HTMLContent))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(site.HTMLContent))
}

// Delete removes a site record and evicts its cached markup.
func (s *Sites) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSiteID(w, r)
	if !ok {
		return
	}

	deleted, err := s.siteStore.Delete(id)
	if err != nil {
		slog.Error("delete site failed", "error", err, "site_id", id)
		writeJSONError(w, http.StatusInternalServerError, "Failed to delete the site.")
		return
	}
	if !deleted {
		writeJSONError(w, http.StatusNotFound, "Site not found.")
		return
	}

	s.siteCache.Invalidate(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// Health reports service liveness.
func (s *Sites) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// findSite parses the {id} URL parameter and loads the record, writing the
// appropriate error response when either step fails.
func (s *Sites) findSite(w http.ResponseWriter, r *http.Request) (*models.Site, bool) {
	id, ok := parseSiteID(w, r)
	if !ok {
		return nil, false
	}

	site, err := s.siteStore.FindByID(id)
	if err != nil {
		slog.Error("find site failed", "error", err, "site_id", id)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load the site.")
		return nil, false
	}
	if site == nil {
		writeJSONError(w, http.StatusNotFound, "Site not found.")
		return nil, false
	}
	return site, true
}

func parseSiteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Site ID must be a valid UUID.")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode json response failed", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
