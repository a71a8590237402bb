// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the resolver as a JSON API.
package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/rideloc/credentials"
	"github.com/jcodagnone/rideloc/location"
	"github.com/jcodagnone/rideloc/spatial"
)

type Server struct {
	resolver    *location.Resolver
	store       credentials.Store
	diagnostics *location.RecordingSink
	sessions    *Sessions
}

// NewServer wires the API. store and diagnostics may be nil, which disables
// the endpoints that need them.
func NewServer(resolver *location.Resolver, store credentials.Store, diagnostics *location.RecordingSink, sessions *Sessions) *Server {
	if sessions == nil {
		sessions = NewSessions(location.ResolverFunc(resolver), DefaultSessionIdle)
	}

	return &Server{
		resolver:    resolver,
		store:       store,
		diagnostics: diagnostics,
		sessions:    sessions,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/api/search", s.search)
	r.GET("/api/reverse", s.reverse)
	r.GET("/api/nearby", s.nearby)
	r.POST("/api/sessions/:id/query", s.postQuery)
	r.GET("/api/sessions/:id/results", s.getResults)
	r.GET("/api/providers", s.providers)
	r.GET("/api/diagnostics", s.listDiagnostics)
	r.GET("/api/credentials", s.listCredentials)
	r.PUT("/api/credentials/:key", s.putCredential)
	r.DELETE("/api/credentials/:key", s.deleteCredential)

	return r
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

// Sessions returns the session table.
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

var errPartialCoordinate = errors.New("lat and lng must be given together")

// optionalCoordinate reads lat/lng query parameters; both absent is nil.
func optionalCoordinate(ctx *gin.Context) (*spatial.Coordinate, error) {
	lat, lng := ctx.Query("lat"), ctx.Query("lng")
	if lat == "" && lng == "" {
		return nil, nil
	}

	if lat == "" || lng == "" {
		return nil, errPartialCoordinate
	}

	c, err := spatial.Parse(lat, lng)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func requiredCoordinate(ctx *gin.Context) (spatial.Coordinate, bool) {
	c, err := optionalCoordinate(ctx)
	if err == nil && c == nil {
		err = errors.New("lat and lng query parameters are required")
	}

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return spatial.Coordinate{}, false
	}

	return *c, true
}

func (s *Server) search(ctx *gin.Context) {
	origin, err := optionalCoordinate(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, s.resolver.Resolve(ctx.Request.Context(), ctx.Query("q"), origin))
}

func (s *Server) reverse(ctx *gin.Context) {
	c, ok := requiredCoordinate(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, s.resolver.ReverseGeocode(ctx.Request.Context(), c))
}

func (s *Server) nearby(ctx *gin.Context) {
	c, ok := requiredCoordinate(ctx)
	if !ok {
		return
	}

	var filter []location.Category

	for _, name := range strings.Split(ctx.Query("category"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			filter = append(filter, location.ParseCategory(name))
		}
	}

	ctx.JSON(http.StatusOK, s.resolver.Nearby(ctx.Request.Context(), c, filter))
}

type queryRequest struct {
	Text   string   `json:"text"`
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Submit bool     `json:"submit"`
}

func (s *Server) postQuery(ctx *gin.Context) {
	var req queryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	var origin *spatial.Coordinate

	if req.Lat != nil || req.Lng != nil {
		if req.Lat == nil || req.Lng == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errPartialCoordinate.Error()})

			return
		}

		c := spatial.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
		if err := c.Validate(); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		origin = &c
	}

	sess := s.sessions.get(ctx.Param("id"))

	var gen uint64
	if req.Submit {
		gen = sess.seq.Submit(req.Text, origin)
	} else {
		gen = sess.seq.OnQueryChanged(req.Text, origin)
	}

	ctx.JSON(http.StatusAccepted, gin.H{"generation": gen})
}

func (s *Server) getResults(ctx *gin.Context) {
	sess, ok := s.sessions.lookup(ctx.Param("id"))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})

		return
	}

	ctx.JSON(http.StatusOK, sess.snapshot())
}

func (s *Server) providers(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.resolver.Providers(ctx.Request.Context()))
}

func (s *Server) listDiagnostics(ctx *gin.Context) {
	if s.diagnostics == nil {
		ctx.JSON(http.StatusOK, []location.Diagnostic{})

		return
	}

	ctx.JSON(http.StatusOK, s.diagnostics.Entries())
}

func (s *Server) credentialKey(ctx *gin.Context) (location.CredentialKey, bool) {
	if s.store == nil {
		ctx.JSON(http.StatusNotImplemented, gin.H{"error": "no credential store configured"})

		return "", false
	}

	key, err := location.ParseCredentialKey(ctx.Param("key"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return "", false
	}

	return key, true
}

func (s *Server) listCredentials(ctx *gin.Context) {
	if s.store == nil {
		ctx.JSON(http.StatusOK, []credentials.Entry{})

		return
	}

	entries, err := s.store.List(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if entries == nil {
		entries = []credentials.Entry{}
	}

	ctx.JSON(http.StatusOK, entries)
}

func (s *Server) putCredential(ctx *gin.Context) {
	key, ok := s.credentialKey(ctx)
	if !ok {
		return
	}

	var body struct {
		Value string `json:"value" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := s.store.Set(ctx.Request.Context(), key, body.Value); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"key": key, "value": credentials.Mask(strings.TrimSpace(body.Value))})
}

func (s *Server) deleteCredential(ctx *gin.Context) {
	key, ok := s.credentialKey(ctx)
	if !ok {
		return
	}

	if err := s.store.Delete(ctx.Request.Context(), key); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Status(http.StatusNoContent)
}
