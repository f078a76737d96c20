package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Extraction
	mux.HandleFunc("/api/extract", s.app.ExtractHandler.ExtractHandler) // POST - synchronous extraction

	// API routes - Uploads
	mux.HandleFunc("/api/uploads/", s.app.UploadHandler.UploadHandler) // PUT /{token}

	// API routes - Jobs
	mux.HandleFunc("/api/jobs/stats", s.app.JobHandler.GetJobStatsHandler)
	mux.HandleFunc("/api/jobs", s.handleJobsRoute)  // GET (list), POST (create)
	mux.HandleFunc("/api/jobs/", s.handleJobRoutes) // Handles /api/jobs/{id} and subpaths

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleJobsRoute routes /api/jobs requests (list and create)
func (s *Server) handleJobsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.JobHandler.ListJobsHandler, s.app.JobHandler.CreateJobHandler)
}

// handleJobRoutes routes job-related requests to the appropriate handler
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method == "POST" {
		if RouteByPathSuffix(w, r, "/api/jobs/", []PathSuffixRouter{
			{Suffix: "/complete-upload", Handler: s.app.JobHandler.CompleteUploadHandler},
			{Suffix: "/cancel", Handler: s.app.JobHandler.CancelJobHandler},
		}) {
			return
		}
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	if r.Method == "GET" {
		// GET /api/jobs/{id}/results
		if strings.HasSuffix(r.URL.Path, "/results") {
			s.app.JobHandler.GetJobResultsHandler(w, r)
			return
		}
		// GET /api/jobs/{id}
		s.app.JobHandler.GetJobHandler(w, r)
		return
	}

	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
