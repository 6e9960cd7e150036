package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaxxstorm/loansync/internal/apiversion"
)

// handleVersionRequired answers requests to /api/... that never named a
// version, e.g. a client hitting the bare prefix directly.
func (s *Server) handleVersionRequired(w http.ResponseWriter, r *http.Request) {
	s.writeVersionError(w, r, "version_required")
}

// handleUnsupportedVersion answers /v{version}/... requests for a
// version this build doesn't serve. A segment naming a served version
// (e.g. v1) with no route behind it falls through to a plain 404; any
// other segment (e.g. v7) gets the version error.
func (s *Server) handleUnsupportedVersion(w http.ResponseWriter, r *http.Request) {
	// The route pattern is /v{version}, so the param holds only the part
	// after the "v".
	version := "v" + chi.URLParam(r, "version")
	if apiversion.IsSupported(version) {
		http.NotFound(w, r)
		return
	}
	s.writeVersionError(w, r, "unsupported_version")
}

func (s *Server) writeVersionError(w http.ResponseWriter, r *http.Request, code string) {
	requestID := r.Header.Get("X-Request-ID")
	s.writeErrorResponse(w, http.StatusBadRequest, code, apiversion.SupportedVersions(), requestID)
}
