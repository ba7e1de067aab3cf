package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloudpillar/cloudpillar/creds"
	"github.com/cloudpillar/cloudpillar/storage"
	"github.com/cloudpillar/cloudpillar/types"
)

// ownerHeader carries the authenticated user identity, set by the proxy
// in front of this service.
const ownerHeader = "X-User-ID"

type ownerKey struct{}

// ScanService is the orchestration surface the handlers need.
type ScanService interface {
	Start(ctx context.Context, ownerID, name, credentialID string, regions []string) (*types.Scan, error)
	Get(ctx context.Context, ownerID, scanID string) (*types.Scan, error)
	List(ctx context.Context, ownerID string) ([]*types.Scan, error)
	Delete(ctx context.Context, ownerID, scanID string) error
}

type createScanRequest struct {
	Name         string   `json:"name"`
	CredentialID string   `json:"credential_id"`
	Regions      []string `json:"regions,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// requireOwner rejects requests without an authenticated identity.
func (s *Server) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get(ownerHeader)
		if owner == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing " + ownerHeader + " header"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
	})
}

func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey{}).(string)
	return owner
}

func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var req createScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	scan, err := s.scans.Start(r.Context(), ownerFrom(r), req.Name, req.CredentialID, req.Regions)
	if err != nil {
		if errors.Is(err, creds.ErrUnknownCredential) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		if errors.Is(err, types.ErrInvalidScan) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, scan)
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	scans, err := s.scans.List(r.Context(), ownerFrom(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	views := make([]*types.Scan, 0, len(scans))
	for _, scan := range scans {
		views = append(views, publicView(scan))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	scan, err := s.scans.Get(r.Context(), ownerFrom(r), chi.URLParam(r, "scanID"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "scan not found"})
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, publicView(scan))
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	err := s.scans.Delete(r.Context(), ownerFrom(r), chi.URLParam(r, "scanID"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "scan not found"})
			return
		}
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// publicView hides interim region results: clients see results and the
// recommendation only once the scan is completed. Progress and
// regions_scanned carry the polling story until then.
func publicView(scan *types.Scan) *types.Scan {
	if scan.Status == types.StatusCompleted {
		return scan
	}
	view := *scan
	view.Results = nil
	view.Recommendation = ""
	return &view
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WithContext(r.Context()).Error().
		Err(err).
		Str("path", r.URL.Path).
		Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
