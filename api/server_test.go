package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudpillar/cloudpillar/creds"
	"github.com/cloudpillar/cloudpillar/storage"
	"github.com/cloudpillar/cloudpillar/types"
)

type fakeScanService struct {
	scans map[string]*types.Scan

	startErr error
	lastName string
}

func newFakeScanService() *fakeScanService {
	return &fakeScanService{scans: make(map[string]*types.Scan)}
}

func (f *fakeScanService) key(owner, id string) string { return owner + "/" + id }

func (f *fakeScanService) Start(ctx context.Context, ownerID, name, credentialID string, regions []string) (*types.Scan, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.lastName = name
	scan, err := types.NewScan(ownerID, name, credentialID, regions)
	if err != nil {
		return nil, err
	}
	f.scans[f.key(ownerID, scan.ID)] = scan
	return scan, nil
}

func (f *fakeScanService) Get(ctx context.Context, ownerID, scanID string) (*types.Scan, error) {
	scan, ok := f.scans[f.key(ownerID, scanID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return scan, nil
}

func (f *fakeScanService) List(ctx context.Context, ownerID string) ([]*types.Scan, error) {
	var out []*types.Scan
	for _, scan := range f.scans {
		if scan.OwnerID == ownerID {
			out = append(out, scan)
		}
	}
	return out, nil
}

func (f *fakeScanService) Delete(ctx context.Context, ownerID, scanID string) error {
	key := f.key(ownerID, scanID)
	if _, ok := f.scans[key]; !ok {
		return storage.ErrNotFound
	}
	delete(f.scans, key)
	return nil
}

func testRequest(t *testing.T, handler http.Handler, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if owner != "" {
		req.Header.Set(ownerHeader, owner)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateScan(t *testing.T) {
	svc := newFakeScanService()
	router := NewServer(svc).Router()

	rec := testRequest(t, router, http.MethodPost, "/api/v1/scans", "user-1", createScanRequest{
		Name:         "prod audit",
		CredentialID: "cred-1",
		Regions:      []string{"us-east-1"},
	})

	require.Equal(t, http.StatusAccepted, rec.Code)

	var scan types.Scan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scan))
	assert.NotEmpty(t, scan.ID)
	assert.Equal(t, "user-1", scan.OwnerID)
	assert.Equal(t, types.StatusPending, scan.Status)
	assert.Equal(t, 0, scan.Progress)
	assert.Equal(t, "prod audit", svc.lastName)
}

func TestCreateScanValidation(t *testing.T) {
	router := NewServer(newFakeScanService()).Router()

	rec := testRequest(t, router, http.MethodPost, "/api/v1/scans", "user-1", createScanRequest{
		CredentialID: "cred-1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateScanUnknownCredential(t *testing.T) {
	svc := newFakeScanService()
	svc.startErr = creds.ErrUnknownCredential
	router := NewServer(svc).Router()

	rec := testRequest(t, router, http.MethodPost, "/api/v1/scans", "user-1", createScanRequest{
		Name:         "audit",
		CredentialID: "cred-x",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateScanStoreFailureHidden(t *testing.T) {
	svc := newFakeScanService()
	svc.startErr = errors.New("dynamodb: connection refused to 10.0.3.17:8000")
	router := NewServer(svc).Router()

	rec := testRequest(t, router, http.MethodPost, "/api/v1/scans", "user-1", createScanRequest{
		Name:         "audit",
		CredentialID: "cred-1",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "dynamodb")
	assert.Contains(t, rec.Body.String(), "internal error")
}

func TestCreateScanBadBody(t *testing.T) {
	router := NewServer(newFakeScanService()).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", bytes.NewReader([]byte("{not json")))
	req.Header.Set(ownerHeader, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissingOwnerHeader(t *testing.T) {
	router := NewServer(newFakeScanService()).Router()

	rec := testRequest(t, router, http.MethodGet, "/api/v1/scans", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetScan(t *testing.T) {
	svc := newFakeScanService()
	router := NewServer(svc).Router()

	created, err := svc.Start(context.Background(), "user-1", "audit", "cred-1", nil)
	require.NoError(t, err)

	rec := testRequest(t, router, http.MethodGet, "/api/v1/scans/"+created.ID, "user-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var scan types.Scan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scan))
	assert.Equal(t, created.ID, scan.ID)
}

func TestGetScanHidesInterimResults(t *testing.T) {
	svc := newFakeScanService()
	router := NewServer(svc).Router()

	created, err := svc.Start(context.Background(), "user-1", "audit", "cred-1", nil)
	require.NoError(t, err)

	created.Status = types.StatusRunning
	created.Progress = 50
	created.RegionsScanned = []string{"us-east-1"}
	created.Results = map[string]types.RegionResult{
		"us-east-1": {Region: "us-east-1"},
	}

	rec := testRequest(t, router, http.MethodGet, "/api/v1/scans/"+created.ID, "user-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var scan types.Scan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scan))
	assert.Equal(t, 50, scan.Progress)
	assert.Equal(t, []string{"us-east-1"}, scan.RegionsScanned)
	assert.Empty(t, scan.Results, "interim results must stay hidden")

	created.Status = types.StatusCompleted
	created.Progress = 100

	rec = testRequest(t, router, http.MethodGet, "/api/v1/scans/"+created.ID, "user-1", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scan))
	assert.Len(t, scan.Results, 1)
}

func TestGetScanNotFound(t *testing.T) {
	router := NewServer(newFakeScanService()).Router()

	rec := testRequest(t, router, http.MethodGet, "/api/v1/scans/nope", "user-1", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetScanOtherOwner(t *testing.T) {
	svc := newFakeScanService()
	router := NewServer(svc).Router()

	created, err := svc.Start(context.Background(), "user-1", "audit", "cred-1", nil)
	require.NoError(t, err)

	rec := testRequest(t, router, http.MethodGet, "/api/v1/scans/"+created.ID, "user-2", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListScans(t *testing.T) {
	svc := newFakeScanService()
	router := NewServer(svc).Router()

	_, err := svc.Start(context.Background(), "user-1", "a", "cred-1", nil)
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), "user-2", "b", "cred-1", nil)
	require.NoError(t, err)

	rec := testRequest(t, router, http.MethodGet, "/api/v1/scans", "user-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var scans []*types.Scan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scans))
	require.Len(t, scans, 1)
	assert.Equal(t, "user-1", scans[0].OwnerID)
}

func TestListScansEmpty(t *testing.T) {
	router := NewServer(newFakeScanService()).Router()

	rec := testRequest(t, router, http.MethodGet, "/api/v1/scans", "user-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestDeleteScan(t *testing.T) {
	svc := newFakeScanService()
	router := NewServer(svc).Router()

	created, err := svc.Start(context.Background(), "user-1", "audit", "cred-1", nil)
	require.NoError(t, err)

	rec := testRequest(t, router, http.MethodDelete, "/api/v1/scans/"+created.ID, "user-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = testRequest(t, router, http.MethodDelete, "/api/v1/scans/"+created.ID, "user-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInternalErrorHidden(t *testing.T) {
	failing := &failingService{fakeScanService: newFakeScanService()}
	router := NewServer(failing).Router()

	rec := testRequest(t, router, http.MethodGet, "/api/v1/scans/some-id", "user-1", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal error")
	assert.NotContains(t, rec.Body.String(), "dynamodb")
}

type failingService struct {
	*fakeScanService
}

func (f *failingService) Get(ctx context.Context, ownerID, scanID string) (*types.Scan, error) {
	return nil, errors.New("dynamodb: connection refused")
}

func TestHealthz(t *testing.T) {
	router := NewServer(newFakeScanService()).Router()

	rec := testRequest(t, router, http.MethodGet, "/healthz", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
