package companies

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-registry/meridian/internal/audit"
	"github.com/meridian-registry/meridian/internal/entity"
)

func newTestHandler(t *testing.T) (*fixture, http.Handler) {
	t.Helper()
	f := newFixture(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.service, audit.NopRecorder{})
	r := chi.NewRouter()
	r.Route("/companies", h.Routes)
	return f, r
}

func doJSON(t *testing.T, h http.Handler, ctx context.Context, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreate(t *testing.T) {
	f, h := newTestHandler(t)

	rec := doJSON(t, h, f.as("admin"), http.MethodPost, "/companies/", CompanyForm{
		BusinessName:   "Acme",
		InvoiceAddress: "1 Main St",
		City:           "Springfield",
		PostalCode:     "12345",
		Nation:         "US",
		VATNumber:      "US123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var created Company
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, int64(1), created.EntityVersion)
	require.Greater(t, created.ID, int64(0))
	require.Equal(t, "Acme", created.BusinessName)
}

func TestHandlerCreateDuplicate(t *testing.T) {
	f, h := newTestHandler(t)
	form := CompanyForm{
		BusinessName:   "Acme",
		InvoiceAddress: "1 Main St",
		City:           "Springfield",
		PostalCode:     "12345",
		Nation:         "US",
		VATNumber:      "US123",
	}

	rec := doJSON(t, h, f.as("admin"), http.MethodPost, "/companies/", form)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, f.as("admin"), http.MethodPost, "/companies/", form)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandlerCreateValidationFailure(t *testing.T) {
	f, h := newTestHandler(t)

	rec := doJSON(t, h, f.as("admin"), http.MethodPost, "/companies/", CompanyForm{
		BusinessName:   "<script>alert('x')</script>",
		InvoiceAddress: "1 Main St",
		City:           "Springfield",
		PostalCode:     "12345",
		Nation:         "US",
		VATNumber:      "US123",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Error  string `json:"error"`
		Fields []struct {
			Field  string `json:"field"`
			Reason string `json:"reason"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "validation failed", body.Error)
	require.NotEmpty(t, body.Fields)
	require.Equal(t, "business_name", body.Fields[0].Field)
}

func TestHandlerUpdateStaleVersion(t *testing.T) {
	f, h := newTestHandler(t)
	ctx := f.as("admin")

	saved, err := f.service.Save(ctx, sampleCompany(0))
	require.NoError(t, err)
	saved.BusinessName = "first edit"
	_, err = f.service.Update(ctx, saved)
	require.NoError(t, err)

	rec := doJSON(t, h, ctx, http.MethodPut, "/companies/", CompanyForm{
		ID:             saved.ID,
		EntityVersion:  1,
		BusinessName:   "second edit",
		InvoiceAddress: saved.InvoiceAddress,
		City:           saved.City,
		PostalCode:     saved.PostalCode,
		Nation:         saved.Nation,
		VATNumber:      saved.VATNumber,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "version conflict")
}

func TestHandlerViewerCannotMutate(t *testing.T) {
	f, h := newTestHandler(t)

	rec := doJSON(t, h, f.as("viewer"), http.MethodPost, "/companies/", CompanyForm{
		BusinessName:   "Acme",
		InvoiceAddress: "1 Main St",
		City:           "Springfield",
		PostalCode:     "12345",
		Nation:         "US",
		VATNumber:      "US123",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerNoActor(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doJSON(t, h, context.Background(), http.MethodGet, "/companies/", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerGetMissing(t *testing.T) {
	f, h := newTestHandler(t)

	rec := doJSON(t, h, f.as("admin"), http.MethodGet, "/companies/9999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerGetBadID(t *testing.T) {
	f, h := newTestHandler(t)

	rec := doJSON(t, h, f.as("admin"), http.MethodGet, "/companies/not-a-number", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerListFilterAndPaging(t *testing.T) {
	f, h := newTestHandler(t)
	ctx := f.as("admin")

	for i := 0; i < 10; i++ {
		_, err := f.service.Save(ctx, sampleCompany(i))
		require.NoError(t, err)
	}

	rec := doJSON(t, h, ctx, http.MethodGet, "/companies/?size=7&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page entity.Page[*Company]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Results, 3)
	require.Equal(t, 2, page.CurrentPage)
	require.Equal(t, 1, page.NextPage)
	require.Equal(t, int64(10), page.Total)

	rec = doJSON(t, h, ctx, http.MethodGet, "/companies/?filter="+
		"business_name%3DexampleName3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Results, 1)
	require.Equal(t, "exampleName3", page.Results[0].BusinessName)
}

func TestHandlerCount(t *testing.T) {
	f, h := newTestHandler(t)
	ctx := f.as("admin")

	for i := 0; i < 3; i++ {
		_, err := f.service.Save(ctx, sampleCompany(i))
		require.NoError(t, err)
	}

	rec := doJSON(t, h, ctx, http.MethodGet, "/companies/count", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(3), body["total"])
}

func TestHandlerDelete(t *testing.T) {
	f, h := newTestHandler(t)
	ctx := f.as("admin")

	saved, err := f.service.Save(ctx, sampleCompany(0))
	require.NoError(t, err)

	rec := doJSON(t, h, ctx, http.MethodDelete, fmt.Sprintf("/companies/%d", saved.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, ctx, http.MethodGet, fmt.Sprintf("/companies/%d", saved.ID), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
