package http

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tripfolio/api/internal/service"
)

func TestSplitCSVParam(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{",,", nil},
		{"flight", []string{"flight"}},
		{"flight, hotel ,activity", []string{"flight", "hotel", "activity"}},
	}
	for _, tc := range cases {
		if got := splitCSVParam(tc.raw); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitCSVParam(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestWriteTripErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrTripValidation, http.StatusBadRequest},
		{service.ErrActivityValidation, http.StatusBadRequest},
		{service.ErrTripNotFound, http.StatusNotFound},
		{service.ErrActivityNotFound, http.StatusNotFound},
		{service.ErrNoUsableDocuments, http.StatusUnprocessableEntity},
		{service.ErrTripConflict, http.StatusConflict},
		{service.ErrShareTokenInvalid, http.StatusUnauthorized},
		{errors.New("database exploded"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/trips/x", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := writeTripError(c, tc.err); err != nil {
			t.Fatalf("writeTripError returned error: %v", err)
		}
		if rec.Code != tc.want {
			t.Fatalf("expected status %d for %v, got %d", tc.want, tc.err, rec.Code)
		}
	}
}

func TestWriteTripErrorWrappedErrors(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trips", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	wrapped := errors.Join(errors.New("context"), service.ErrTripConflict)
	if err := writeTripError(c, wrapped); err != nil {
		t.Fatalf("writeTripError returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for wrapped conflict, got %d", rec.Code)
	}
}

func TestReadDocuments(t *testing.T) {
	e := echo.New()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("documents", "pass.txt")
	if err != nil {
		t.Fatalf("CreateFormFile returned error: %v", err)
	}
	if _, err := part.Write([]byte("boarding pass text")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.WriteField("type_hint", "boarding-pass"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trips", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	docs, err := readDocuments(c)
	if err != nil {
		t.Fatalf("readDocuments returned error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}
	if docs[0].FileName != "pass.txt" {
		t.Fatalf("unexpected file name %q", docs[0].FileName)
	}
	if string(docs[0].Data) != "boarding pass text" {
		t.Fatalf("unexpected data %q", docs[0].Data)
	}
	if string(docs[0].TypeHint) != "boarding-pass" {
		t.Fatalf("unexpected type hint %q", docs[0].TypeHint)
	}
}

func TestReadDocumentsRequiresFiles(t *testing.T) {
	e := echo.New()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("type_hint", "auto"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trips", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if _, err := readDocuments(c); err == nil {
		t.Fatal("expected an error when no documents are attached")
	}
}
