package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/http/apierr"
	"github.com/tuanvumaihuynh/medsupply/internal/http/middleware"
	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/upload"
)

// HeaderUserID carries the id of the authenticated caller, set by the mediator.
const HeaderUserID = middleware.HeaderUserID

const (
	maxJSONBodyBytes = 1 << 20
	// multipartOverhead leaves room for the form fields and boundaries around
	// the uploaded file.
	multipartOverhead = 1 << 20
)

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func handle(logger *slog.Logger, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			apierr.Write(logger, w, r, err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var (
		typeErr  *json.UnmarshalTypeError
		maxErr   *http.MaxBytesError
		syntaxEr *json.SyntaxError
	)
	switch {
	case errors.Is(err, io.EOF):
		return apperr.InvalidBodyErr.WithMsg("el cuerpo de la solicitud está vacío")
	case errors.As(err, &typeErr):
		return apperr.InvalidBodyErr.WithMsg(fmt.Sprintf("%s: tipo inválido", typeErr.Field)).WrapParent(err)
	case errors.As(err, &maxErr):
		return apperr.InvalidBodyErr.WithMsg("el cuerpo de la solicitud es demasiado grande").WrapParent(err)
	case errors.As(err, &syntaxEr):
		return apperr.InvalidBodyErr.WithMsg("JSON mal formado").WrapParent(err)
	default:
		return apperr.InvalidBodyErr.WithMsg(err.Error()).WrapParent(err)
	}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id uuid.UUID
	if err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	}); err != nil {
		return uuid.Nil, apperr.InvalidParamErr.WithMsg(fmt.Sprintf("%s: must be a valid UUID", name)).WrapParent(err)
	}
	return id, nil
}

// query binds optional query parameters: each dst must be a pointer to a
// pointer field, left nil when the parameter is absent.
type query map[string]any

func (q query) bind(r *http.Request) error {
	values := r.URL.Query()
	for name, dst := range q {
		if err := runtime.BindQueryParameter("form", true, false, name, values, dst); err != nil {
			return apperr.InvalidParamErr.WithMsg(fmt.Sprintf("%s: valor inválido", name)).WrapParent(err)
		}
	}
	return nil
}

// actor returns the caller id forwarded by the mediator, if any.
func actor(r *http.Request) *string {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return nil
	}
	return &id
}

// readUpload parses a multipart request and checks its file part against policy.
func readUpload(w http.ResponseWriter, r *http.Request, policy upload.Policy, field string) (upload.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, policy.MaxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(policy.MaxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return upload.File{}, apperr.ArchivoDemasiadoGrande
		}
		return upload.File{}, apperr.InvalidBodyErr.WithMsg("se esperaba multipart/form-data").WrapParent(err)
	}

	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return upload.File{}, apperr.ArchivoRequerido
	}
	if err != nil {
		return upload.File{}, apperr.InvalidBodyErr.WrapParent(err)
	}
	defer f.Close()

	return policy.Read(header.Filename, f)
}

// formDate parses an optional YYYY-MM-DD form value.
func formDate(r *http.Request, field string) (*model.Date, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil, nil
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return nil, apperr.ValidationErr.WithMsg(field + ": must have the format YYYY-MM-DD").WrapParent(err)
	}
	return &d, nil
}
