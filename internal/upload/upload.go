// Package upload checks files received from clients before they are stored.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
)

// File is an accepted upload held in memory.
type File struct {
	Name        string
	Ext         string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 {
	return int64(len(f.Data))
}

func (f File) Reader() io.Reader {
	return bytes.NewReader(f.Data)
}

// Policy lists the accepted extensions, each with the content types its
// bytes may sniff as.
type Policy struct {
	Extensions map[string][]string
	MaxBytes   int64
}

// CertificacionPolicy accepts PDF and image certificates.
func CertificacionPolicy(maxBytes int64) Policy {
	return Policy{
		Extensions: map[string][]string{
			".pdf":  {"application/pdf"},
			".jpg":  {"image/jpeg"},
			".jpeg": {"image/jpeg"},
			".png":  {"image/png"},
		},
		MaxBytes: maxBytes,
	}
}

// CSVPolicy accepts CSV files. A CSV with ragged rows sniffs as plain text.
func CSVPolicy(maxBytes int64) Policy {
	return Policy{
		Extensions: map[string][]string{
			".csv": {"text/csv", "text/plain"},
		},
		MaxBytes: maxBytes,
	}
}

// Read consumes r and returns the file when its name, size and content
// satisfy the policy.
func (p Policy) Read(name string, r io.Reader) (File, error) {
	name = filepath.Base(strings.TrimSpace(name))
	ext := strings.ToLower(filepath.Ext(name))
	allowed, ok := p.Extensions[ext]
	if !ok {
		return File{}, apperr.ArchivoTipoInvalido.WithMsg(
			fmt.Sprintf("tipo de archivo no permitido, use: %s", strings.Join(p.extensions(), ", ")))
	}

	data, err := io.ReadAll(io.LimitReader(r, p.MaxBytes+1))
	if err != nil {
		return File{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return File{}, apperr.ArchivoRequerido
	}
	if int64(len(data)) > p.MaxBytes {
		return File{}, apperr.ArchivoDemasiadoGrande
	}

	detected := mimetype.Detect(data)
	if !isAny(detected, allowed) {
		return File{}, apperr.ArchivoTipoInvalido.WithMsg(
			fmt.Sprintf("el contenido (%s) no corresponde a la extensión %s", detected.String(), ext))
	}

	return File{
		Name:        name,
		Ext:         ext,
		ContentType: allowed[0],
		Data:        data,
	}, nil
}

func isAny(m *mimetype.MIME, types []string) bool {
	for _, t := range types {
		if m.Is(t) {
			return true
		}
	}
	return false
}

func (p Policy) extensions() []string {
	exts := make([]string, 0, len(p.Extensions))
	for ext := range p.Extensions {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(exts)
	return exts
}
