// Package api exposes the version engine over HTTP: original upload,
// version recording, recombination (reconstruction), and deletion.
package api

import (
	"errors"
	"image"
	"image/png"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/franz/imagevault/internal/journal"
	"github.com/franz/imagevault/internal/storage"
	"github.com/franz/imagevault/internal/util"
	"github.com/franz/imagevault/internal/versioning"
)

// maxUploadBytes bounds multipart memory parsing; larger parts spill to
// temp files.
const maxUploadBytes = 64 << 20

// Handler holds API route handlers.
type Handler struct {
	engine  *versioning.Engine
	store   *storage.Store
	journal *journal.Journal // optional; nil disables history logging
}

// NewHandler creates a new Handler.
func NewHandler(engine *versioning.Engine, store *storage.Store, j *journal.Journal) *Handler {
	return &Handler{engine: engine, store: store, journal: j}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, util.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, util.ErrInvalidArgument), errors.Is(err, util.ErrFormat):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		util.ErrorLog("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// UploadImage handles POST /api/images: stores the multipart "image" part
// as a new original.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("multipart form required"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("image part is required"))
		return
	}
	defer file.Close()

	filename := r.FormValue("filename")
	if filename == "" {
		filename = header.Filename
	}
	if filename == "" || strings.ContainsAny(filename, "/\\") {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid filename"))
		return
	}

	path, err := h.store.SaveOriginal(file, filename)
	if err != nil {
		h.fail(w, err)
		return
	}
	util.InfoLog("stored original %s", path)
	writeJSON(w, http.StatusCreated, uploadResponse{Path: path})
}

// ListImages handles GET /api/images.
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.ListOriginals()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Images: names})
}

// RecordVersion handles POST /api/images/{stem}/versions: the multipart
// "edited" part plus from/to/mode fields record a new version edge against
// the collection's original.
func (h *Handler) RecordVersion(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("multipart form required"))
		return
	}

	from, _ := strconv.Atoi(r.FormValue("from_version"))
	to, _ := strconv.Atoi(r.FormValue("to_version"))
	req := recordRequest{
		Stem:        chi.URLParam(r, "stem"),
		FromVersion: from,
		ToVersion:   to,
		Mode:        r.FormValue("mode"),
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	file, _, err := r.FormFile("edited")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("edited part is required"))
		return
	}
	defer file.Close()

	originalPath, err := h.store.FindOriginal(req.Stem)
	if err != nil {
		h.fail(w, err)
		return
	}

	// Stage the edited raster so the engine works from paths like every
	// other caller.
	tmp, err := os.CreateTemp("", "ivc-edited-*")
	if err != nil {
		h.fail(w, err)
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.ReadFrom(file); err != nil {
		tmp.Close()
		h.fail(w, err)
		return
	}
	tmp.Close()

	var resp recordResponse
	mode := req.Mode
	if mode == "" {
		mode = "transform"
	}
	if mode == "pixeldiff" {
		arts, err := h.engine.RecordDiffVersion(req.Stem, req.FromVersion, req.ToVersion, originalPath, tmp.Name())
		if err != nil {
			h.fail(w, err)
			return
		}
		resp = recordResponse{MatrixPath: arts.MatrixPath}
	} else {
		arts, err := h.engine.RecordTransformVersion(req.Stem, req.FromVersion, req.ToVersion, originalPath, tmp.Name())
		if err != nil {
			h.fail(w, err)
			return
		}
		resp = recordResponse{
			MatrixPath:           arts.MatrixPath,
			RGBMetricsPath:       arts.RGBMetricsPath,
			IntensityMetricsPath: arts.IntensityMetricsPath,
		}
	}

	if h.journal != nil {
		if err := h.journal.Add(req.Stem, req.FromVersion, req.ToVersion, mode, resp.MatrixPath); err != nil {
			util.WarnLog("journal write failed: %v", err)
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Recombine handles GET /api/images/{stem}/recombine?edges=1->2,2->3 and
// streams the reconstructed raster as PNG. Edges name entries of the
// collection's matrices mapping; a single edge may be either artifact kind,
// a chain must be all transforms.
func (h *Handler) Recombine(w http.ResponseWriter, r *http.Request) {
	stem := chi.URLParam(r, "stem")
	originalPath, err := h.store.FindOriginal(stem)
	if err != nil {
		h.fail(w, err)
		return
	}

	doc, err := h.engine.Index().Load(false)
	if err != nil {
		h.fail(w, err)
		return
	}
	entry := doc.Images[stem]
	if entry == nil {
		writeJSON(w, http.StatusNotFound, errorBody("unknown collection "+stem))
		return
	}

	var paths []string
	for _, key := range splitEdges(r.URL.Query().Get("edges")) {
		p, ok := entry.Matrices[key]
		if !ok {
			writeJSON(w, http.StatusNotFound, errorBody("unknown edge "+key))
			return
		}
		paths = append(paths, p)
	}

	result, err := reconstruct(originalPath, paths)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, result); err != nil {
		util.ErrorLog("png encode failed: %v", err)
	}
}

func splitEdges(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DeleteImage handles DELETE /api/images/{stem}: removes the original, the
// collection's artifact directory, and the index entry.
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	stem := chi.URLParam(r, "stem")

	if err := h.store.RemoveOriginal(stem); err != nil {
		h.fail(w, err)
		return
	}
	if err := os.RemoveAll(h.engine.Layout().CollectionDir(stem)); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.engine.Index().Remove(stem); err != nil {
		h.fail(w, err)
		return
	}
	util.InfoLog("deleted collection %s", stem)
	w.WriteHeader(http.StatusNoContent)
}

// GetIndex handles GET /api/index.
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	doc, err := h.engine.Index().Load(false)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// History handles GET /api/images/{stem}/history from the journal.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusOK, []journal.Record{})
		return
	}
	recs, err := h.journal.History(chi.URLParam(r, "stem"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if recs == nil {
		recs = []journal.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// reconstruct picks the single-edge or chain path. A single edge may be
// either artifact kind; chains go through transform composition.
func reconstruct(originalPath string, paths []string) (image.Image, error) {
	if len(paths) == 1 {
		return versioning.Reconstruct(originalPath, paths[0])
	}
	return versioning.ReconstructChain(originalPath, paths)
}
