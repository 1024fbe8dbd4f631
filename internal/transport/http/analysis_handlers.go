package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"veriscan/internal/domain"
	"veriscan/internal/dto"
	obsmw "veriscan/internal/observability/middleware"
	"veriscan/internal/service"
)

const maxUploadBytes = 32 << 20

type AnalysisHandler struct {
	svc service.AnalysisService
}

func NewAnalysisHandler(svc service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	ref, err := formDocument(r, "refFile", "refText")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tgt, err := formDocument(r, "tgtFile", "tgtText")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ref.Present() || !tgt.Present() {
		writeError(w, http.StatusBadRequest, "Reference and target documents are required")
		return
	}

	res, err := h.svc.RunSimilarity(r.Context(), ref, tgt, sess.IdentityID)
	if err != nil {
		h.fail(w, r, err, "Similarity analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AnalysisHandler) WebScan(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	doc, ok2 := h.singleDocument(w, r)
	if !ok2 {
		return
	}

	res, err := h.svc.RunWebScan(r.Context(), doc, sess.IdentityID)
	if err != nil {
		h.fail(w, r, err, "Web scan failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AnalysisHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	doc, ok2 := h.singleDocument(w, r)
	if !ok2 {
		return
	}

	res, err := h.svc.RunSummary(r.Context(), doc, sess.IdentityID)
	if err != nil {
		h.fail(w, r, err, "Summarization failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	entries, err := h.svc.History(r.Context(), sess.IdentityID)
	if err != nil {
		slog.Error("history listing failed", "error", err,
			"request_id", obsmw.RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// fail maps validation errors to 400 and collapses everything else into the
// operation's generic message, logging the detail server-side only.
func (h *AnalysisHandler) fail(w http.ResponseWriter, r *http.Request, err error, generic string) {
	if errors.Is(err, domain.ErrMissingInput) {
		writeError(w, http.StatusBadRequest, "Document content is required")
		return
	}
	slog.Error("analysis failed", "error", err, "path", r.URL.Path,
		"request_id", obsmw.RequestIDFromContext(r.Context()))
	writeError(w, http.StatusInternalServerError, generic)
}

func (h *AnalysisHandler) singleDocument(w http.ResponseWriter, r *http.Request) (dto.DocumentInput, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return dto.DocumentInput{}, false
	}
	doc, err := formDocument(r, "document", "text")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return dto.DocumentInput{}, false
	}
	if !doc.Present() {
		writeError(w, http.StatusBadRequest, "Document is required")
		return dto.DocumentInput{}, false
	}
	return doc, true
}

// formDocument pulls one logical document out of the multipart form: the file
// part when present, the text field otherwise.
func formDocument(r *http.Request, fileField, textField string) (dto.DocumentInput, error) {
	file, header, err := r.FormFile(fileField)
	if errors.Is(err, http.ErrMissingFile) {
		return dto.DocumentInput{Text: r.FormValue(textField)}, nil
	}
	if err != nil {
		return dto.DocumentInput{}, errors.New("invalid file upload: " + fileField)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return dto.DocumentInput{}, errors.New("failed to read upload: " + fileField)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return dto.DocumentInput{
		Filename: header.Filename,
		MIMEType: mimeType,
		Data:     data,
		Text:     r.FormValue(textField),
	}, nil
}
