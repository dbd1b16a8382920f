package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/court-session-api/config"
	"github.com/linesmerrill/court-session-api/evidence"
	"github.com/linesmerrill/court-session-api/models"
)

const (
	// uploadField is the multipart field evidence files are sent under
	uploadField = "files"
	// maxUploadRequest bounds a whole multipart upload
	maxUploadRequest = 5 * evidence.MaxUploadSize
	// defaultSearchResults is used when a search names no k
	defaultSearchResults = 5
)

// Evidence exported for testing purposes
type Evidence struct {
	Service *evidence.Service
}

// UploadEvidenceHandler stores one or more multipart evidence files
func (e Evidence) UploadEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadRequest)
	if err := r.ParseMultipartForm(evidence.MaxUploadSize); err != nil {
		config.ErrorStatus("failed to parse multipart upload", http.StatusBadRequest, w, err)
		return
	}
	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		config.ErrorStatus(fmt.Sprintf("no files found under %q", uploadField), http.StatusBadRequest, w, nil)
		return
	}

	stored := make([]models.EvidenceFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			config.ErrorStatus("failed to open upload", http.StatusBadRequest, w, err)
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, evidence.MaxUploadSize+1))
		_ = f.Close()
		if err != nil {
			config.ErrorStatus("failed to read upload", http.StatusBadRequest, w, err)
			return
		}
		file, err := e.Service.Add(r.Context(), h.Filename, data)
		if err != nil {
			writeError(fmt.Sprintf("failed to store %s", h.Filename), w, err)
			return
		}
		stored = append(stored, file)
	}

	writeJSON(w, http.StatusCreated, models.EvidenceUploadResponse{
		Message: fmt.Sprintf("Successfully processed %d evidence file(s)", len(stored)),
		Files:   stored,
	})
}

// EvidenceListHandler lists stored evidence
func (e Evidence) EvidenceListHandler(w http.ResponseWriter, r *http.Request) {
	files, err := e.Service.List()
	if err != nil {
		writeError("failed to list evidence", w, err)
		return
	}
	if files == nil {
		files = []models.EvidenceFile{}
	}
	writeJSON(w, http.StatusOK, models.EvidenceListResponse{Files: files, Count: len(files)})
}

// DownloadEvidenceHandler returns an evidence file as an attachment
func (e Evidence) DownloadEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	file, data, err := e.Service.Get(mux.Vars(r)["label"])
	if err != nil {
		writeError("failed to get evidence", w, err)
		return
	}
	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Label}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteEvidenceHandler removes an evidence file and its search passages
func (e Evidence) DeleteEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	label := mux.Vars(r)["label"]
	if err := e.Service.Delete(label); err != nil {
		writeError("failed to delete evidence", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: fmt.Sprintf("Deleted %s", label)})
}

// SearchEvidenceHandler returns the passages most relevant to a query
func (e Evidence) SearchEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	var req models.EvidenceSearchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError("failed to decode request body", w, err)
		return
	}
	if req.K == 0 {
		req.K = defaultSearchResults
	}
	results, err := e.Service.Search(r.Context(), req.Query, req.K)
	if err != nil {
		writeError("failed to search evidence", w, err)
		return
	}
	if results == nil {
		results = []models.EvidenceResult{}
	}
	writeJSON(w, http.StatusOK, models.EvidenceSearchResponse{Results: results})
}
