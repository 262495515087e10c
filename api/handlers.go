package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/session"
	"github.com/lvillar/pdfmerge/source"
)

type createSessionResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, _ := s.sessions.Create()
	RespondWithJSON(w, http.StatusCreated, createSessionResponse{ID: id})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.Delete(id) {
		RespondWithError(w, NewNotFoundError("session", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	RespondWithJSON(w, http.StatusOK, ws.Files())
}

type rejection struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type uploadResponse struct {
	Files    []session.FileInfo `json:"files"`
	Rejected []rejection        `json:"rejected"`
}

func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondWithError(w, &APIError{
				Status:  http.StatusRequestEntityTooLarge,
				Code:    "TOO_LARGE",
				Message: fmt.Sprintf("upload exceeds %s", source.FormatSize(s.maxUpload)),
			})
			return
		}
		RespondWithError(w, NewBadRequestError("Invalid multipart form", err))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		RespondWithError(w, NewBadRequestError("No files provided", nil))
		return
	}

	uploads := make([]source.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			RespondWithError(w, NewBadRequestError("Failed to read "+fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			RespondWithError(w, NewBadRequestError("Failed to read "+fh.Filename, err))
			return
		}
		uploads = append(uploads, source.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	accepted, rejected := ws.AddFiles(r.Context(), uploads)

	ids := make(map[string]bool, len(accepted))
	for _, f := range accepted {
		ids[f.ID] = true
	}
	resp := uploadResponse{Files: []session.FileInfo{}, Rejected: []rejection{}}
	for _, fi := range ws.Files() {
		if ids[fi.ID] {
			resp.Files = append(resp.Files, fi)
		}
	}
	for _, rj := range rejected {
		s.log.Warn("upload rejected", "file", rj.Name, "err", rj.Err)
		resp.Rejected = append(resp.Rejected, rejection{Name: rj.Name, Message: rj.Message()})
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		RespondWithError(w, NewBadRequestError("Invalid file index", err))
		return
	}
	if _, err := ws.RemoveFile(index); err != nil {
		RespondWithError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, ws.Files())
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, err)
		return
	}
	if err := ws.Reorder(req.From, req.To); err != nil {
		RespondWithError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, ws.Files())
}

type selectionResponse struct {
	ID       string `json:"id"`
	Selected []int  `json:"selected"`
}

type setPagesRequest struct {
	Pages []int `json:"pages"`
}

func (s *Server) handleSetPages(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	id := chi.URLParam(r, "fileID")
	var req setPagesRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, err)
		return
	}
	if err := ws.SetSelectedPages(id, req.Pages); err != nil {
		RespondWithError(w, err)
		return
	}
	pages := req.Pages
	if pages == nil {
		pages = []int{}
	}
	RespondWithJSON(w, http.StatusOK, selectionResponse{ID: id, Selected: pages})
}

type toggleRequest struct {
	Page     *int `json:"page"`
	Selected bool `json:"selected"`
}

func (s *Server) handleTogglePage(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	id := chi.URLParam(r, "fileID")
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, err)
		return
	}
	if req.Page == nil {
		RespondWithError(w, NewBadRequestError("validation failed for field: page", nil))
		return
	}
	pages, err := ws.TogglePage(id, *req.Page, req.Selected)
	if err != nil {
		RespondWithError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, selectionResponse{ID: id, Selected: pages})
}

type previewResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PageCount int    `json:"page_count"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Thumbnail string `json:"thumbnail"`
}

func (s *Server) handlePreviews(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	previews, err := ws.Previews(r.Context())
	if err != nil {
		RespondWithError(w, NewInternalError("Failed to generate previews", err))
		return
	}
	resp := make([]previewResponse, len(previews))
	for i, p := range previews {
		resp[i] = previewResponse{
			ID:        p.ID,
			Name:      p.Name,
			PageCount: p.PageCount,
			Width:     p.Width,
			Height:    p.Height,
			Thumbnail: p.DataURL(),
		}
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

type mergeRequest struct {
	Compression string `json:"compression"`
}

type mergeResponse struct {
	Status      string                    `json:"status"`
	Compression pdfmerge.CompressionLevel `json:"compression"`
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	var req mergeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			RespondWithError(w, err)
			return
		}
	}
	level, err := ws.Compression(req.Compression)
	if err != nil {
		RespondWithError(w, NewBadRequestError("Invalid compression level", err))
		return
	}
	if ws.Len() < 2 {
		RespondWithError(w, NewConflictError("at least two files are required to merge"))
		return
	}

	go func() {
		if _, err := ws.Merge(s.runCtx, level); err != nil {
			s.log.Warn("merge run failed", "err", err)
		}
	}()
	RespondWithJSON(w, http.StatusAccepted, mergeResponse{Status: "started", Compression: level})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	RespondWithJSON(w, http.StatusOK, ws.Progress())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	if ws.Progress().Phase == session.PhaseRunning {
		RespondWithError(w, NewConflictError("a merge is in progress"))
		return
	}
	a, err := ws.Artifact()
	if err != nil {
		RespondWithError(w, err)
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(a.Data)
}
