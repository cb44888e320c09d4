package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/uxlens/uxlens/internal/ctxkeys"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/service"
	"github.com/uxlens/uxlens/internal/ui"
	"github.com/uxlens/uxlens/internal/validation"
)

// Form uploads allow the document plus the other fields.
var maxAnalysisUpload = validation.DocumentConstraints.MaxSize + 1<<20

type AnalyzeHandler struct {
	analysisService *service.AnalysisService
}

func NewAnalyzeHandler(analysisService *service.AnalysisService) *AnalyzeHandler {
	return &AnalyzeHandler{
		analysisService: analysisService,
	}
}

// Analyze is the JSON API: {type, content, fileName?} in, the report out.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req model.AnalysisRequest
	err := decodeJSON(w, r, &req, maxAnalysisBody)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.analysisService.Analyze(r.Context(), &req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("analysis failed", "type", req.Type, "request_id", ctxkeys.RequestID(r.Context()), "error", err)
		}
		writeError(w, status, clientMessage(err, analysisFailureMessage(err)))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AnalyzeHandler) AnalyzePage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, ui.AnalyzePage(ui.AnalyzePageData{Type: r.URL.Query().Get("type")}))
}

// SubmitForm handles the HTML form: a URL, pasted text, or an uploaded
// CSV/TXT/PDF document.
func (h *AnalyzeHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalysisUpload)
	err := r.ParseMultipartForm(maxAnalysisUpload)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.renderFormError(w, r, http.StatusBadRequest, ui.AnalyzePageData{}, "The upload is too large or malformed. Files may be up to 10 MB.")
		return
	}

	req := &model.AnalysisRequest{
		Type:    r.FormValue("type"),
		Content: r.FormValue("content"),
	}
	form := ui.AnalyzePageData{Type: req.Type}
	if req.Type == model.AnalysisTypeURL {
		form.URL = req.Content
	} else {
		form.Content = req.Content
	}

	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		err = attachDocument(req, file, header)
		if err != nil {
			h.renderFormError(w, r, http.StatusBadRequest, form, err.Error())
			return
		}
	}

	result, err := h.analysisService.Analyze(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("analysis failed", "type", req.Type, "request_id", ctxkeys.RequestID(r.Context()), "error", err)
		}
		h.renderFormError(w, r, status, form, clientMessage(err, analysisFailureMessage(err)))
		return
	}

	ui.Render(w, r, ui.ReportPage(ui.ReportPageData{
		Type:   req.Type,
		Source: reportSource(req),
		Result: result,
	}))
}

// LastReportPage is rendered empty; the browser fills it from localStorage.
func (h *AnalyzeHandler) LastReportPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, ui.LastReportPage())
}

func (h *AnalyzeHandler) renderFormError(w http.ResponseWriter, r *http.Request, status int, form ui.AnalyzePageData, message string) {
	form.Error = message
	profile := ctxkeys.Profile(r.Context())
	if profile != nil {
		slog.Info("analysis form rejected", "user_id", profile.ID, "status", status)
	}
	ui.RenderStatus(w, r, status, ui.AnalyzePage(form))
}

// attachDocument validates an upload and puts it on the request: PDFs as a
// binary attachment, CSV and text inline.
func attachDocument(req *model.AnalysisRequest, file multipart.File, header *multipart.FileHeader) error {
	err := validation.ValidateFile(header, validation.DocumentConstraints)
	if err != nil {
		return err
	}

	contentType, err := validation.DetectContentType(header)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(io.LimitReader(file, validation.DocumentConstraints.MaxSize+1))
	if err != nil {
		return errors.New("could not read the uploaded file")
	}

	req.Type = model.AnalysisTypeFile
	req.FileName = header.Filename

	if contentType == "application/pdf" {
		req.Attachment = &model.Attachment{
			Name:     header.Filename,
			MimeType: contentType,
			Data:     data,
		}
		req.Content = ""
		return nil
	}

	req.Content = string(data)
	return nil
}

func reportSource(req *model.AnalysisRequest) string {
	if req.Type == model.AnalysisTypeURL {
		return req.Content
	}
	if req.FileName != "" {
		return req.FileName
	}
	return "Pasted text"
}

func analysisFailureMessage(err error) string {
	if errors.Is(err, service.ErrUnparseableResult) {
		return "The analysis came back in an unexpected format. Please try again."
	}
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return "The analysis took too long. Please try again."
	}
	return "The analysis failed. Please try again."
}
