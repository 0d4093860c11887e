package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/scopegen/internal/document"
)

// maxContentLength caps text submissions.
const maxContentLength = 200_000

// maxUploadBytes caps file uploads read into memory.
const maxUploadBytes = 20 << 20 // 20MB

// TextDocumentRequest is the JSON body for text submissions.
type TextDocumentRequest struct {
	SourceType string             `json:"source_type"`
	Content    string             `json:"content"`
	Metadata   *document.Metadata `json:"metadata,omitempty"`
}

// ClarificationAnswerRequest is the JSON body for clarification
// responses.
type ClarificationAnswerRequest struct {
	Answer string `json:"answer"`
}

// ClarificationListResponse wraps a document's clarifications.
type ClarificationListResponse struct {
	DocID          uuid.UUID                 `json:"doc_id"`
	Clarifications []*document.Clarification `json:"clarifications"`
}

// ModuleListResponse wraps a document's module list.
type ModuleListResponse struct {
	DocID   uuid.UUID                 `json:"doc_id"`
	Modules []document.ModuleListItem `json:"modules"`
}

// ScopePreviewRequest is the JSON body for scope previews.
type ScopePreviewRequest struct {
	Content string `json:"content"`
}

// handleCreateDocument accepts either a multipart file upload or a
// JSON text submission on the same route.
func (s *Server) handleCreateDocument(c echo.Context) error {
	if file, err := c.FormFile("file"); err == nil && file != nil {
		return s.createFromFile(c, file.Filename)
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		return s.createFromText(c)
	}
	return echo.NewHTTPError(http.StatusUnsupportedMediaType, "Unsupported media type or empty payload")
}

func (s *Server) createFromFile(c echo.Context, filename string) error {
	sourceType := document.SourceType(c.FormValue("source_type"))
	if sourceType == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "source_type is required for file uploads")
	}
	if !document.ValidSourceType(sourceType) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("invalid source_type %q", sourceType))
	}

	var meta *document.Metadata
	if raw := c.FormValue("metadata"); raw != "" {
		meta = &document.Metadata{}
		if err := json.Unmarshal([]byte(raw), meta); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "metadata must be valid JSON")
		}
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file part is missing")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	if len(data) > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "uploaded file too large")
	}

	result, err := s.service.SubmitFile(c.Request().Context(), sourceType, file.Filename, data, meta)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusAccepted, result)
}

func (s *Server) createFromText(c echo.Context) error {
	var req TextDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid request payload")
	}

	sourceType := document.SourceType(req.SourceType)
	switch {
	case req.Content == "":
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "content is required")
	case len(req.Content) > maxContentLength:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "content exceeds maximum length")
	case sourceType == document.SourceUploadedFile:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Use multipart upload for files")
	case !document.ValidSourceType(sourceType):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("invalid source_type %q", req.SourceType))
	}

	result, err := s.service.SubmitText(c.Request().Context(), sourceType, req.Content, req.Metadata)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusAccepted, result)
}

func (s *Server) handleStatus(c echo.Context) error {
	id, err := parseDocID(c.Param("id"))
	if err != nil {
		return err
	}
	info, err := s.service.Status(id)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleListClarifications(c echo.Context) error {
	id, err := parseDocID(c.Param("id"))
	if err != nil {
		return err
	}
	clarifications, err := s.service.Clarifications(id)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, ClarificationListResponse{
		DocID:          id,
		Clarifications: clarifications,
	})
}

func (s *Server) handleAnswerClarification(c echo.Context) error {
	id, err := parseDocID(c.Param("id"))
	if err != nil {
		return err
	}
	clarificationID, err := uuid.Parse(c.Param("clarification_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid clarification id")
	}

	var req ClarificationAnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid request payload")
	}
	if strings.TrimSpace(req.Answer) == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "answer is required")
	}

	if err := s.service.AnswerClarification(c.Request().Context(), id, clarificationID, req.Answer); err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"clarification_id": clarificationID.String(),
		"status":           "answered",
		"message":          "Thanks! Processing will resume shortly.",
	})
}

// handleCancelColon serves the POST /v1/documents/{id}:cancel form,
// where the id and verb arrive as one path segment.
func (s *Server) handleCancelColon(c echo.Context) error {
	raw := c.Param("id")
	id, ok := strings.CutSuffix(raw, ":cancel")
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown document action")
	}
	return s.cancel(c, id)
}

func (s *Server) handleCancel(c echo.Context) error {
	return s.cancel(c, c.Param("id"))
}

func (s *Server) cancel(c echo.Context, rawID string) error {
	id, err := parseDocID(rawID)
	if err != nil {
		return err
	}
	if err := s.service.Cancel(id); err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"doc_id":  id.String(),
		"status":  "cancelled",
		"message": "Document cancelled by user.",
	})
}

func (s *Server) handleModules(c echo.Context) error {
	id, err := parseDocID(c.Param("id"))
	if err != nil {
		return err
	}
	modules, err := s.service.Modules(id)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, ModuleListResponse{DocID: id, Modules: modules})
}

func (s *Server) handleScope(c echo.Context) error {
	id, err := parseDocID(c.Param("id"))
	if err != nil {
		return err
	}
	doc, err := s.service.Scope(id)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (s *Server) handleScopeExcel(c echo.Context) error {
	id, err := parseDocID(c.Param("id"))
	if err != nil {
		return err
	}
	data, err := s.service.ExportExcel(id)
	if err != nil {
		return s.mapError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="scope-%s.xlsx"`, id))
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (s *Server) handleScopePDF(c echo.Context) error {
	id, err := parseDocID(c.Param("id"))
	if err != nil {
		return err
	}
	data, err := s.service.ExportPDF(id)
	if err != nil {
		return s.mapError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="scope-%s.pdf"`, id))
	return c.Blob(http.StatusOK, "application/pdf", data)
}

func (s *Server) handleScopePreview(c echo.Context) error {
	var req ScopePreviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid request payload")
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Content cannot be empty.")
	}
	doc := s.service.Preview(req.Content)
	return c.JSON(http.StatusOK, doc)
}

func parseDocID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid document id")
	}
	return id, nil
}

// mapError translates service sentinel errors into HTTP errors.
func (s *Server) mapError(err error) error {
	switch {
	case errors.Is(err, document.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Document not found")
	case errors.Is(err, document.ErrScopeNotAvailable):
		return echo.NewHTTPError(http.StatusNotFound, "Scope not available for this document")
	case errors.Is(err, document.ErrClarification):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
