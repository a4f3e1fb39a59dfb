package paper

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/paper-insights-api/model"
	"github.com/sahilchouksey/paper-insights-api/services"
	"github.com/sahilchouksey/paper-insights-api/utils/pdfvalidation"
	"github.com/sahilchouksey/paper-insights-api/utils/response"
	"github.com/sahilchouksey/paper-insights-api/utils/validation"
	"gorm.io/gorm"
)

// PaperHandler handles paper upload and retrieval requests
type PaperHandler struct {
	db        *gorm.DB
	pipeline  *services.PipelineService
	validator *validation.Validator
}

// NewPaperHandler creates a new paper handler
func NewPaperHandler(db *gorm.DB, pipeline *services.PipelineService) *PaperHandler {
	return &PaperHandler{
		db:        db,
		pipeline:  pipeline,
		validator: validation.NewValidator(),
	}
}

// UploadPaper handles POST /api/v1/papers/upload
// Runs the full pipeline synchronously and returns the paper with
// per-stage statuses. Partial pipeline failures still return 200; the
// statuses tell the client what worked.
func (h *PaperHandler) UploadPaper(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "Missing file upload (expected multipart field 'file')")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to open uploaded file")
	}
	defer file.Close()

	pdfBytes, err := io.ReadAll(file)
	if err != nil {
		return response.InternalServerError(c, "Failed to read uploaded file")
	}

	result, err := pdfvalidation.ValidatePDFBytes(pdfBytes, pdfvalidation.PaperLimits)
	if err != nil {
		return response.InternalServerError(c, "Failed to validate uploaded file")
	}
	if !result.Valid {
		return response.BadRequest(c, result.Error)
	}

	filename := validation.SanitizeString(fileHeader.Filename)

	paper, err := h.pipeline.ProcessUpload(c.Context(), filename, pdfBytes)
	if err != nil {
		return response.InternalServerError(c, "Failed to process upload")
	}

	return response.Success(c, paper.ToResponse())
}

// listPapersQuery is the validated query for the paper listing
type listPapersQuery struct {
	Limit   int    `query:"limit" validate:"gte=1,lte=100"`
	Offset  int    `query:"offset" validate:"gte=0"`
	Subject string `query:"subject" validate:"omitempty,max=255"`
}

// ListPapers handles GET /api/v1/papers
func (h *PaperHandler) ListPapers(c *fiber.Ctx) error {
	query := listPapersQuery{Limit: 20}
	if err := c.QueryParser(&query); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	if err := h.validator.ValidateStruct(query); err != nil {
		return response.ValidationError(c, err)
	}

	q := h.db.Model(&model.Paper{}).
		Order("created_at DESC, id DESC").
		Limit(query.Limit).
		Offset(query.Offset)
	if query.Subject != "" {
		q = q.Where("subject = ?", query.Subject)
	}

	var papers []model.Paper
	if err := q.Find(&papers).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch papers")
	}

	responses := make([]model.PaperResponse, len(papers))
	for i := range papers {
		responses[i] = papers[i].ToResponse()
	}

	return response.Success(c, fiber.Map{
		"papers": responses,
		"total":  len(responses),
	})
}

// GetPaper handles GET /api/v1/papers/:id
func (h *PaperHandler) GetPaper(c *fiber.Ctx) error {
	paperID := c.Params("id")

	paper, err := h.pipeline.GetPaper(c.Context(), paperID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Paper not found")
		}
		return response.InternalServerError(c, "Failed to fetch paper")
	}

	return response.Success(c, paper.ToResponse())
}

// GetPaperStatus handles GET /api/v1/papers/:id/status
func (h *PaperHandler) GetPaperStatus(c *fiber.Ctx) error {
	paperID := c.Params("id")

	status, err := h.pipeline.GetPaperStatus(c.Context(), paperID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Paper not found")
		}
		return response.InternalServerError(c, "Failed to fetch paper status")
	}

	return response.Success(c, status)
}

// DeletePaper handles DELETE /api/v1/papers/:id
func (h *PaperHandler) DeletePaper(c *fiber.Ctx) error {
	paperID := c.Params("id")

	if err := h.pipeline.DeletePaper(c.Context(), paperID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Paper not found")
		}
		return response.InternalServerError(c, "Failed to delete paper")
	}

	return response.SuccessWithMessage(c, "Paper deleted", nil)
}
