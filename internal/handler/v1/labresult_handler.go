package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lawrencemontaril/noynay-app/internal/domain/labresult"
	"github.com/lawrencemontaril/noynay-app/internal/service"
	"github.com/lawrencemontaril/noynay-app/pkg/storage"
)

type LaboratoryResultHandler struct {
	svc   *service.LaboratoryResultService
	files storage.Store
}

func NewLaboratoryResultHandler(svc *service.LaboratoryResultService, files storage.Store) *LaboratoryResultHandler {
	return &LaboratoryResultHandler{svc: svc, files: files}
}

// formUpload pulls the optional results_file part out of a multipart form.
// The returned closer must be closed by the caller when non-nil.
func formUpload(c *gin.Context) (*service.ResultsUpload, func(), bool) {
	fh, err := c.FormFile("results_file")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil, true
		}
		respondError(c, http.StatusBadRequest, "invalid results_file upload")
		return nil, nil, false
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid results_file upload")
		return nil, nil, false
	}

	return &service.ResultsUpload{Filename: fh.Filename, Content: f}, func() { _ = f.Close() }, true
}

func (h *LaboratoryResultHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	appointmentID, err := uuid.Parse(c.PostForm("appointment_id"))
	if err != nil {
		respondServiceError(c, service.NewValidationError("appointment_id", "The appointment id must be a valid UUID."))
		return
	}

	upload, closeUpload, ok := formUpload(c)
	if !ok {
		return
	}
	if closeUpload != nil {
		defer closeUpload()
	}

	r, err := h.svc.Create(c.Request.Context(), &labresult.CreateLaboratoryResultCommand{
		AppointmentID: appointmentID,
		Type:          labresult.TestType(c.PostForm("type")),
		Description:   c.PostForm("description"),
	}, upload, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, r)
}

func (h *LaboratoryResultHandler) Update(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	upload, closeUpload, ok := formUpload(c)
	if !ok {
		return
	}
	if closeUpload != nil {
		defer closeUpload()
	}

	cmd := &labresult.UpdateLaboratoryResultCommand{}
	if v, exists := c.GetPostForm("description"); exists {
		cmd.Description = &v
	}
	if v, exists := c.GetPostForm("type"); exists {
		t := labresult.TestType(v)
		cmd.Type = &t
	}

	r, err := h.svc.Update(c.Request.Context(), id, cmd, upload, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, r)
}

func (h *LaboratoryResultHandler) Get(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	r, err := h.svc.Get(c.Request.Context(), id, claims.Role, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, r)
}

// Download streams the released PDF. Access control mirrors Get.
func (h *LaboratoryResultHandler) Download(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	r, err := h.svc.Get(c.Request.Context(), id, claims.Role, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if r.ResultsFilePath == "" {
		respondError(c, http.StatusNotFound, "no results file attached")
		return
	}

	c.FileAttachment(h.files.AbsolutePath(r.ResultsFilePath), "laboratory_result.pdf")
}

func (h *LaboratoryResultHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	q := &labresult.ListLaboratoryResultsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("appointment_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.AppointmentID = &id
		}
	}
	if raw := c.Query("patient_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.PatientID = &id
		}
	}
	if raw := c.Query("status"); raw != "" {
		st := labresult.Status(raw)
		q.Status = &st
	}
	if raw := c.Query("type"); raw != "" {
		t := labresult.TestType(raw)
		q.Type = &t
	}

	page, err := h.svc.List(c.Request.Context(), q, claims.Role, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}

func (h *LaboratoryResultHandler) Delete(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, claims.UserID, claims.Role, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondNoContent(c)
}
