package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lawrencemontaril/noynay-app/internal/domain/invoice"
	"github.com/lawrencemontaril/noynay-app/internal/service"
)

type InvoiceHandler struct {
	svc *service.InvoiceService
}

func NewInvoiceHandler(svc *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

type invoiceItemRequest struct {
	ID          *string `json:"id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

func itemInputs(items []invoiceItemRequest) ([]invoice.ItemInput, error) {
	out := make([]invoice.ItemInput, 0, len(items))
	for _, it := range items {
		in := invoice.ItemInput{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
		if it.ID != nil && *it.ID != "" {
			id, err := uuid.Parse(*it.ID)
			if err != nil {
				return nil, service.NewValidationError("items", "Item ids must be valid UUIDs.")
			}
			in.ID = &id
		}
		out = append(out, in)
	}
	return out, nil
}

type createInvoiceRequest struct {
	AppointmentID string               `json:"appointment_id" binding:"required"`
	WithDiscount  bool                 `json:"with_discount"`
	Items         []invoiceItemRequest `json:"items"`
}

func (h *InvoiceHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var req createInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		respondServiceError(c, service.NewValidationError("appointment_id", "The appointment id must be a valid UUID."))
		return
	}

	items, err := itemInputs(req.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	inv, err := h.svc.Create(c.Request.Context(), &invoice.CreateInvoiceCommand{
		AppointmentID: appointmentID,
		WithDiscount:  req.WithDiscount,
		Items:         items,
	}, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, inv)
}

type updateInvoiceRequest struct {
	Items []invoiceItemRequest `json:"items"`
}

func (h *InvoiceHandler) Update(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	items, err := itemInputs(req.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	inv, err := h.svc.Update(c.Request.Context(), id, &invoice.UpdateInvoiceCommand{Items: items}, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, inv)
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	inv, err := h.svc.Get(c.Request.Context(), id, claims.Role, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, inv)
}

// GetByAppointment serves the invoice billing a given appointment.
func (h *InvoiceHandler) GetByAppointment(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	appointmentID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	inv, err := h.svc.GetByAppointment(c.Request.Context(), appointmentID, claims.Role, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, inv)
}

func (h *InvoiceHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	q := &invoice.ListInvoicesQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("patient_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.PatientID = &id
		}
	}
	if raw := c.Query("status"); raw != "" {
		st := invoice.Status(raw)
		q.Status = &st
	}

	page, err := h.svc.List(c.Request.Context(), q, claims.Role, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}

func (h *InvoiceHandler) Delete(c *gin.Context) {
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

type createPaymentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (h *InvoiceHandler) AddPayment(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	invoiceID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req createPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.AddPayment(c.Request.Context(), &invoice.CreatePaymentCommand{
		InvoiceID: invoiceID,
		Amount:    req.Amount,
	}, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

type updatePaymentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (h *InvoiceHandler) UpdatePayment(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	paymentID, ok := parseUUID(c, "payment_id")
	if !ok {
		return
	}

	var req updatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.UpdatePayment(c.Request.Context(), paymentID, req.Amount, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

func (h *InvoiceHandler) RemovePayment(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	paymentID, ok := parseUUID(c, "payment_id")
	if !ok {
		return
	}

	if err := h.svc.RemovePayment(c.Request.Context(), paymentID, claims.UserID, claims.Role, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondNoContent(c)
}
