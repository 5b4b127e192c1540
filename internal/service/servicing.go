package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/lawrencemontaril/noynay-app/internal/domain/consultation"
	"github.com/lawrencemontaril/noynay-app/internal/domain/invoice"
	"github.com/lawrencemontaril/noynay-app/internal/domain/labresult"
)

// hasBeenServiced reports whether a clinical or billing artifact already
// exists for the appointment: a consultation, a released laboratory result,
// or an invoice. The first service rendered triggers the pending-invoice
// alert to cashiers; later ones stay quiet.
func hasBeenServiced(
	ctx context.Context,
	consultRepo consultation.Repository,
	labRepo labresult.Repository,
	invoiceRepo invoice.Repository,
	appointmentID uuid.UUID,
) (bool, error) {
	if ok, err := consultRepo.ExistsForAppointment(ctx, appointmentID); err != nil || ok {
		return ok, err
	}
	if ok, err := labRepo.ExistsReleasedForAppointment(ctx, appointmentID); err != nil || ok {
		return ok, err
	}
	return invoiceRepo.ExistsForAppointment(ctx, appointmentID)
}
