package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/domain/labresult"
	"github.com/lawrencemontaril/noynay-app/internal/service"
)

// ReportRepository runs the aggregate queries behind the JSON reports.
// Everything is grouped in SQL; Go only decorates labels.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) AppointmentsPerMonth(ctx context.Context, from, to time.Time) ([]service.MonthlyCount, error) {
	var rows []service.MonthlyCount
	err := r.db.WithContext(ctx).
		Raw(`SELECT to_char(date_trunc('month', scheduled_at), 'YYYY-MM') AS month, count(*) AS count
		     FROM clinical.appointments
		     WHERE deleted_at IS NULL AND scheduled_at >= ? AND scheduled_at < ?
		     GROUP BY 1 ORDER BY 1`, from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating appointments per month: %w", err)
	}
	return rows, nil
}

func (r *ReportRepository) AppointmentsByType(ctx context.Context, from, to time.Time) ([]service.TypeCount, error) {
	var rows []service.TypeCount
	err := r.db.WithContext(ctx).
		Raw(`SELECT type, count(*) AS count
		     FROM clinical.appointments
		     WHERE deleted_at IS NULL AND scheduled_at >= ? AND scheduled_at < ?
		     GROUP BY type ORDER BY count DESC`, from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating appointments by type: %w", err)
	}
	for i := range rows {
		rows[i].Label = appointment.ServiceType(rows[i].Type).Label()
	}
	return rows, nil
}

func (r *ReportRepository) LabResultsByType(ctx context.Context, from, to time.Time) ([]service.TypeCount, error) {
	var rows []service.TypeCount
	err := r.db.WithContext(ctx).
		Raw(`SELECT type, count(*) AS count
		     FROM clinical.laboratory_results
		     WHERE created_at >= ? AND created_at < ?
		     GROUP BY type ORDER BY count DESC`, from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating laboratory results by type: %w", err)
	}
	for i := range rows {
		rows[i].Label = labresult.TestType(rows[i].Type).Label()
	}
	return rows, nil
}

func (r *ReportRepository) RevenuePerMonth(ctx context.Context, from, to time.Time) ([]service.MonthlyRevenue, error) {
	var rows []service.MonthlyRevenue
	err := r.db.WithContext(ctx).
		Raw(`SELECT to_char(date_trunc('month', i.created_at), 'YYYY-MM') AS month,
		            coalesce(sum(i.total), 0) AS invoiced,
		            coalesce(sum(p.paid), 0) AS paid
		     FROM billing.invoices i
		     LEFT JOIN (
		         SELECT invoice_id, sum(amount) AS paid
		         FROM billing.payments GROUP BY invoice_id
		     ) p ON p.invoice_id = i.id
		     WHERE i.created_at >= ? AND i.created_at < ?
		     GROUP BY 1 ORDER BY 1`, from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating revenue per month: %w", err)
	}
	return rows, nil
}

func (r *ReportRepository) TopPatients(ctx context.Context, from, to time.Time, limit int) ([]service.PatientLoyalty, error) {
	var rows []service.PatientLoyalty
	err := r.db.WithContext(ctx).
		Raw(`SELECT p.id AS patient_id,
		            concat_ws(' ', p.first_name, nullif(p.middle_name, ''), p.last_name) AS patient_name,
		            count(a.id) AS count
		     FROM clinical.patients p
		     JOIN clinical.appointments a ON a.patient_id = p.id AND a.deleted_at IS NULL
		     WHERE p.deleted_at IS NULL AND a.scheduled_at >= ? AND a.scheduled_at < ?
		     GROUP BY p.id, patient_name
		     ORDER BY count DESC, patient_name ASC
		     LIMIT ?`, from, to, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating top patients: %w", err)
	}
	return rows, nil
}
