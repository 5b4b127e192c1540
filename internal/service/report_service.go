package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Report row shapes. Months are rendered as "2006-01" in the clinic's
// local time.

type MonthlyCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type TypeCount struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type MonthlyRevenue struct {
	Month    string  `json:"month"`
	Invoiced float64 `json:"invoiced"`
	Paid     float64 `json:"paid"`
}

type PatientLoyalty struct {
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`
	Count       int64  `json:"appointment_count"`
}

type ReportRepository interface {
	AppointmentsPerMonth(ctx context.Context, from, to time.Time) ([]MonthlyCount, error)
	AppointmentsByType(ctx context.Context, from, to time.Time) ([]TypeCount, error)
	LabResultsByType(ctx context.Context, from, to time.Time) ([]TypeCount, error)
	RevenuePerMonth(ctx context.Context, from, to time.Time) ([]MonthlyRevenue, error)
	TopPatients(ctx context.Context, from, to time.Time, limit int) ([]PatientLoyalty, error)
}

type ReportService struct {
	repo ReportRepository
	log  *zap.Logger
}

func NewReportService(repo ReportRepository, log *zap.Logger) *ReportService {
	return &ReportService{repo: repo, log: log}
}

// normalizeRange defaults to the trailing twelve months and rejects an
// inverted window.
func normalizeRange(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(-1, 0, 0)
	}
	if from.After(to) {
		return from, to, NewValidationError("from", "The start date must come before the end date.")
	}
	return from, to, nil
}

func (s *ReportService) AppointmentVolume(ctx context.Context, from, to time.Time) ([]MonthlyCount, error) {
	from, to, err := normalizeRange(from, to)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.AppointmentsPerMonth(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying appointment volume: %w", err)
	}
	return rows, nil
}

func (s *ReportService) ServiceTypeRanking(ctx context.Context, from, to time.Time) ([]TypeCount, error) {
	from, to, err := normalizeRange(from, to)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.AppointmentsByType(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying service type ranking: %w", err)
	}
	return rows, nil
}

func (s *ReportService) LabResultBreakdown(ctx context.Context, from, to time.Time) ([]TypeCount, error) {
	from, to, err := normalizeRange(from, to)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.LabResultsByType(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying lab result breakdown: %w", err)
	}
	return rows, nil
}

func (s *ReportService) Revenue(ctx context.Context, from, to time.Time) ([]MonthlyRevenue, error) {
	from, to, err := normalizeRange(from, to)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.RevenuePerMonth(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying revenue: %w", err)
	}
	return rows, nil
}

func (s *ReportService) PatientLoyalty(ctx context.Context, from, to time.Time, limit int) ([]PatientLoyalty, error) {
	from, to, err := normalizeRange(from, to)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := s.repo.TopPatients(ctx, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("querying patient loyalty: %w", err)
	}
	return rows, nil
}
