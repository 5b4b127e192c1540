package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/config"
	v1 "github.com/lawrencemontaril/noynay-app/internal/handler/v1"
	"github.com/lawrencemontaril/noynay-app/internal/repository"
	"github.com/lawrencemontaril/noynay-app/internal/service"
	"github.com/lawrencemontaril/noynay-app/pkg/auth"
	"github.com/lawrencemontaril/noynay-app/pkg/database"
	"github.com/lawrencemontaril/noynay-app/pkg/logger"
	"github.com/lawrencemontaril/noynay-app/pkg/metrics"
	"github.com/lawrencemontaril/noynay-app/pkg/storage"
	"github.com/lawrencemontaril/noynay-app/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Error("loading configuration", zap.Error(err))
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting noynay-api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Error("connecting to database", zap.Error(err))
		return err
	}

	if err := database.Migrate(db, log); err != nil {
		log.Error("running migrations", zap.Error(err))
		return err
	}

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		log.Error("initializing tracer", zap.Error(err))
		return err
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("shutting down tracer", zap.Error(err))
		}
	}()

	files, err := storage.NewDiskStore(cfg.Storage.UploadDir, cfg.Storage.MaxUploadBytes)
	if err != nil {
		log.Error("initializing file storage", zap.Error(err))
		return err
	}

	m := metrics.NewCollector(cfg.App.Name)
	jwtManager := auth.NewJWTManager(cfg.JWT)

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)
	procedureRepo := repository.NewProcedureRepository(db)
	labResultRepo := repository.NewLaboratoryResultRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	reportRepo := repository.NewReportRepository(db)

	auditSvc := service.NewAuditService(auditRepo, log)
	defer auditSvc.Shutdown()

	notifier := service.NewNotificationService(notificationRepo, userRepo, m, log)
	settingSvc := service.NewSettingService(settingRepo, auditSvc, log)
	authSvc := service.NewAuthService(userRepo, jwtManager, notifier, log)
	userSvc := service.NewUserService(userRepo, auditSvc, log)
	patientSvc := service.NewPatientService(patientRepo, notifier, auditSvc, m, log)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, patientRepo, labResultRepo, settingSvc, notifier, auditSvc, m, log)
	consultationSvc := service.NewConsultationService(consultationRepo, appointmentRepo, patientRepo, labResultRepo, invoiceRepo, notifier, auditSvc, log)
	labResultSvc := service.NewLaboratoryResultService(labResultRepo, appointmentRepo, patientRepo, consultationRepo, invoiceRepo, files, notifier, auditSvc, m, log)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, appointmentRepo, settingSvc, notifier, auditSvc, m, log)
	procedureSvc := service.NewProcedureService(procedureRepo, appointmentRepo, auditSvc, log)
	reportSvc := service.NewReportService(reportRepo, log)

	router := v1.NewRouter(cfg, log, m, jwtManager, userRepo, v1.Handlers{
		Auth:          v1.NewAuthHandler(authSvc),
		Appointments:  v1.NewAppointmentHandler(appointmentSvc),
		Patients:      v1.NewPatientHandler(patientSvc),
		Consultations: v1.NewConsultationHandler(consultationSvc),
		Procedures:    v1.NewProcedureHandler(procedureSvc),
		LabResults:    v1.NewLaboratoryResultHandler(labResultSvc, files),
		Invoices:      v1.NewInvoiceHandler(invoiceSvc),
		Notifications: v1.NewNotificationHandler(notifier),
		Users:         v1.NewUserHandler(userSvc),
		Settings:      v1.NewSettingHandler(settingSvc),
		Reports:       v1.NewReportHandler(reportSvc),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("http server failed", zap.Error(err))
		return err
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		return err
	}

	log.Info("server stopped")
	return nil
}
