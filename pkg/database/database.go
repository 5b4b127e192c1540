package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lawrencemontaril/noynay-app/internal/config"
	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/domain/consultation"
	"github.com/lawrencemontaril/noynay-app/internal/domain/invoice"
	"github.com/lawrencemontaril/noynay-app/internal/domain/labresult"
	"github.com/lawrencemontaril/noynay-app/internal/domain/notification"
	"github.com/lawrencemontaril/noynay-app/internal/domain/patient"
	"github.com/lawrencemontaril/noynay-app/internal/domain/procedure"
	"github.com/lawrencemontaril/noynay-app/internal/domain/setting"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"clinical", "auth", "audit", "billing"} // logical namespaces
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&patient.Patient{},
		&appointment.Appointment{},
		&consultation.Consultation{},
		&procedure.Procedure{},
		&labresult.LaboratoryResult{},
		&invoice.Invoice{},
		&invoice.InvoiceItem{},
		&invoice.Payment{},
		&notification.Notification{},
		&setting.Setting{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	if err := seedSettings(db); err != nil {
		return fmt.Errorf("seeding settings: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		// Slot capacity counting scans by exact timestamp and active status.
		{
			name:  "idx_appointments_slot",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_slot ON clinical.appointments (scheduled_at, status) WHERE deleted_at IS NULL`,
		},
		{
			name:  "idx_appointments_patient_active",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_patient_active ON clinical.appointments (patient_id, status) WHERE deleted_at IS NULL AND status IN ('pending', 'approved')`,
		},
		// Patient search: GIN index for trigram search on name fields
		{
			name:  "idx_patients_name_search",
			query: `CREATE INDEX IF NOT EXISTS idx_patients_name_trgm ON clinical.patients USING gin ((first_name || ' ' || last_name) gin_trgm_ops) WHERE deleted_at IS NULL`,
		},
		{
			name:  "idx_invoices_appointment",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_appointment ON billing.invoices (appointment_id) WHERE deleted_at IS NULL`,
		},
		{
			name:  "idx_notifications_user_unread",
			query: `CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON clinical.notifications (user_id, created_at DESC) WHERE read_at IS NULL`,
		},
		{
			name:  "idx_laboratory_results_appointment",
			query: `CREATE INDEX IF NOT EXISTS idx_laboratory_results_appointment ON clinical.laboratory_results (appointment_id) WHERE deleted_at IS NULL`,
		},
	}

	for _, idx := range indexes {
		_ = db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error

		if err := db.Exec(idx.query).Error; err != nil {
			// Index creation is best effort against older pg versions.
			_ = err
		}
	}

	return nil
}

// seedSettings inserts the default clinic settings row when none exists.
func seedSettings(db *gorm.DB) error {
	var count int64
	if err := db.Model(&setting.Setting{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(setting.Defaults()).Error
}
