package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/config"
	"github.com/lawrencemontaril/noynay-app/internal/policy"
	"github.com/lawrencemontaril/noynay-app/pkg/auth"
	"github.com/lawrencemontaril/noynay-app/pkg/metrics"
)

// Handlers bundles every endpoint group the router mounts.
type Handlers struct {
	Auth          *AuthHandler
	Appointments  *AppointmentHandler
	Patients      *PatientHandler
	Consultations *ConsultationHandler
	Procedures    *ProcedureHandler
	LabResults    *LaboratoryResultHandler
	Invoices      *InvoiceHandler
	Notifications *NotificationHandler
	Users         *UserHandler
	Settings      *SettingHandler
	Reports       *ReportHandler
}

func NewRouter(
	cfg *config.Config,
	log *zap.Logger,
	m *metrics.Collector,
	jwtManager *auth.JWTManager,
	users userGate,
	h Handlers,
) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), Metrics(m))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	// Unauthenticated surface.
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/refresh", h.Auth.Refresh)
	}

	authed := api.Group("")
	authed.Use(Authenticate(jwtManager, users))

	authed.GET("/auth/me", h.Auth.Me)
	authed.POST("/auth/change-password", h.Auth.ChangePassword)

	appointments := authed.Group("/appointments")
	{
		appointments.GET("", RequireAction(policy.AppointmentView), h.Appointments.List)
		appointments.POST("", RequireAction(policy.AppointmentCreate), h.Appointments.Create)
		appointments.GET("/:id", RequireAction(policy.AppointmentView), h.Appointments.Get)
		appointments.POST("/:id/approve", RequireAction(policy.AppointmentApprove), h.Appointments.Approve)
		appointments.POST("/:id/reject", RequireAction(policy.AppointmentReject), h.Appointments.Reject)
		appointments.POST("/:id/reschedule", RequireAction(policy.AppointmentReschedule), h.Appointments.Reschedule)
		appointments.POST("/:id/cancel", RequireAction(policy.AppointmentCancel), h.Appointments.Cancel)
		appointments.POST("/:id/no-show", RequireAction(policy.AppointmentNoShow), h.Appointments.MarkNoShow)
		appointments.GET("/:id/procedures", RequireAction(policy.ProcedureView), h.Procedures.ListByAppointment)
		appointments.GET("/:id/invoice", RequireAction(policy.InvoiceView), h.Invoices.GetByAppointment)
		appointments.DELETE("/:id", RequireAction(policy.AppointmentArchive), h.Appointments.Archive)
		appointments.POST("/:id/restore", RequireAction(policy.AppointmentRestore), h.Appointments.Restore)
		appointments.DELETE("/:id/force", RequireAction(policy.AppointmentForceDelete), h.Appointments.ForceDelete)
	}

	patients := authed.Group("/patients")
	{
		patients.GET("", RequireAction(policy.PatientView), h.Patients.List)
		patients.POST("", RequireAction(policy.PatientCreate), h.Patients.Create)
		patients.GET("/:id", RequireAction(policy.PatientView), h.Patients.Get)
		patients.PUT("/:id", RequireAction(policy.PatientUpdate), h.Patients.Update)
		patients.DELETE("/:id", RequireAction(policy.PatientArchive), h.Patients.Archive)
		patients.POST("/:id/restore", RequireAction(policy.PatientRestore), h.Patients.Restore)
		patients.DELETE("/:id/force", RequireAction(policy.PatientForceDelete), h.Patients.ForceDelete)
	}

	consultations := authed.Group("/consultations")
	{
		consultations.GET("", RequireAction(policy.ConsultationView), h.Consultations.List)
		consultations.POST("", RequireAction(policy.ConsultationCreate), h.Consultations.Create)
		consultations.GET("/:id", RequireAction(policy.ConsultationView), h.Consultations.Get)
		consultations.PUT("/:id", RequireAction(policy.ConsultationUpdate), h.Consultations.Update)
		consultations.DELETE("/:id", RequireAction(policy.ConsultationDelete), h.Consultations.Delete)
	}

	labResults := authed.Group("/laboratory-results")
	{
		labResults.GET("", RequireAction(policy.LabResultView), h.LabResults.List)
		labResults.POST("", RequireAction(policy.LabResultCreate), h.LabResults.Create)
		labResults.GET("/:id", RequireAction(policy.LabResultView), h.LabResults.Get)
		labResults.GET("/:id/download", RequireAction(policy.LabResultView), h.LabResults.Download)
		labResults.PUT("/:id", RequireAction(policy.LabResultUpdate), h.LabResults.Update)
		labResults.DELETE("/:id", RequireAction(policy.LabResultDelete), h.LabResults.Delete)
	}

	invoices := authed.Group("/invoices")
	{
		invoices.GET("", RequireAction(policy.InvoiceView), h.Invoices.List)
		invoices.POST("", RequireAction(policy.InvoiceCreate), h.Invoices.Create)
		invoices.GET("/:id", RequireAction(policy.InvoiceView), h.Invoices.Get)
		invoices.PUT("/:id", RequireAction(policy.InvoiceUpdate), h.Invoices.Update)
		invoices.DELETE("/:id", RequireAction(policy.InvoiceDelete), h.Invoices.Delete)
		invoices.POST("/:id/payments", RequireAction(policy.PaymentCreate), h.Invoices.AddPayment)
	}
	authed.POST("/procedures", RequireAction(policy.ProcedureCreate), h.Procedures.Create)
	authed.PUT("/payments/:payment_id", RequireAction(policy.PaymentCreate), h.Invoices.UpdatePayment)
	authed.DELETE("/payments/:payment_id", RequireAction(policy.PaymentDelete), h.Invoices.RemovePayment)

	notifications := authed.Group("/notifications")
	{
		notifications.GET("", h.Notifications.List)
		notifications.POST("/:id/read", h.Notifications.MarkRead)
		notifications.POST("/read-all", h.Notifications.MarkAllRead)
	}

	users_ := authed.Group("/users", RequireAction(policy.UserManage))
	{
		users_.GET("", h.Users.List)
		users_.POST("", h.Users.Create)
		users_.GET("/:id", h.Users.Get)
		users_.PUT("/:id", h.Users.Update)
		users_.DELETE("/:id", h.Users.Delete)
	}

	settings := authed.Group("/settings")
	{
		settings.GET("", RequireAction(policy.SettingView), h.Settings.Get)
		settings.PUT("", RequireAction(policy.SettingUpdate), h.Settings.Update)
	}

	reports := authed.Group("/reports", RequireAction(policy.ReportView))
	{
		reports.GET("/appointment-volume", h.Reports.AppointmentVolume)
		reports.GET("/service-types", h.Reports.ServiceTypeRanking)
		reports.GET("/laboratory-results", h.Reports.LabResultBreakdown)
		reports.GET("/revenue", h.Reports.Revenue)
		reports.GET("/patient-loyalty", h.Reports.PatientLoyalty)
	}

	return r
}
