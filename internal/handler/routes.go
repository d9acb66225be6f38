package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rossmikee121/schoolrepr/internal/middleware"
	"github.com/rossmikee121/schoolrepr/internal/models"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Reports   *ReportHandler
	Templates *ReportTemplateHandler
	Sequences *SequenceHandler
	Students  *StudentHandler
	Labs      *LabHandler
	Metrics   *MetricsHandler
}

// RegisterRoutes mounts the observability routes at the root and the API under
// prefix. Everything under prefix except signed downloads requires a token.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, tokens middleware.TokenValidator, audit *zap.Logger) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())
	api.GET("/reports/download/:token", h.Reports.DownloadByToken)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	secured.GET("/metrics/summary", admin, h.Metrics.Snapshot)

	reports := secured.Group("/reports")
	reports.Use(staff)
	reports.GET("/models", h.Reports.Models)
	reports.GET("/columns", h.Reports.Columns)
	reports.POST("/build", h.Reports.Build)
	reports.POST("/export", middleware.Audit(audit, "export.create", "report_export"), h.Reports.CreateExport)
	reports.GET("/exports", h.Reports.ListExports)
	reports.GET("/exports/:id", h.Reports.ExportStatus)
	reports.GET("/exports/:id/download", h.Reports.DownloadExport)

	reports.GET("/templates", h.Templates.List)
	reports.POST("/templates", middleware.Audit(audit, "template.create", "report_template"), h.Templates.Create)
	reports.GET("/templates/:id", h.Templates.Get)
	reports.PUT("/templates/:id", middleware.Audit(audit, "template.update", "report_template"), h.Templates.Update)
	reports.DELETE("/templates/:id", middleware.Audit(audit, "template.delete", "report_template"), h.Templates.Delete)
	reports.POST("/templates/:id/run", h.Templates.Run)

	sequences := secured.Group("/sequences", admin)
	sequences.POST("/roll-numbers", middleware.Audit(audit, "sequence.allocate", "roll_number"), h.Sequences.RollNumber)
	sequences.POST("/admission-numbers", middleware.Audit(audit, "sequence.allocate", "admission_number"), h.Sequences.AdmissionNumber)
	sequences.POST("/receipt-numbers", middleware.Audit(audit, "sequence.allocate", "receipt_number"), h.Sequences.ReceiptNumber)

	students := secured.Group("/students", admin)
	students.POST("/admissions", middleware.Audit(audit, "student.admit", "student"), h.Students.Admit)
	students.POST("/:id/fee-payments", middleware.Audit(audit, "fee.payment", "student_fee"), h.Students.RecordFeePayment)

	labs := secured.Group("/labs", staff)
	labs.POST("/batches", middleware.Audit(audit, "lab.batch", "lab_session"), h.Labs.CreateBatches)
	labs.POST("/batches/division", middleware.Audit(audit, "lab.batch", "lab_session"), h.Labs.CreateDivisionBatches)
	labs.POST("/reassign", middleware.Audit(audit, "lab.reassign", "lab_session"), h.Labs.Reassign)
	labs.GET("/sessions", h.Labs.Sessions)
}
