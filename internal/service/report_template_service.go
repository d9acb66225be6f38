package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/repository"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

type templateStore interface {
	Create(ctx context.Context, tpl *models.ReportTemplate) error
	GetByID(ctx context.Context, id string) (*models.ReportTemplate, error)
	List(ctx context.Context, filter models.ReportTemplateFilter) ([]models.ReportTemplate, error)
	Update(ctx context.Context, id string, params models.UpdateReportTemplateParams) error
	Delete(ctx context.Context, id string) error
}

type reportBuilder interface {
	Build(ctx context.Context, cfg models.ReportConfiguration) (*BuildResult, error)
}

// ReportTemplateService manages saved report configurations.
type ReportTemplateService struct {
	repo      templateStore
	validator *ConfigValidator
	builder   reportBuilder
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewReportTemplateService constructs the service.
func NewReportTemplateService(repo templateStore, cfgValidator *ConfigValidator, builder reportBuilder, validate *validator.Validate, logger *zap.Logger) *ReportTemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportTemplateService{repo: repo, validator: cfgValidator, builder: builder, validate: newValidator(validate), logger: logger}
}

// List returns active templates that are public or owned by the requester.
func (s *ReportTemplateService) List(ctx context.Context, requester models.Principal, query dto.ListTemplatesQuery) ([]models.ReportTemplate, error) {
	if err := validatePayload(s.validate, query); err != nil {
		return nil, err
	}
	filter := models.ReportTemplateFilter{RequesterID: requester.UserID, PublicOnly: query.PublicOnly}
	if query.Category != "" {
		category := models.TemplateCategory(query.Category)
		filter.Category = &category
	}
	templates, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, repoError(err, "failed to list report templates")
	}
	return templates, nil
}

// Get returns a template the requester may read. Inactive templates are
// visible to their owner only.
func (s *ReportTemplateService) Get(ctx context.Context, id string, requester models.Principal) (*models.ReportTemplate, error) {
	tpl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl.OwnerID == requester.UserID {
		return tpl, nil
	}
	if !tpl.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report template not found")
	}
	if !tpl.VisibleTo(requester.UserID) {
		return nil, appErrors.ErrAccessDenied
	}
	return tpl, nil
}

// Create validates the configuration and stores a new active template.
func (s *ReportTemplateService) Create(ctx context.Context, req dto.CreateTemplateRequest, requester models.Principal) (*models.ReportTemplate, error) {
	if err := validatePayload(s.validate, req); err != nil {
		return nil, err
	}
	vc, err := s.validator.Validate(req.Configuration)
	if err != nil {
		return nil, err
	}
	tpl := &models.ReportTemplate{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Configuration: vc.Normalized,
		OwnerID:       requester.UserID,
		IsPublic:      req.IsPublic,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, repoError(err, "failed to create report template")
	}
	s.logger.Sugar().Infow("report template created", "template_id", tpl.ID, "owner_id", tpl.OwnerID)
	return tpl, nil
}

// Update applies a partial update. Only the owner may update.
func (s *ReportTemplateService) Update(ctx context.Context, id string, req dto.UpdateTemplateRequest, requester models.Principal) (*models.ReportTemplate, error) {
	if err := validatePayload(s.validate, req); err != nil {
		return nil, err
	}
	tpl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl.OwnerID != requester.UserID {
		return nil, appErrors.ErrAccessDenied
	}

	params := models.UpdateReportTemplateParams{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		IsPublic:    req.IsPublic,
		IsActive:    req.IsActive,
	}
	if req.Configuration != nil {
		vc, err := s.validator.Validate(*req.Configuration)
		if err != nil {
			return nil, err
		}
		params.Configuration = &vc.Normalized
	}
	if err := s.repo.Update(ctx, id, params); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report template not found")
		}
		return nil, repoError(err, "failed to update report template")
	}
	return s.load(ctx, id)
}

// Delete removes a template. Only the owner may delete.
func (s *ReportTemplateService) Delete(ctx context.Context, id string, requester models.Principal) error {
	tpl, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if tpl.OwnerID != requester.UserID {
		return appErrors.ErrAccessDenied
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "report template not found")
		}
		return repoError(err, "failed to delete report template")
	}
	s.logger.Sugar().Infow("report template deleted", "template_id", id, "owner_id", requester.UserID)
	return nil
}

// Run builds the report described by a readable template.
func (s *ReportTemplateService) Run(ctx context.Context, id string, requester models.Principal) (*BuildResult, error) {
	tpl, err := s.Get(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(ctx, tpl.Configuration)
}

func (s *ReportTemplateService) load(ctx context.Context, id string) (*models.ReportTemplate, error) {
	tpl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report template not found")
		}
		return nil, repoError(err, "failed to load report template")
	}
	return tpl, nil
}
