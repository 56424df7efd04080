package service

import (
	"context"
	"mime/multipart"
	"time"

	"sitebuilder-backend/internal/models"
)

type AuthUseCase interface {
	Login(models.LoginRequest) (string, *models.EditorAccount, error)
	TokenTTL() time.Duration
}

type EditorUseCase interface {
	GetPageBuilderConfig() models.PageBuilderConfig
	BlockTypeExists(string) bool
}

type SiteUseCase interface {
	RenderPage(ctx context.Context, slug, templateOverride string) ([]byte, error)
}

type TemplateUseCase interface {
	List() ([]models.TemplateSummary, error)
	Activate(string) (models.TemplateSummary, error)
	Reload(string) error
}

type UploadUseCase interface {
	UploadImage(*multipart.FileHeader, string) (UploadInfo, error)
	DeleteImage(ctx context.Context, name string, force bool) error
	ListImages(ctx context.Context) ([]UploadInfo, error)
}

var (
	_ AuthUseCase     = (*AuthService)(nil)
	_ EditorUseCase   = (*EditorService)(nil)
	_ SiteUseCase     = (*SiteService)(nil)
	_ TemplateUseCase = (*TemplateService)(nil)
	_ UploadUseCase   = (*UploadService)(nil)
)
