package db

import (
	"context"

	"github.com/terraincognita07/medimatch/internal/models"
	"gorm.io/gorm"
)

type ReportRepository struct {
	database *gorm.DB
}

func NewReportRepository(database *gorm.DB) *ReportRepository {
	return &ReportRepository{database: database}
}

func (repo *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	return repo.database.WithContext(ctx).Create(report).Error
}

func (repo *ReportRepository) FindByPublicID(ctx context.Context, publicID string) (models.Report, error) {
	report := models.Report{}
	if err := repo.database.WithContext(ctx).Where("public_id = ?", publicID).First(&report).Error; err != nil {
		return models.Report{}, err
	}
	return report, nil
}

func (repo *ReportRepository) UpdateEmailStatus(ctx context.Context, reportID uint, status string, message string) error {
	return repo.database.WithContext(ctx).Model(&models.Report{}).Where("id = ?", reportID).Updates(map[string]any{
		"email_status": status,
		"email_error":  message,
	}).Error
}

// ListRecent returns the newest reports first; limit <= 0 returns all.
func (repo *ReportRepository) ListRecent(ctx context.Context, limit int) ([]models.Report, error) {
	reports := make([]models.Report, 0)
	query := repo.database.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}
