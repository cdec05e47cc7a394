package db

import (
	"context"
	"strings"

	"github.com/terraincognita07/medimatch/internal/models"
	"gorm.io/gorm"
)

type FacilityRepository struct {
	database *gorm.DB
}

func NewFacilityRepository(database *gorm.DB) *FacilityRepository {
	return &FacilityRepository{database: database}
}

func (repo *FacilityRepository) ListAll(ctx context.Context) ([]models.Facility, error) {
	facilities := make([]models.Facility, 0)
	if err := repo.database.WithContext(ctx).Order("id ASC").Find(&facilities).Error; err != nil {
		return nil, err
	}
	return facilities, nil
}

// ListByLocationSubstring matches city case-insensitively anywhere in the
// facility location.
func (repo *FacilityRepository) ListByLocationSubstring(ctx context.Context, city string) ([]models.Facility, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(city))) + "%"
	facilities := make([]models.Facility, 0)
	if err := repo.database.WithContext(ctx).
		Where(`lower(location) LIKE ? ESCAPE '\'`, pattern).
		Order("id ASC").
		Find(&facilities).Error; err != nil {
		return nil, err
	}
	return facilities, nil
}

func (repo *FacilityRepository) Create(ctx context.Context, facility *models.Facility) error {
	return repo.database.WithContext(ctx).Create(facility).Error
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
