package services

import (
	"context"
	"strings"

	"github.com/terraincognita07/medimatch/internal/models"
)

type FacilityReader interface {
	ListAll(ctx context.Context) ([]models.Facility, error)
	ListByLocationSubstring(ctx context.Context, city string) ([]models.Facility, error)
}

type FacilityService struct {
	facilities FacilityReader
}

func NewFacilityService(facilities FacilityReader) *FacilityService {
	return &FacilityService{facilities: facilities}
}

// Recommend returns facilities whose location contains city, ignoring case.
// A blank city, or one that matches nothing, yields the whole directory.
func (service *FacilityService) Recommend(ctx context.Context, city string) ([]models.Facility, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return service.facilities.ListAll(ctx)
	}

	filtered, err := service.facilities.ListByLocationSubstring(ctx, city)
	if err != nil {
		return nil, err
	}
	if len(filtered) > 0 {
		return filtered, nil
	}
	return service.facilities.ListAll(ctx)
}
