package db

import "gorm.io/gorm"

type Repositories struct {
	Reports    *ReportRepository
	Facilities *FacilityRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Reports:    NewReportRepository(database),
		Facilities: NewFacilityRepository(database),
	}
}
