package models

import "time"

const (
	EmailStatusNone   = "none"
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

type Report struct {
	ID               uint      `gorm:"primaryKey"`
	PublicID         string    `gorm:"uniqueIndex;not null"`
	Reference        string    `gorm:"uniqueIndex;not null"`
	Name             string    `gorm:"not null;default:''"`
	Age              int       `gorm:"not null;default:0"`
	Gender           string    `gorm:"not null;default:''"`
	Email            string    `gorm:"not null;default:''"`
	City             string    `gorm:"not null;default:''"`
	Symptoms         []string  `gorm:"serializer:json"`
	Unrecognized     []string  `gorm:"serializer:json"`
	Matched          bool      `gorm:"not null;default:false"`
	Condition        string    `gorm:"not null;default:''"`
	Score            float64   `gorm:"not null;default:0"`
	Explanation      string    `gorm:"not null;default:''"`
	Guidance         string    `gorm:"not null;default:''"`
	KnowledgeVersion string    `gorm:"not null;default:''"`
	EmailStatus      string    `gorm:"not null;default:none"`
	EmailError       string    `gorm:"not null;default:''"`
	CreatedAt        time.Time `gorm:"not null"`
}
