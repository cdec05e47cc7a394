package services

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidPatientName   = errors.New("invalid patient name")
	ErrInvalidPatientAge    = errors.New("invalid patient age")
	ErrInvalidPatientGender = errors.New("invalid patient gender")
	ErrInvalidPatientEmail  = errors.New("invalid patient email")
	ErrInvalidPatientCity   = errors.New("invalid patient city")
	ErrTooManySymptoms      = errors.New("too many symptoms")
)

const (
	maxPatientNameLength = 120
	maxPatientCityLength = 80
	minPatientAge        = 1
	maxPatientAge        = 120
)

var allowedGenders = []string{"Male", "Female", "Other"}

// PatientDetails are the identity fields printed on a report. Every field is
// optional except age, which falls back to zero when omitted.
type PatientDetails struct {
	Name   string
	Age    int
	Gender string
	Email  string
	City   string
}

func NormalizePatientDetails(input PatientDetails) (PatientDetails, error) {
	normalized := PatientDetails{
		Name:   strings.TrimSpace(input.Name),
		Age:    input.Age,
		Gender: strings.TrimSpace(input.Gender),
		Email:  strings.ToLower(strings.TrimSpace(input.Email)),
		City:   strings.TrimSpace(input.City),
	}

	if utf8.RuneCountInString(normalized.Name) > maxPatientNameLength {
		return PatientDetails{}, ErrInvalidPatientName
	}
	if normalized.Age != 0 && (normalized.Age < minPatientAge || normalized.Age > maxPatientAge) {
		return PatientDetails{}, ErrInvalidPatientAge
	}
	if normalized.Gender != "" {
		gender, ok := canonicalGender(normalized.Gender)
		if !ok {
			return PatientDetails{}, ErrInvalidPatientGender
		}
		normalized.Gender = gender
	}
	if normalized.Email != "" {
		parsed, err := mail.ParseAddress(normalized.Email)
		if err != nil || parsed.Address != normalized.Email {
			return PatientDetails{}, ErrInvalidPatientEmail
		}
	}
	if utf8.RuneCountInString(normalized.City) > maxPatientCityLength {
		return PatientDetails{}, ErrInvalidPatientCity
	}
	return normalized, nil
}

func canonicalGender(raw string) (string, bool) {
	for _, gender := range allowedGenders {
		if strings.EqualFold(gender, raw) {
			return gender, true
		}
	}
	return "", false
}
