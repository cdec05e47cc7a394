package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	reportTokenPurpose = "report"
	reportTokenIssuer  = "medimatch"
	contextReportIDKey = "report_public_id"
)

var errInvalidReportToken = errors.New("invalid report token")

// buildReportToken grants read and email access to a single report.
func (handler *Handler) buildReportToken(publicID string, now time.Time) (string, error) {
	claims := reportClaims{
		Purpose: reportTokenPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    reportTokenIssuer,
			Subject:   publicID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(handler.reportTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(handler.secretKey)
}

func (handler *Handler) parseReportToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errInvalidReportToken
	}

	claims := &reportClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return handler.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(reportTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(handler.now),
	)
	if err != nil || !token.Valid {
		return "", errInvalidReportToken
	}
	if claims.Purpose != reportTokenPurpose || strings.TrimSpace(claims.Subject) == "" {
		return "", errInvalidReportToken
	}
	return claims.Subject, nil
}

// ReportTokenRequired accepts the token from ?token= or the X-Report-Token
// header and requires its subject to be the report in the path.
func (handler *Handler) ReportTokenRequired(c *fiber.Ctx) error {
	raw := c.Query("token")
	if raw == "" {
		raw = c.Get(reportTokenHeader)
	}

	subject, err := handler.parseReportToken(raw)
	if err != nil || subject != c.Params("id") {
		return handler.apiError(c, fiber.StatusUnauthorized, "invalid_report_token")
	}

	c.Locals(contextReportIDKey, subject)
	return c.Next()
}
