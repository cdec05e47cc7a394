package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/medimatch/internal/security"
)

// LanguageMiddleware resolves the response language from the ?lang query,
// the language cookie or Accept-Language, in that order.
func (handler *Handler) LanguageMiddleware(c *fiber.Ctx) error {
	language := handler.i18n.DetectFromAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
	if cookieLanguage := c.Cookies(languageCookieName); cookieLanguage != "" {
		language = handler.i18n.NormalizeLanguage(cookieLanguage)
	}
	if queryLanguage := c.Query("lang"); queryLanguage != "" {
		language = handler.i18n.NormalizeLanguage(queryLanguage)
		handler.setLanguageCookie(c, language)
	}

	c.Locals(contextLanguageKey, language)
	c.Set(fiber.HeaderContentLanguage, language)
	return c.Next()
}

func (handler *Handler) setLanguageCookie(c *fiber.Ctx, language string) {
	c.Cookie(&fiber.Cookie{
		Name:     languageCookieName,
		Value:    language,
		Path:     "/",
		HTTPOnly: false,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  handler.now().AddDate(1, 0, 0),
	})
}

// AdminRequired checks the admin token header against the configured bcrypt
// hash. Failed attempts are limited per client address.
func (handler *Handler) AdminRequired(c *fiber.Ctx) error {
	if handler.adminTokenHash == "" {
		return handler.apiError(c, fiber.StatusForbidden, "admin_disabled")
	}

	key := requestLimiterKey(c)
	now := handler.now()
	if handler.adminLimiter.blocked(key, now) {
		return handler.apiError(c, fiber.StatusTooManyRequests, "too_many_attempts")
	}

	if !security.VerifyAdminToken(handler.adminTokenHash, c.Get(adminTokenHeader)) {
		handler.adminLimiter.addFailure(key, now)
		handler.logger.WithField("ip", key).Warn("admin token rejected")
		return handler.apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	handler.adminLimiter.reset(key)
	return c.Next()
}
