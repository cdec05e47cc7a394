package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/terraincognita07/medimatch/internal/models"
	"golang.org/x/time/rate"
)

var (
	ErrMailDisabled        = errors.New("mail delivery disabled")
	ErrMailRateLimited     = errors.New("mail rate limit exceeded")
	ErrMailUnavailable     = errors.New("mail delivery unavailable")
	ErrMailFailed          = errors.New("mail delivery failed")
	ErrReportHasNoEmail    = errors.New("report has no email address")
	ErrInvalidEmailAddress = errors.New("invalid email address")
)

type EmailStatusWriter interface {
	UpdateEmailStatus(ctx context.Context, reportID uint, status string, message string) error
}

type NotificationOptions struct {
	RatePerMinute   int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// NotificationService emails prediction reports. Sends are throttled by a
// token bucket and guarded by a circuit breaker around the mail sender.
type NotificationService struct {
	sender     MailSender
	statuses   EmailStatusWriter
	translator Translator
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewNotificationService returns a service that reports ErrMailDisabled for
// every send when sender is nil.
func NewNotificationService(sender MailSender, statuses EmailStatusWriter, translator Translator, options NotificationOptions, logger *logrus.Logger) *NotificationService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if options.RatePerMinute <= 0 {
		options.RatePerMinute = 30
	}
	if options.BreakerFailures == 0 {
		options.BreakerFailures = 3
	}
	if options.BreakerTimeout <= 0 {
		options.BreakerTimeout = time.Minute
	}

	failures := options.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Timeout:     options.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("circuit breaker state changed")
		},
	})

	burst := options.RatePerMinute
	return &NotificationService{
		sender:     sender,
		statuses:   statuses,
		translator: translator,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(options.RatePerMinute)), burst),
		breaker:    breaker,
		logger:     logger,
	}
}

func (service *NotificationService) Enabled() bool {
	return service.sender != nil
}

// SendReport emails report to its stored address, or to override when one is
// given, and records the delivery outcome on the report.
func (service *NotificationService) SendReport(ctx context.Context, report models.Report, override string, language string) error {
	if !service.Enabled() {
		return ErrMailDisabled
	}

	recipient := strings.TrimSpace(override)
	if recipient == "" {
		recipient = report.Email
	}
	if strings.TrimSpace(recipient) == "" {
		return ErrReportHasNoEmail
	}
	address, err := mail.ParseAddress(recipient)
	if err != nil {
		return ErrInvalidEmailAddress
	}

	if !service.limiter.Allow() {
		return ErrMailRateLimited
	}

	message := MailMessage{
		To:       address.Address,
		Subject:  service.translator.Translate(language, "email.subject"),
		HTMLBody: service.RenderHTML(report, language),
	}

	_, sendErr := service.breaker.Execute(func() (interface{}, error) {
		return nil, service.sender.Send(ctx, message)
	})

	fields := logrus.Fields{"report": report.PublicID}
	if sendErr != nil {
		service.recordStatus(ctx, report.ID, models.EmailStatusFailed, sendErr.Error())
		service.logger.WithFields(fields).WithError(sendErr).Error("report email failed")
		if errors.Is(sendErr, gobreaker.ErrOpenState) || errors.Is(sendErr, gobreaker.ErrTooManyRequests) {
			return ErrMailUnavailable
		}
		return fmt.Errorf("%w: %v", ErrMailFailed, sendErr)
	}

	service.recordStatus(ctx, report.ID, models.EmailStatusSent, "")
	service.logger.WithFields(fields).Info("report email sent")
	return nil
}

// RenderHTML is the email body: condition heading, cause and tip.
func (service *NotificationService) RenderHTML(report models.Report, language string) string {
	t := func(key string) string {
		return html.EscapeString(service.translator.Translate(language, key))
	}

	condition := t("report.no_match")
	cause := ""
	tip := t("report.no_match_guidance")
	if report.Matched {
		condition = html.EscapeString(report.Condition)
		cause = html.EscapeString(report.Explanation)
		tip = html.EscapeString(report.Guidance)
	}

	var builder strings.Builder
	builder.WriteString("<h3>" + condition + "</h3>\n")
	builder.WriteString("<p>")
	if cause != "" {
		builder.WriteString("<b>" + t("email.cause") + ":</b> " + cause + "<br>")
	}
	builder.WriteString("<b>" + t("email.tip") + ":</b> " + tip + "</p>\n")
	builder.WriteString("<p><small>" + t("report.reference") + ": " + html.EscapeString(report.Reference) + "</small></p>\n")
	return builder.String()
}

func (service *NotificationService) recordStatus(ctx context.Context, reportID uint, status string, message string) {
	if service.statuses == nil || reportID == 0 {
		return
	}
	if err := service.statuses.UpdateEmailStatus(ctx, reportID, status, message); err != nil {
		service.logger.WithError(err).WithField("report_id", reportID).Warn("email status update failed")
	}
}
