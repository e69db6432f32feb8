/**
 * @description
 * Templated transactional email dispatch. Templates and recipient addresses
 * are injected configuration resolved once at process start, not scattered
 * constants. Rendering goes through html/template so every payload field is
 * HTML-escaped before it reaches an email body.
 */
package app

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/cabinly/payments-service/internal/domain"
	"github.com/cabinly/payments-service/internal/store"
)

// Notification template kinds.
const (
	NotificationNewCabinPending   = "new-cabin-pending"
	NotificationNewUserRegistered = "new-user-registered"
	NotificationPayoutVerified    = "payout-verified"
)

const (
	newCabinPendingHTML = `<h2>New cabin listing awaiting review</h2>
<p><strong>{{.CabinName}}</strong> was submitted by {{.HostName}} and is pending approval.</p>
<p>Review it in the admin dashboard.</p>`

	newUserRegisteredHTML = `<h2>New user registered</h2>
<p>{{.UserName}} ({{.UserEmail}}) just signed up.</p>`

	payoutVerifiedHTML = `<h2>Your payout account is verified</h2>
<p>Hi {{.HostName}},</p>
<p>Your payout account has been fully verified. Earnings from your bookings will now be paid out automatically.</p>`
)

// Mailer dispatches a single pre-rendered HTML email.
// pkg/emailclient implements it; tests use fakes.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// NotificationConfig is the injected recipient configuration.
type NotificationConfig struct {
	AdminEmail string
}

// NotificationInput carries the template payload. Unused fields for a given
// kind are ignored.
type NotificationInput struct {
	Kind      string
	CabinName string
	HostName  string
	HostEmail string
	UserName  string
	UserEmail string
}

type notificationTemplate struct {
	subject      string
	body         *template.Template
	requireAdmin bool
}

// NotificationService renders and dispatches transactional emails.
type NotificationService struct {
	mailer    Mailer
	roleRepo  store.RoleRepository
	cfg       NotificationConfig
	templates map[string]notificationTemplate
}

// NewNotificationService creates a NotificationService with its templates
// parsed up front.
func NewNotificationService(mailer Mailer, roleRepo store.RoleRepository, cfg NotificationConfig) (*NotificationService, error) {
	parse := func(name, text string) (*template.Template, error) {
		return template.New(name).Parse(text)
	}

	cabin, err := parse(NotificationNewCabinPending, newCabinPendingHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", NotificationNewCabinPending, err)
	}
	user, err := parse(NotificationNewUserRegistered, newUserRegisteredHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", NotificationNewUserRegistered, err)
	}
	payout, err := parse(NotificationPayoutVerified, payoutVerifiedHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", NotificationPayoutVerified, err)
	}

	return &NotificationService{
		mailer:   mailer,
		roleRepo: roleRepo,
		cfg:      cfg,
		templates: map[string]notificationTemplate{
			NotificationNewCabinPending:   {subject: "New cabin listing pending review", body: cabin},
			NotificationNewUserRegistered: {subject: "New user registered", body: user},
			NotificationPayoutVerified:    {subject: "Your payout account is verified", body: payout, requireAdmin: true},
		},
	}, nil
}

// Send renders the template for the given kind and dispatches it. The caller
// must already be authenticated; kinds marked admin-only additionally require
// an admin role assignment for callerID. There is no retry on send failure.
func (s *NotificationService) Send(ctx context.Context, callerID string, input NotificationInput) error {
	tmpl, ok := s.templates[input.Kind]
	if !ok {
		return domain.E(domain.ErrInvalidArgument, "validate-input",
			fmt.Sprintf("unknown notification kind %q", input.Kind))
	}

	if tmpl.requireAdmin {
		isAdmin, err := s.roleRepo.HasRole(ctx, callerID, "admin")
		if err != nil {
			return domain.WrapE(domain.ErrPersistence, "check-role",
				"could not verify caller role", err)
		}
		if !isAdmin {
			return domain.E(domain.ErrUnauthorized, "check-role",
				"Unauthorized: admin role required")
		}
	}

	recipient := s.cfg.AdminEmail
	if input.Kind == NotificationPayoutVerified {
		recipient = input.HostEmail
	}
	if recipient == "" {
		return domain.E(domain.ErrInvalidArgument, "resolve-recipient",
			"no recipient address for notification")
	}

	var body bytes.Buffer
	if err := tmpl.body.Execute(&body, input); err != nil {
		return domain.WrapE(domain.ErrUpstream, "render-template",
			"could not render notification template", err)
	}

	if err := s.mailer.Send(ctx, recipient, tmpl.subject, body.String()); err != nil {
		return domain.WrapE(domain.ErrUpstream, "send-email",
			"email provider rejected the message", err)
	}
	return nil
}
