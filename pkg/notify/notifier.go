package notify

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Notifier renders and sends the billing lifecycle emails.
type Notifier struct {
	sender  Sender
	product string
}

// NewNotifier creates a Notifier. product is the name used in subjects and
// bodies. Panics on a nil sender.
func NewNotifier(sender Sender, product string) *Notifier {
	if sender == nil {
		panic("notify: Sender is required")
	}
	if product == "" {
		product = "CasePilot"
	}
	return &Notifier{sender: sender, product: product}
}

var bodyTmpl = template.Must(template.New("body").Parse(`<html><body>
<p>Hi{{if .Name}} {{.Name}}{{end}},</p>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}<p>The {{.Product}} team</p>
</body></html>`))

type bodyData struct {
	Name       string
	Product    string
	Paragraphs []string
}

func (n *Notifier) send(ctx context.Context, to, name, subject, tag string, paragraphs ...string) error {
	var sb strings.Builder
	if err := bodyTmpl.Execute(&sb, bodyData{
		Name:       name,
		Product:    n.product,
		Paragraphs: paragraphs,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSendEmail, err)
	}

	return n.sender.SendEmail(ctx, Message{
		SendTo:   to,
		Subject:  subject,
		BodyHTML: sb.String(),
		Tag:      tag,
	})
}

// TrialStarted welcomes a tenant to its pilot period.
func (n *Notifier) TrialStarted(ctx context.Context, to, name string, endsAt time.Time) error {
	return n.send(ctx, to, name,
		fmt.Sprintf("Your %s pilot has started", n.product),
		"trial-started",
		fmt.Sprintf("Your pilot access to %s is live. You can analyze denial cases and upload payment ledgers right away.", n.product),
		fmt.Sprintf("The pilot runs until %s.", endsAt.Format("January 2, 2006")))
}

// TrialCompleted tells a tenant the pilot ended and when data deletion is
// scheduled unless they subscribe.
func (n *Notifier) TrialCompleted(ctx context.Context, to, name string, deleteAt time.Time) error {
	return n.send(ctx, to, name,
		fmt.Sprintf("Your %s pilot has ended", n.product),
		"trial-completed",
		fmt.Sprintf("Your pilot period on %s is over. Your cases and drafts are kept for now, but new analysis is paused.", n.product),
		fmt.Sprintf("Subscribe before %s to keep your data; after that date it is permanently deleted.", deleteAt.Format("January 2, 2006")))
}

// SubscriptionActivated confirms a paid plan is live.
func (n *Notifier) SubscriptionActivated(ctx context.Context, to, name, planID string) error {
	return n.send(ctx, to, name,
		fmt.Sprintf("Your %s subscription is active", n.product),
		"subscription-activated",
		fmt.Sprintf("Your subscription to the %s plan is active. Monthly credits are available now and renew each calendar month.", planID))
}

// DataPurged confirms the post-retention deletion ran.
func (n *Notifier) DataPurged(ctx context.Context, to, name string) error {
	return n.send(ctx, to, name,
		fmt.Sprintf("Your %s data has been deleted", n.product),
		"data-purged",
		fmt.Sprintf("As scheduled after your pilot ended, all case data stored in %s for your account has been permanently deleted.", n.product))
}
