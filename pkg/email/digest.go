package email

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/jordanlanch/salescrm/pkg/models"
)

// DigestMailer sends overdue-activity digests to one fixed recipient.
type DigestMailer struct {
	svc *Service
	to  string
}

// NewDigestMailer creates a mailer delivering every digest to recipient.
func NewDigestMailer(svc *Service, recipient string) *DigestMailer {
	return &DigestMailer{svc: svc, to: recipient}
}

// NotifyOverdue mails the overdue activities of one owner.
func (m *DigestMailer) NotifyOverdue(ctx context.Context, ownerID string, overdue []models.Activity) error {
	if len(overdue) == 0 {
		return nil
	}
	subject, htmlBody, plainText := buildOverdueDigestEmail(ownerID, overdue)
	return m.svc.SendRawEmail(ctx, m.to, "", subject, htmlBody, plainText)
}

// buildOverdueDigestEmail returns the email content for an overdue digest.
func buildOverdueDigestEmail(ownerID string, overdue []models.Activity) (subject, htmlBody, plainText string) {
	noun := "activities"
	if len(overdue) == 1 {
		noun = "activity"
	}
	subject = fmt.Sprintf("%d overdue %s for %s", len(overdue), noun, ownerID)

	var items, lines strings.Builder
	for _, a := range overdue {
		due := a.ScheduledAt.UTC().Format("Mon Jan 2 15:04 MST")
		fmt.Fprintf(&items, "<li><strong>%s</strong> (%s) due %s</li>\n",
			html.EscapeString(a.Title), html.EscapeString(string(a.Type)), due)
		fmt.Fprintf(&lines, "- %s (%s) due %s\n", a.Title, a.Type, due)
	}

	htmlBody = fmt.Sprintf(`
		<html>
		<body>
			<h2>Overdue activities</h2>
			<p>These scheduled activities for <strong>%s</strong> are past due and still open:</p>
			<ul>
%s			</ul>
		</body>
		</html>
	`, html.EscapeString(ownerID), items.String())

	plainText = fmt.Sprintf(`These scheduled activities for %s are past due and still open:

%s`, ownerID, lines.String())

	return subject, htmlBody, plainText
}
