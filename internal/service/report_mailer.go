package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/resend/resend-go/v2"
)

// NoopReportMailer используется, когда рассылка отчетов сверки выключена.
type NoopReportMailer struct{}

func (m *NoopReportMailer) SendDriftReport(report *DriftReport) error {
	log.Printf("[ReportMailer] noop drift report: participants=%d rewards=%d duplicates=%d",
		len(report.ParticipantDrifts), len(report.RewardDrifts), len(report.DuplicateAnswers))
	return nil
}

// ResendReportMailer отправляет отчеты сверки через Resend REST API.
type ResendReportMailer struct {
	from   string
	to     []string
	client *resend.Client
}

func NewResendReportMailer(apiKey, from string, to []string) (*ResendReportMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	if len(to) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	return &ResendReportMailer{
		from:   from,
		to:     to,
		client: resend.NewClient(apiKey),
	}, nil
}

func (m *ResendReportMailer) SendDriftReport(report *DriftReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Drift report generated at %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))

	if len(report.ParticipantDrifts) > 0 {
		fmt.Fprintf(&b, "Participant balance drift (%d):\n", len(report.ParticipantDrifts))
		for _, d := range report.ParticipantDrifts {
			fmt.Fprintf(&b, "  participant #%d (room #%d): actual=%d expected=%d delta=%+d\n",
				d.ParticipantID, d.RoomID, d.Actual, d.Expected, d.Delta)
		}
		b.WriteString("\n")
	}
	if len(report.RewardDrifts) > 0 {
		fmt.Fprintf(&b, "Reward stock drift (%d):\n", len(report.RewardDrifts))
		for _, d := range report.RewardDrifts {
			fmt.Fprintf(&b, "  reward #%d %q (room #%d): actual=%d expected=%d delta=%+d\n",
				d.RewardID, d.Name, d.RoomID, d.Actual, d.Expected, d.Delta)
		}
		b.WriteString("\n")
	}
	if len(report.DuplicateAnswers) > 0 {
		fmt.Fprintf(&b, "Duplicate answer groups (%d):\n", len(report.DuplicateAnswers))
		for _, g := range report.DuplicateAnswers {
			fmt.Fprintf(&b, "  participant #%d, question #%d: keep #%d, remove %d extras\n",
				g.ParticipantID, g.QuestionID, g.KeepID, len(g.ExtraIDs))
		}
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      m.to,
		Subject: fmt.Sprintf("[thr-api] Drift report: %d finding(s)", len(report.ParticipantDrifts)+len(report.RewardDrifts)+len(report.DuplicateAnswers)),
		Text:    b.String(),
	}

	if _, err := m.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send drift report: %w", err)
	}
	log.Printf("[ReportMailer] Отчет сверки отправлен (%d получателей)", len(m.to))
	return nil
}
