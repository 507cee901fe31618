package services

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"

	"campus-orghub/internal/adapters/persistence/models"
)

// NotificationService pushes pipeline events to the board chat webhook.
// Without a webhook configured it degrades to log output only.
type NotificationService struct {
	webhookURL string
	enabled    bool
}

// NewNotificationService creates a new notification service
func NewNotificationService() *NotificationService {
	webhookURL := os.Getenv("BOARD_WEBHOOK_URL")
	return &NotificationService{
		webhookURL: webhookURL,
		enabled:    webhookURL != "",
	}
}

// IsEnabled checks if webhook delivery is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// send delivers a message to the webhook, best effort. Delivery failures
// are logged and swallowed; notifications never fail a pipeline operation.
func (s *NotificationService) send(message string) {
	log.Printf("🔔 %s", message)

	if !s.enabled {
		return
	}

	data := url.Values{}
	data.Set("message", message)

	req, err := http.NewRequest("POST", s.webhookURL, bytes.NewBufferString(data.Encode()))
	if err != nil {
		log.Printf("⚠️ Webhook request build failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("⚠️ Webhook delivery failed: %v", err)
		return
	}
	defer resp.Body.Close()
}

// NotifyNewCandidacy announces a new application
func (s *NotificationService) NotifyNewCandidacy(candidacy *models.Candidacy, orgName string) {
	s.send(fmt.Sprintf("🆕 New application #%d: %s applied to %s",
		candidacy.ID,
		candidacy.ApplicantName,
		orgName,
	))
}

// NotifyAdvanced announces a candidate moving to the next phase
func (s *NotificationService) NotifyAdvanced(candidacy *models.Candidacy, phaseName string) {
	s.send(fmt.Sprintf("➡️ Candidacy #%d (%s) advanced to phase: %s",
		candidacy.ID,
		candidacy.ApplicantName,
		phaseName,
	))
}

// NotifyApproved announces a finalized approval
func (s *NotificationService) NotifyApproved(candidacy *models.Candidacy) {
	s.send(fmt.Sprintf("✅ Candidacy #%d approved: %s is now a member",
		candidacy.ID,
		candidacy.ApplicantName,
	))
}

// NotifyRejected announces a finalized rejection
func (s *NotificationService) NotifyRejected(candidacy *models.Candidacy) {
	s.send(fmt.Sprintf("❌ Candidacy #%d rejected: %s",
		candidacy.ID,
		candidacy.ApplicantName,
	))
}

// NotifyReconciled announces memberships repaired by the nightly sweep
func (s *NotificationService) NotifyReconciled(orgID uint, repaired int) {
	s.send(fmt.Sprintf("🔧 Reconciliation repaired %d membership(s) for organization %d",
		repaired,
		orgID,
	))
}
