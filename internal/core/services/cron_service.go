package services

import (
	"context"
	"log"

	"campus-orghub/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// CronService runs scheduled background jobs
type CronService struct {
	cron              *cron.Cron
	membershipService *MembershipService
	refreshTokenRepo  repositories.RefreshTokenRepository
}

// NewCronService creates a new cron service
func NewCronService(
	membershipService *MembershipService,
	refreshTokenRepo repositories.RefreshTokenRepository,
) *CronService {
	return &CronService{
		cron:              cron.New(),
		membershipService: membershipService,
		refreshTokenRepo:  refreshTokenRepo,
	}
}

// Start registers and starts all scheduled jobs
func (s *CronService) Start() error {
	// Nightly membership reconciliation at 03:00
	if _, err := s.cron.AddFunc("0 3 * * *", s.runReconciliation); err != nil {
		return err
	}

	// Expired refresh token cleanup at 04:00
	if _, err := s.cron.AddFunc("0 4 * * *", s.cleanupExpiredTokens); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("🚀 CronService started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 CronService stopped")
}

func (s *CronService) runReconciliation() {
	log.Println("🌙 Nightly membership reconciliation starting")
	if err := s.membershipService.ReconcileAll(context.Background()); err != nil {
		log.Printf("❌ Nightly reconciliation error: %v", err)
		return
	}
	log.Println("✅ Nightly membership reconciliation finished")
}

func (s *CronService) cleanupExpiredTokens() {
	if err := s.refreshTokenRepo.DeleteExpired(context.Background()); err != nil {
		log.Printf("❌ Refresh token cleanup error: %v", err)
		return
	}
	log.Println("✅ Expired refresh tokens cleaned up")
}
