package services

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron             *cron.Cron
	tripGeneratorSvc *TripGeneratorService
	reminderSvc      *ReminderService
	rateLimitSvc     *RateLimitService
}

// NewCronService creates a new CronService
func NewCronService(
	tripGeneratorSvc *TripGeneratorService,
	reminderSvc *ReminderService,
	rateLimitSvc *RateLimitService,
) *CronService {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:             c,
		tripGeneratorSvc: tripGeneratorSvc,
		reminderSvc:      reminderSvc,
		rateLimitSvc:     rateLimitSvc,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	// Job 1: Generate future trips daily at 2 AM
	// Cron format: second minute hour day month weekday
	// "0 0 2 * * *" = At 2:00 AM every day
	_, err := s.cron.AddFunc("0 0 2 * * *", s.generateTripsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule trip generation job: %w", err)
	}
	log.Println("✓ Scheduled: Generate future trips (Daily at 2:00 AM)")

	// Job 2: Deactivate departed trips every 30 minutes
	_, err = s.cron.AddFunc("0 */30 * * * *", s.deactivateDepartedJob)
	if err != nil {
		return fmt.Errorf("failed to schedule departed trips job: %w", err)
	}
	log.Println("✓ Scheduled: Deactivate departed trips (Every 30 minutes)")

	// Job 3: Departure reminder emails every 15 minutes
	_, err = s.cron.AddFunc("0 */15 * * * *", s.sendRemindersJob)
	if err != nil {
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}
	log.Println("✓ Scheduled: Departure reminders (Every 15 minutes)")

	// Job 4: Cleanup expired rate limit windows daily at 3 AM
	_, err = s.cron.AddFunc("0 0 3 * * *", s.cleanupRateLimitsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule rate limit cleanup job: %w", err)
	}
	log.Println("✓ Scheduled: Rate limit cleanup (Daily at 3:00 AM)")

	// Start the cron scheduler
	s.cron.Start()
	log.Println("✓ Cron service started successfully")

	return nil
}

// Stop stops all cron jobs
func (s *CronService) Stop() {
	log.Println("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("✓ Cron service stopped")
}

// generateTripsJob fills the trip horizon
func (s *CronService) generateTripsJob() {
	log.Println("[CRON] Starting trip generation job...")
	startTime := time.Now()

	created, err := s.tripGeneratorSvc.GenerateTrips()
	if err != nil {
		log.Printf("[CRON ERROR] Failed to generate trips: %v\n", err)
		return
	}

	duration := time.Since(startTime)
	log.Printf("[CRON] ✓ Generated %d trips in %v\n", created, duration)
}

// deactivateDepartedJob hides trips that already left
func (s *CronService) deactivateDepartedJob() {
	count, err := s.tripGeneratorSvc.DeactivateDeparted()
	if err != nil {
		log.Printf("[CRON ERROR] Failed to deactivate departed trips: %v\n", err)
		return
	}
	if count > 0 {
		log.Printf("[CRON] ✓ Deactivated %d departed trips\n", count)
	}
}

// sendRemindersJob emails passengers departing soon
func (s *CronService) sendRemindersJob() {
	sent, err := s.reminderSvc.SendDueReminders()
	if err != nil {
		log.Printf("[CRON ERROR] Failed to send departure reminders: %v\n", err)
		return
	}
	if sent > 0 {
		log.Printf("[CRON] ✓ Sent %d departure reminders\n", sent)
	}
}

// cleanupRateLimitsJob purges expired rate limit rows
func (s *CronService) cleanupRateLimitsJob() {
	log.Println("[CRON] Starting rate limit cleanup job...")

	purged, err := s.rateLimitSvc.CleanupExpired()
	if err != nil {
		log.Printf("[CRON ERROR] Failed to cleanup rate limits: %v\n", err)
		return
	}
	log.Printf("[CRON] ✓ Rate limit cleanup complete, purged %d rows\n", purged)
}

// RunGenerateTripsNow runs the trip generation job immediately
func (s *CronService) RunGenerateTripsNow() error {
	log.Println("[MANUAL] Running trip generation now...")
	s.generateTripsJob()
	return nil
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
