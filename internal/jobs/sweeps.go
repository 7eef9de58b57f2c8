package jobs

import (
	"log"
	"time"

	"github.com/jidokhae/jidokhae-backend/internal/services"
)

// SweepJob runs the periodic sweeps in-process, for deployments without an
// external cron trigger. The HTTP cron endpoints remain the primary
// surface; this is a fallback controlled by RUN_INTERNAL_JOBS.
type SweepJob struct {
	waitlists *services.WaitlistService
	reminders *services.ReminderService
	isRunning bool
}

// NewSweepJob creates a new sweep job scheduler
func NewSweepJob(waitlists *services.WaitlistService, reminders *services.ReminderService) *SweepJob {
	return &SweepJob{
		waitlists: waitlists,
		reminders: reminders,
	}
}

// Start begins the scheduled sweeps
func (j *SweepJob) Start() {
	if j.isRunning {
		log.Println("Sweep jobs already running")
		return
	}

	j.isRunning = true
	log.Println("Starting in-process sweep jobs...")

	go j.scheduleWaitlistSweep()
	go j.scheduleDailySweeps()
}

// Stop halts the scheduled sweeps after their current iteration
func (j *SweepJob) Stop() {
	j.isRunning = false
	log.Println("Stopping in-process sweep jobs...")
}

// Waitlist deadlines are checked hourly
func (j *SweepJob) scheduleWaitlistSweep() {
	for j.isRunning {
		time.Sleep(time.Hour)

		if !j.isRunning {
			break
		}

		stats, err := j.waitlists.ExpireOverdue()
		if err != nil {
			log.Printf("Waitlist sweep failed: %v", err)
			continue
		}
		log.Printf("Waitlist sweep: processed=%d notified=%d errors=%d",
			stats.Processed, stats.Notified, stats.Errors)
	}
}

// Reminders and auto-complete run daily at 7 AM local time
func (j *SweepJob) scheduleDailySweeps() {
	for j.isRunning {
		now := time.Now()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), 7, 0, 0, 0, now.Location())
		if now.After(nextRun) {
			nextRun = nextRun.Add(24 * time.Hour)
		}

		duration := nextRun.Sub(now)
		log.Printf("Next daily sweep scheduled in %v", duration)
		time.Sleep(duration)

		if !j.isRunning {
			break
		}

		stats, err := j.reminders.ProcessReminders()
		if err != nil {
			log.Printf("Reminder sweep failed: %v", err)
		} else {
			log.Printf("Reminder sweep: meetings=%d sent=%d errors=%d",
				stats.Meetings, stats.Sent, stats.Errors)
		}

		completed, err := j.reminders.AutoComplete()
		if err != nil {
			log.Printf("Auto-complete sweep failed: %v", err)
		} else if completed > 0 {
			log.Printf("Auto-complete sweep: completed=%d meetings", completed)
		}
	}
}
