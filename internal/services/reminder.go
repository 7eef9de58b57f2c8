package services

import (
	"log"
	"time"

	"github.com/jidokhae/jidokhae-backend/internal/models"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

// ReminderStats aggregates one reminder run
type ReminderStats struct {
	Meetings int `json:"meetings"`
	Sent     int `json:"sent"`
	Errors   int `json:"errors"`
}

// ReminderService sends meeting reminders and completes finished meetings
type ReminderService struct {
	store    storage.Store
	notifier Notifier
	now      func() time.Time
}

// NewReminderService creates a new reminder service
func NewReminderService(store storage.Store, notifier Notifier) *ReminderService {
	return &ReminderService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// ProcessReminders sends D-3, D-1 and day-of reminders to every confirmed
// participant. Meant to run once a day from the cron surface.
func (s *ReminderService) ProcessReminders() (*ReminderStats, error) {
	stats := &ReminderStats{}

	for _, window := range []struct {
		daysAhead int
		template  string
	}{
		{3, models.TemplateReminderD3},
		{1, models.TemplateReminderD1},
		{0, models.TemplateReminderToday},
	} {
		if err := s.remindForDay(window.daysAhead, window.template, stats); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// remindForDay reminds participants of meetings happening daysAhead days
// from now (by calendar day)
func (s *ReminderService) remindForDay(daysAhead int, templateCode string, stats *ReminderStats) error {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, daysAhead)
	dayEnd := dayStart.AddDate(0, 0, 1)

	meetings, err := s.store.GetMeetingsBetween(dayStart, dayEnd)
	if err != nil {
		return err
	}

	for _, meeting := range meetings {
		stats.Meetings++

		regs, err := s.store.GetConfirmedRegistrations(meeting.ID)
		if err != nil {
			log.Printf("Failed to load registrations for meeting %s: %v", meeting.ID, err)
			stats.Errors++
			continue
		}

		for _, reg := range regs {
			user, err := s.store.GetUser(reg.UserID)
			if err != nil {
				log.Printf("Failed to load user %s for reminder: %v", reg.UserID, err)
				stats.Errors++
				continue
			}

			err = s.notifier.Send(templateCode, user.Phone, map[string]string{
				"이름":  user.Name,
				"모임명": meeting.Title,
				"장소":  meeting.Location,
			}, user.ID, meeting.ID)
			if err != nil {
				log.Printf("Failed to send reminder (meeting=%s user=%s): %v", meeting.ID, user.ID, err)
				stats.Errors++
				continue
			}
			stats.Sent++
		}
	}

	return nil
}

// AutoComplete marks open meetings whose datetime passed as completed and
// returns how many were transitioned
func (s *ReminderService) AutoComplete() (int, error) {
	meetings, err := s.store.GetOverdueOpenMeetings(s.now())
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, meeting := range meetings {
		meeting.Status = models.MeetingStatusCompleted
		if err := s.store.UpdateMeeting(meeting); err != nil {
			log.Printf("Failed to complete meeting %s: %v", meeting.ID, err)
			continue
		}
		completed++
	}
	return completed, nil
}
