package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"garagedesk/internal/domain"
	"garagedesk/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrNotEditing   = errors.New("no editing session in progress")
	ErrUnknownDay   = errors.New("unknown weekday")
	ErrInvalidHours = errors.New("invalid opening hours")
)

// HoursService holds the workshop's weekly schedule and an edit-in-progress
// draft, mirroring the begin/cancel/save flow of the hours page. Edits only
// reach the backend on Save; Cancel drops the draft.
type HoursService struct {
	api    domain.HoursAPI
	clock  domain.Clock
	logger zerolog.Logger

	mu      sync.Mutex
	week    models.WeekHours
	draft   models.WeekHours
	editing bool
}

func NewHoursService(api domain.HoursAPI, clock domain.Clock, logger zerolog.Logger) *HoursService {
	return &HoursService{
		api:    api,
		clock:  clock,
		logger: logger,
		week:   models.DefaultWeekHours(),
	}
}

// Load fetches the stored schedule; an empty backend answer falls back to the
// stock hours.
func (s *HoursService) Load(ctx context.Context) error {
	week, err := s.api.GetWeekHours(ctx)
	if err != nil {
		return fmt.Errorf("load week hours: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(week) > 0 {
		s.week = week
	}
	return nil
}

// Week returns a copy of the effective schedule: the draft while editing,
// the saved schedule otherwise.
func (s *HoursService) Week() models.WeekHours {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.week
	if s.editing {
		src = s.draft
	}
	return append(models.WeekHours(nil), src...)
}

// BeginEdit snapshots the schedule into a draft.
func (s *HoursService) BeginEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = append(models.WeekHours(nil), s.week...)
	s.editing = true
}

// CancelEdit throws the draft away.
func (s *HoursService) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
	s.editing = false
}

// SetDay updates one weekday in the draft. An open day needs valid slot
// labels with the opening before the closing; a closed day carries no times.
func (s *HoursService) SetDay(day models.DayHours) error {
	if err := validateDay(day); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editing {
		return ErrNotEditing
	}
	for i := range s.draft {
		if s.draft[i].Day == day.Day {
			s.draft[i] = day
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownDay, day.Day)
}

func validateDay(day models.DayHours) error {
	if !day.IsOpen {
		if day.Open != "" || day.Close != "" {
			return fmt.Errorf("%w: closed day %s must not carry times", ErrInvalidHours, day.Day)
		}
		return nil
	}
	if !models.ValidTimeSlot(day.Open) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, day.Open)
	}
	if !models.ValidTimeSlot(day.Close) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, day.Close)
	}
	open, err := models.LabelMinutes(day.Open)
	if err != nil {
		return err
	}
	closing, err := models.LabelMinutes(day.Close)
	if err != nil {
		return err
	}
	if open >= closing {
		return fmt.Errorf("%w: %s opens at %s but closes at %s", ErrInvalidHours, day.Day, day.Open, day.Close)
	}
	return nil
}

// Save pushes the draft to the backend and promotes it on success. On
// failure the editing session stays open so the user can retry or cancel.
func (s *HoursService) Save(ctx context.Context) error {
	s.mu.Lock()
	if !s.editing {
		s.mu.Unlock()
		return ErrNotEditing
	}
	draft := append(models.WeekHours(nil), s.draft...)
	s.mu.Unlock()

	if err := s.api.SaveWeekHours(ctx, draft); err != nil {
		return fmt.Errorf("save week hours: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.week = draft
	s.draft = nil
	s.editing = false
	s.logger.Info().Msg("week hours saved")
	return nil
}

// OpenNow reports whether the workshop is open at the clock's current moment,
// based on the saved schedule.
func (s *HoursService) OpenNow() bool {
	now := s.clock.Now()
	day := now.Weekday().String()
	minutes := now.Hour()*60 + now.Minute()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.week {
		if d.Day != day {
			continue
		}
		if !d.IsOpen {
			return false
		}
		open, err := models.LabelMinutes(d.Open)
		if err != nil {
			return false
		}
		closing, err := models.LabelMinutes(d.Close)
		if err != nil {
			return false
		}
		return minutes >= open && minutes <= closing
	}
	return false
}
