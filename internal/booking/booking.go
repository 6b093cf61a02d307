// Package booking runs the yoga studio's course booking over LINE.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/EasterCompany/dex-athena-service/templates"
	"github.com/EasterCompany/dex-athena-service/utils"
	"github.com/google/uuid"
)

var (
	ErrCourseFull    = errors.New("course is fully booked")
	ErrUnknownCourse = errors.New("unknown course")
)

const StudioName = "九容瑜伽"

type Course struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"` // minutes
	Price    int    `json:"price"`
	Capacity int    `json:"capacity"`
}

type Slot struct {
	CourseID   string `json:"course_id"`
	Day        string `json:"day"`
	Time       string `json:"time"`
	Instructor string `json:"instructor"`
}

var Courses = []Course{
	{"1", "朝陽瑜伽", 45, 300, 15},
	{"2", "寧靜冥想", 60, 350, 12},
	{"3", "力量瑜伽", 50, 380, 15},
	{"4", "柔和伸展", 45, 300, 15},
	{"5", "心靈醒覺", 75, 400, 15},
	{"6", "親子瑜伽", 40, 250, 10},
}

var Schedule = []Slot{
	{"1", "周一", "07:00", "李老師"},
	{"2", "周二", "10:00", "陳老師"},
	{"3", "周三", "18:00", "林教練"},
	{"4", "周四", "09:00", "楊老師"},
	{"5", "周五", "19:30", "劉老師"},
	{"6", "周六", "08:00", "李老師"},
}

// Booking is one bookings record.
type Booking struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	CourseID    string `json:"course_id"`
	CourseName  string `json:"course_name"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	BookingTime string `json:"booking_time"`
	Status      string `json:"status"`
}

// FindCourse matches a course by id or exact name.
func FindCourse(ref string) (Course, bool) {
	ref = strings.TrimSpace(ref)
	for _, c := range Courses {
		if c.ID == ref || c.Name == ref {
			return c, true
		}
	}
	return Course{}, false
}

func slotFor(courseID string) Slot {
	for _, s := range Schedule {
		if s.CourseID == courseID {
			return s
		}
	}
	return Slot{}
}

// Service books courses against the bookings collection.
type Service struct {
	store storage.Store
	loc   *time.Location
	now   func() time.Time

	mu sync.Mutex
}

func NewService(store storage.Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: store, loc: loc, now: time.Now}
}

func (s *Service) all(ctx context.Context) ([]Booking, error) {
	return storage.AllAs[Booking](ctx, s.store, storage.Bookings)
}

// Book reserves today's session of a course for userID.
func (s *Service) Book(ctx context.Context, userID, courseRef string) (Booking, error) {
	course, ok := FindCourse(courseRef)
	if !ok {
		return Booking{}, ErrUnknownCourse
	}
	now := s.now().In(s.loc)
	date := now.Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.all(ctx)
	if err != nil {
		return Booking{}, fmt.Errorf("failed to load bookings: %w", err)
	}
	taken := 0
	for _, b := range existing {
		if b.CourseID == course.ID && b.Date == date {
			taken++
		}
	}
	if taken >= course.Capacity {
		return Booking{}, ErrCourseFull
	}

	b := Booking{
		ID:          uuid.New().String(),
		UserID:      userID,
		CourseID:    course.ID,
		CourseName:  course.Name,
		Date:        date,
		Time:        slotFor(course.ID).Time,
		BookingTime: now.Format("2006/01/02 15:04:05"),
		Status:      "pending",
	}
	if err := storage.AppendCapped(ctx, s.store, storage.Bookings, b); err != nil {
		return Booking{}, fmt.Errorf("failed to save booking: %w", err)
	}
	utils.SendEvent(ctx, s.store, utils.ServiceName, templates.EventBookingCreated, map[string]interface{}{
		"course":  b.CourseName,
		"user_id": b.UserID,
		"date":    b.Date,
	})
	return b, nil
}

// UserBookings returns a user's bookings, oldest first.
func (s *Service) UserBookings(ctx context.Context, userID string) ([]Booking, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	var out []Booking
	for _, b := range all {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// Remaining returns open seats per course id for today.
func (s *Service) Remaining(ctx context.Context) (map[string]int, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	date := s.now().In(s.loc).Format("2006-01-02")
	left := make(map[string]int, len(Courses))
	for _, c := range Courses {
		left[c.ID] = c.Capacity
	}
	for _, b := range all {
		if b.Date == date {
			left[b.CourseID]--
		}
	}
	for id, n := range left {
		left[id] = max(0, n)
	}
	return left, nil
}
