package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"service-attendance/internal/domain"
	"service-attendance/internal/repository"
)

// LowAttendanceThreshold is the percentage below which a student's aggregate
// raises a transient alert.
const LowAttendanceThreshold = 75

// StatsService derives aggregates from the ledger. Nothing here is cached or
// persisted; every call recomputes from raw records.
type StatsService struct {
	txManager repository.TxManager
	directory DirectoryClient
}

func NewStatsService(txManager repository.TxManager, directory DirectoryClient) *StatsService {
	return &StatsService{
		txManager: txManager,
		directory: directory,
	}
}

// Percentage rounds present/total to the nearest whole percent, half up.
// Zero records yield zero.
func Percentage(records []domain.AttendanceRecord) int {
	if len(records) == 0 {
		return 0
	}
	present := 0
	for _, record := range records {
		if record.Present {
			present++
		}
	}
	return int(math.Round(100 * float64(present) / float64(len(records))))
}

// StudentPercentage computes a student's overall percentage in the range.
func (s *StatsService) StudentPercentage(ctx context.Context, studentID uuid.UUID, from, to *time.Time) (int, error) {
	var records []domain.AttendanceRecord
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		records, err = repos.Records.ListByStudent(ctx, studentID, from, to)
		return err
	})
	if err != nil {
		return 0, err
	}
	return Percentage(records), nil
}

// PerSubjectBreakdown groups a class's records in the range by subject.
func (s *StatsService) PerSubjectBreakdown(ctx context.Context, classID uuid.UUID, from, to *time.Time) ([]domain.SubjectBreakdown, error) {
	members, err := s.directory.ClassMembers(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	var records []domain.AttendanceRecord
	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		records, err = repos.Records.ListByStudents(ctx, members, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]domain.AttendanceRecord)
	for _, record := range records {
		grouped[record.Subject] = append(grouped[record.Subject], record)
	}

	breakdown := make([]domain.SubjectBreakdown, 0, len(grouped))
	for subject, subjectRecords := range grouped {
		present := 0
		for _, record := range subjectRecords {
			if record.Present {
				present++
			}
		}
		breakdown = append(breakdown, domain.SubjectBreakdown{
			Subject:         subject,
			TotalSessions:   len(subjectRecords),
			PresentSessions: present,
			Percentage:      Percentage(subjectRecords),
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Subject < breakdown[j].Subject
	})

	return breakdown, nil
}

// DailyActivity summarizes each class's attendance for one calendar day.
// A student present for several subjects that day counts once.
func (s *StatsService) DailyActivity(ctx context.Context, date time.Time) ([]domain.DailyClassActivity, error) {
	classes, err := s.directory.ListClasses(ctx)
	if err != nil {
		return nil, err
	}

	var records []domain.AttendanceRecord
	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		records, err = repos.Records.ListByDate(ctx, domain.DateOnly(date))
		return err
	})
	if err != nil {
		return nil, err
	}

	presentStudents := make(map[uuid.UUID]bool)
	for _, record := range records {
		if record.Present {
			presentStudents[record.StudentID] = true
		}
	}

	activity := make([]domain.DailyClassActivity, 0, len(classes))
	for _, class := range classes {
		members, err := s.directory.ClassMembers(ctx, class.ID)
		if err != nil {
			return nil, err
		}
		present := 0
		for _, studentID := range members {
			if presentStudents[studentID] {
				present++
			}
		}
		activity = append(activity, domain.DailyClassActivity{
			ClassID:       class.ID,
			TotalStudents: len(members),
			PresentCount:  present,
			AbsentCount:   len(members) - present,
		})
	}

	return activity, nil
}

// LowAttendanceAlerts recomputes, for every member of the class, whether the
// overall percentage sits below the threshold. Alerts are transient: they are
// never stored and never deduplicated, because a low aggregate is a
// continuously true condition rather than a discrete event.
func (s *StatsService) LowAttendanceAlerts(ctx context.Context, classID uuid.UUID, from, to *time.Time) ([]domain.LowAttendanceAlert, error) {
	members, err := s.directory.ClassMembers(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	var records []domain.AttendanceRecord
	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		records, err = repos.Records.ListByStudents(ctx, members, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	byStudent := make(map[uuid.UUID][]domain.AttendanceRecord)
	for _, record := range records {
		byStudent[record.StudentID] = append(byStudent[record.StudentID], record)
	}

	var alerts []domain.LowAttendanceAlert
	for _, studentID := range members {
		studentRecords := byStudent[studentID]
		// No recorded sessions means there is nothing to alert on, even
		// though the percentage for such a student reads as 0.
		if len(studentRecords) == 0 {
			continue
		}
		percentage := Percentage(studentRecords)
		if percentage < LowAttendanceThreshold {
			alerts = append(alerts, domain.LowAttendanceAlert{
				StudentID:  studentID,
				Percentage: percentage,
				Threshold:  LowAttendanceThreshold,
			})
		}
	}

	return alerts, nil
}
