// Package report derives read-only views over the attendance ledger. It
// owns no state: every view is a pure function of the ledger's contents.
package report

import (
	"context"
	"math"
	"time"

	"acadence/internal/ledger"
)

// LowAttendanceThreshold is the percentage below which a student is flagged
// in the school-wide statistics.
const LowAttendanceThreshold = 75.0

// Engine computes aggregate views.
type Engine struct {
	records ledger.Ledger
}

// NewEngine creates an engine reading from records.
func NewEngine(records ledger.Ledger) *Engine {
	return &Engine{records: records}
}

// Overview is a student's attendance across all subjects. Only days with a
// ledger entry count; no synthetic absences are fabricated.
type Overview struct {
	TotalClasses         int `json:"totalClasses"`
	AttendedClasses      int `json:"attendedClasses"`
	AttendancePercentage int `json:"attendancePercentage"`
}

// SubjectStats is the per-subject slice of an overview.
type SubjectStats struct {
	Subject              string `json:"subject"`
	TotalClasses         int    `json:"totalClasses"`
	AttendedClasses      int    `json:"attendedClasses"`
	AttendancePercentage int    `json:"attendancePercentage"`
}

// StudentOverview returns the student's overall counts and percentage.
func (e *Engine) StudentOverview(ctx context.Context, studentID string) (Overview, error) {
	overview, _, err := e.StudentReport(ctx, studentID, "")
	return overview, err
}

// StudentSubjectBreakdown returns per-subject counts and percentages.
func (e *Engine) StudentSubjectBreakdown(ctx context.Context, studentID string) ([]SubjectStats, error) {
	_, breakdown, err := e.StudentReport(ctx, studentID, "")
	return breakdown, err
}

// StudentReport returns overview and subject breakdown in one ledger read.
// An empty subject means no filter.
func (e *Engine) StudentReport(ctx context.Context, studentID, subject string) (Overview, []SubjectStats, error) {
	recs, err := e.records.FindByStudent(ctx, studentID, subject)
	if err != nil {
		return Overview{}, nil, err
	}

	total, attended := 0, 0
	bySubject := map[string]*SubjectStats{}
	var order []string
	for _, rec := range recs {
		total++
		st, ok := bySubject[rec.Subject]
		if !ok {
			st = &SubjectStats{Subject: rec.Subject}
			bySubject[rec.Subject] = st
			order = append(order, rec.Subject)
		}
		st.TotalClasses++
		if rec.Status == ledger.StatusPresent {
			attended++
			st.AttendedClasses++
		}
	}

	breakdown := make([]SubjectStats, 0, len(order))
	for _, subj := range order {
		st := bySubject[subj]
		st.AttendancePercentage = roundPercent(st.AttendedClasses, st.TotalClasses)
		breakdown = append(breakdown, *st)
	}

	overview := Overview{
		TotalClasses:         total,
		AttendedClasses:      attended,
		AttendancePercentage: roundPercent(attended, total),
	}
	return overview, breakdown, nil
}

// StudentEntry is one student's row inside a class group.
type StudentEntry struct {
	StudentID string    `json:"studentId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ClassGroup is one (day, subject) cell of the teacher view.
type ClassGroup struct {
	Date         string         `json:"date"`
	Subject      string         `json:"subject"`
	PresentCount int            `json:"presentCount"`
	AbsentCount  int            `json:"absentCount"`
	Students     []StudentEntry `json:"students"`
}

// ClassSummary rolls up the groups.
type ClassSummary struct {
	TotalStudents int `json:"totalStudents"`
	PresentCount  int `json:"presentCount"`
	AbsentCount   int `json:"absentCount"`
}

// TeacherClassSummary groups the teacher's records by (day, subject), day
// descending then timestamp descending. Empty subject / zero day mean no
// filter.
func (e *Engine) TeacherClassSummary(ctx context.Context, teacherID, subject string, day time.Time) (ClassSummary, []ClassGroup, error) {
	recs, err := e.records.FindByTeacher(ctx, teacherID, subject, day)
	if err != nil {
		return ClassSummary{}, nil, err
	}

	// Records arrive day desc, timestamp desc; first-seen group order
	// preserves that.
	byKey := map[string]int{}
	var groups []ClassGroup
	for _, rec := range recs {
		dateKey := ledger.DayKey(rec.Day)
		key := dateKey + "_" + rec.Subject
		idx, ok := byKey[key]
		if !ok {
			idx = len(groups)
			byKey[key] = idx
			groups = append(groups, ClassGroup{Date: dateKey, Subject: rec.Subject})
		}
		g := &groups[idx]
		if rec.Status == ledger.StatusPresent {
			g.PresentCount++
		} else {
			g.AbsentCount++
		}
		g.Students = append(g.Students, StudentEntry{
			StudentID: rec.StudentID,
			Status:    rec.Status,
			Timestamp: rec.Timestamp,
		})
	}

	var summary ClassSummary
	for _, g := range groups {
		summary.PresentCount += g.PresentCount
		summary.AbsentCount += g.AbsentCount
	}
	summary.TotalStudents = summary.PresentCount + summary.AbsentCount
	return summary, groups, nil
}

// roundPercent rounds to the nearest integer; zero totals yield zero.
func roundPercent(attended, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(attended) / float64(total)))
}
