package report

import (
	"context"
	"testing"
	"time"

	"acadence/internal/ledger"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, l ledger.Ledger, recs ...ledger.Record) {
	t.Helper()
	for _, r := range recs {
		if r.Status == "" {
			r.Status = ledger.StatusPresent
		}
		if r.Timestamp.IsZero() {
			r.Timestamp = r.Day.Add(9 * time.Hour)
		}
		if r.TeacherID == "" {
			r.TeacherID = "t1"
		}
		if _, err := l.Insert(context.Background(), r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestStudentReport(t *testing.T) {
	t.Parallel()

	t.Run("counts only days the ledger actually has", func(t *testing.T) {
		t.Parallel()
		l := ledger.NewMemoryLedger()
		seed(t, l,
			ledger.Record{StudentID: "s1", Subject: "Math", Day: day(4)},
			ledger.Record{StudentID: "s1", Subject: "Physics", Day: day(4)},
		)

		engine := NewEngine(l)
		overview, err := engine.StudentOverview(context.Background(), "s1")
		if err != nil {
			t.Fatalf("StudentOverview: %v", err)
		}
		want := Overview{TotalClasses: 2, AttendedClasses: 2, AttendancePercentage: 100}
		if overview != want {
			t.Errorf("overview = %+v, want %+v", overview, want)
		}

		breakdown, err := engine.StudentSubjectBreakdown(context.Background(), "s1")
		if err != nil {
			t.Fatalf("StudentSubjectBreakdown: %v", err)
		}
		if len(breakdown) != 2 {
			t.Fatalf("breakdown has %d subjects, want 2", len(breakdown))
		}
		for _, st := range breakdown {
			if st.AttendancePercentage != 100 || st.TotalClasses != 1 {
				t.Errorf("%s = %+v, want 1 class at 100%%", st.Subject, st)
			}
		}
	})

	t.Run("empty ledger yields zero percentage, not division by zero", func(t *testing.T) {
		t.Parallel()
		engine := NewEngine(ledger.NewMemoryLedger())
		overview, err := engine.StudentOverview(context.Background(), "ghost")
		if err != nil {
			t.Fatalf("StudentOverview: %v", err)
		}
		if overview != (Overview{}) {
			t.Errorf("overview = %+v, want all zeros", overview)
		}
	})

	t.Run("mixed statuses split attended from total", func(t *testing.T) {
		t.Parallel()
		l := ledger.NewMemoryLedger()
		seed(t, l,
			ledger.Record{StudentID: "s1", Subject: "Math", Day: day(4)},
			ledger.Record{StudentID: "s1", Subject: "Math", Day: day(5), Status: ledger.StatusAbsent},
			ledger.Record{StudentID: "s1", Subject: "Math", Day: day(6)},
		)

		overview, breakdown, err := NewEngine(l).StudentReport(context.Background(), "s1", "")
		if err != nil {
			t.Fatalf("StudentReport: %v", err)
		}
		if overview.TotalClasses != 3 || overview.AttendedClasses != 2 || overview.AttendancePercentage != 67 {
			t.Errorf("overview = %+v, want 2/3 at 67", overview)
		}
		if len(breakdown) != 1 || breakdown[0].AttendancePercentage != 67 {
			t.Errorf("breakdown = %+v", breakdown)
		}
	})

	t.Run("subject filter narrows both views", func(t *testing.T) {
		t.Parallel()
		l := ledger.NewMemoryLedger()
		seed(t, l,
			ledger.Record{StudentID: "s1", Subject: "Math", Day: day(4)},
			ledger.Record{StudentID: "s1", Subject: "Physics", Day: day(4)},
		)

		overview, breakdown, err := NewEngine(l).StudentReport(context.Background(), "s1", "Math")
		if err != nil {
			t.Fatalf("StudentReport: %v", err)
		}
		if overview.TotalClasses != 1 {
			t.Errorf("overview = %+v, want 1 class", overview)
		}
		if len(breakdown) != 1 || breakdown[0].Subject != "Math" {
			t.Errorf("breakdown = %+v, want Math only", breakdown)
		}
	})
}

func TestRounding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		attended, total, want int
	}{
		{9, 10, 90},
		{1, 3, 33},  // 33.33 rounds down
		{2, 3, 67},  // 66.67 rounds up
		{1, 2, 50},
		{0, 5, 0},
		{0, 0, 0},
		{5, 5, 100},
	}
	for _, tc := range cases {
		if got := roundPercent(tc.attended, tc.total); got != tc.want {
			t.Errorf("roundPercent(%d, %d) = %d, want %d", tc.attended, tc.total, got, tc.want)
		}
	}
}

func TestTeacherClassSummary(t *testing.T) {
	t.Parallel()

	l := ledger.NewMemoryLedger()
	seed(t, l,
		ledger.Record{StudentID: "s1", Subject: "Math", Day: day(4), Timestamp: day(4).Add(9 * time.Hour)},
		ledger.Record{StudentID: "s2", Subject: "Math", Day: day(4), Timestamp: day(4).Add(9*time.Hour + 2*time.Minute)},
		ledger.Record{StudentID: "s3", Subject: "Math", Day: day(4), Status: ledger.StatusAbsent, Timestamp: day(4).Add(10 * time.Hour)},
		ledger.Record{StudentID: "s1", Subject: "Physics", Day: day(4), Timestamp: day(4).Add(11 * time.Hour)},
		ledger.Record{StudentID: "s1", Subject: "Math", Day: day(5), Timestamp: day(5).Add(9 * time.Hour)},
	)

	engine := NewEngine(l)

	t.Run("groups by day and subject, newest first", func(t *testing.T) {
		summary, groups, err := engine.TeacherClassSummary(context.Background(), "t1", "", time.Time{})
		if err != nil {
			t.Fatalf("TeacherClassSummary: %v", err)
		}
		if summary.TotalStudents != 5 || summary.PresentCount != 4 || summary.AbsentCount != 1 {
			t.Errorf("summary = %+v", summary)
		}
		if len(groups) != 3 {
			t.Fatalf("got %d groups, want 3", len(groups))
		}
		if groups[0].Date != "2024-03-05" {
			t.Errorf("first group date = %s, want newest day first", groups[0].Date)
		}

		// Within a group students arrive timestamp-descending.
		for _, g := range groups {
			if g.Date == "2024-03-04" && g.Subject == "Math" {
				if g.PresentCount != 2 || g.AbsentCount != 1 {
					t.Errorf("math group counts = %d/%d", g.PresentCount, g.AbsentCount)
				}
				if len(g.Students) != 3 || g.Students[0].StudentID != "s3" {
					t.Errorf("math group students = %+v", g.Students)
				}
			}
		}
	})

	t.Run("subject and day filters", func(t *testing.T) {
		summary, groups, err := engine.TeacherClassSummary(context.Background(), "t1", "Math", day(4))
		if err != nil {
			t.Fatalf("TeacherClassSummary: %v", err)
		}
		if len(groups) != 1 {
			t.Fatalf("got %d groups, want 1", len(groups))
		}
		if summary.TotalStudents != 3 {
			t.Errorf("summary = %+v, want 3 students", summary)
		}
	})

	t.Run("unknown teacher yields empty views", func(t *testing.T) {
		summary, groups, err := engine.TeacherClassSummary(context.Background(), "t9", "", time.Time{})
		if err != nil {
			t.Fatalf("TeacherClassSummary: %v", err)
		}
		if summary.TotalStudents != 0 || len(groups) != 0 {
			t.Errorf("got %+v / %d groups, want empty", summary, len(groups))
		}
	})
}

func TestAdminStatistics(t *testing.T) {
	t.Parallel()

	l := ledger.NewMemoryLedger()
	// s1: 1/3 present (33.33), s2: 2/2 (100).
	seed(t, l,
		ledger.Record{StudentID: "s1", Subject: "Math", Day: day(4)},
		ledger.Record{StudentID: "s1", Subject: "Math", Day: day(5), Status: ledger.StatusAbsent},
		ledger.Record{StudentID: "s1", Subject: "Math", Day: day(6), Status: ledger.StatusAbsent},
		ledger.Record{StudentID: "s2", Subject: "Math", Day: day(4)},
		ledger.Record{StudentID: "s2", Subject: "Math", Day: day(5)},
	)

	stats, err := NewEngine(l).AdminStatistics(context.Background())
	if err != nil {
		t.Fatalf("AdminStatistics: %v", err)
	}
	if stats.TotalRecords != 5 {
		t.Errorf("TotalRecords = %d", stats.TotalRecords)
	}
	if len(stats.Students) != 2 || stats.Students[0].StudentID != "s2" {
		t.Fatalf("students = %+v, want best rate first", stats.Students)
	}
	// Admin views round to two decimals, not whole percent.
	if got := stats.Students[1].Percentage; got != 33.33 {
		t.Errorf("s1 percentage = %v, want 33.33", got)
	}
	if len(stats.BelowThreshold) != 1 || stats.BelowThreshold[0].StudentID != "s1" {
		t.Errorf("belowThreshold = %+v, want s1 only", stats.BelowThreshold)
	}
	if want := 66.67; stats.AverageAttendance != want {
		t.Errorf("AverageAttendance = %v, want %v", stats.AverageAttendance, want)
	}
}
