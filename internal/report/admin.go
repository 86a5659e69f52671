package report

import (
	"context"
	"math"
	"sort"

	"acadence/internal/ledger"
)

// StudentPercentage is one student's school-wide attendance rate. Admin
// reports use two-decimal precision, unlike the integer student views.
type StudentPercentage struct {
	StudentID      string  `json:"studentId"`
	TotalRecords   int     `json:"totalRecords"`
	PresentRecords int     `json:"presentRecords"`
	Percentage     float64 `json:"percentage"`
}

// AdminStats is the school-wide attendance report.
type AdminStats struct {
	TotalRecords      int                 `json:"totalRecords"`
	AverageAttendance float64             `json:"averageAttendance"`
	Students          []StudentPercentage `json:"students"`
	BelowThreshold    []StudentPercentage `json:"belowThreshold"`
}

// AdminStatistics computes per-student rates, the average, and the list of
// students under the threshold, best rate first.
func (e *Engine) AdminStatistics(ctx context.Context) (AdminStats, error) {
	recs, err := e.records.All(ctx)
	if err != nil {
		return AdminStats{}, err
	}

	type counts struct{ total, present int }
	byStudent := map[string]*counts{}
	for _, rec := range recs {
		c, ok := byStudent[rec.StudentID]
		if !ok {
			c = &counts{}
			byStudent[rec.StudentID] = c
		}
		c.total++
		if rec.Status == ledger.StatusPresent {
			c.present++
		}
	}

	stats := AdminStats{TotalRecords: len(recs)}
	sum := 0.0
	for id, c := range byStudent {
		pct := 0.0
		if c.total > 0 {
			pct = 100 * float64(c.present) / float64(c.total)
		}
		sum += pct
		sp := StudentPercentage{
			StudentID:      id,
			TotalRecords:   c.total,
			PresentRecords: c.present,
			Percentage:     round2(pct),
		}
		stats.Students = append(stats.Students, sp)
		if sp.Percentage < LowAttendanceThreshold && c.total > 0 {
			stats.BelowThreshold = append(stats.BelowThreshold, sp)
		}
	}

	sort.Slice(stats.Students, func(i, j int) bool {
		if stats.Students[i].Percentage != stats.Students[j].Percentage {
			return stats.Students[i].Percentage > stats.Students[j].Percentage
		}
		return stats.Students[i].StudentID < stats.Students[j].StudentID
	})
	sort.Slice(stats.BelowThreshold, func(i, j int) bool {
		if stats.BelowThreshold[i].Percentage != stats.BelowThreshold[j].Percentage {
			return stats.BelowThreshold[i].Percentage < stats.BelowThreshold[j].Percentage
		}
		return stats.BelowThreshold[i].StudentID < stats.BelowThreshold[j].StudentID
	})

	if len(byStudent) > 0 {
		stats.AverageAttendance = round2(sum / float64(len(byStudent)))
	}
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
