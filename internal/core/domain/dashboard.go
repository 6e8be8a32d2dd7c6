package domain

type DashboardStats struct {
	TotalHabits       int `json:"totalHabits"`
	TotalXP           int `json:"totalXP"`
	LongestStreak     int `json:"longestStreak"`
	CompletedToday    int `json:"completedToday"`
	CompletedThisWeek int `json:"completedThisWeek"`
	MissedToday       int `json:"missedToday"`
}

// Aggregate folds the habits into dashboard stats. Dates are YYYY-MM-DD, so
// the week range check is a plain string comparison.
func Aggregate(habits []*Habit, today, weekStart string) DashboardStats {
	var stats DashboardStats

	for _, h := range habits {
		if h == nil {
			continue
		}

		stats.TotalHabits++
		stats.TotalXP += h.XP
		if h.Streak > stats.LongestStreak {
			stats.LongestStreak = h.Streak
		}

		if h.CompletedOn(today) {
			stats.CompletedToday++
		} else {
			stats.MissedToday++
		}

		for _, d := range h.CompletionLog {
			if d >= weekStart && d <= today {
				stats.CompletedThisWeek++
			}
		}
	}

	return stats
}
