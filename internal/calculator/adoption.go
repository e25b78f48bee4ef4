package calculator

import (
	"sort"
	"strings"
	"time"

	"github.com/devpulse/devpulse/internal/types"
)

// MemberActivity joins one roster member with their usage activity.
// DaysInactive is -1 for members who never produced an event.
type MemberActivity struct {
	Member       types.TeamMember `json:"member"`
	Events       int              `json:"events"`
	LastActivity *types.UTCTime   `json:"last_activity,omitempty"`
	DaysInactive int              `json:"days_inactive"`
}

type AdoptionMetrics struct {
	TotalMembers   int `json:"total_members"`
	ActiveSeats    int `json:"active_seats"`
	Owners         int `json:"owners"`
	RemovedMembers int `json:"removed_members"`

	TotalEvents  int     `json:"total_events"`
	ActiveUsers  int     `json:"active_users"`
	AdoptionRate float64 `json:"adoption_rate_pct"`

	// ActiveByMonth counts distinct users with at least one event per
	// month, oldest first.
	ActiveByMonth []MonthValue `json:"active_by_month"`

	TopUsers   []MemberActivity `json:"top_users"`
	Inactive30 []MemberActivity `json:"inactive_30_days"`
	Inactive60 []MemberActivity `json:"inactive_60_days"`
	Inactive90 []MemberActivity `json:"inactive_90_days"`
	NeverUsed  []MemberActivity `json:"never_used"`
}

// Adoption joins the team roster with cached usage events. Removed members
// are excluded from the inactive lists; activity from emails outside the
// roster still counts toward totals and the top-user ranking. A seat counts
// toward the adoption rate when it has an event within dormancyDays of ref.
func Adoption(members []types.TeamMember, months []MonthlyEvents, ref time.Time, topN, dormancyDays int) AdoptionMetrics {
	m := AdoptionMetrics{TotalMembers: len(members)}

	eventCount := make(map[string]int)
	lastSeen := make(map[string]types.UTCTime)
	activeByMonth := make(map[types.Month]map[string]bool)
	for _, me := range months {
		for _, ev := range me.Events {
			email := strings.ToLower(ev.UserEmail)
			if email == "" {
				continue
			}
			m.TotalEvents++
			eventCount[email]++
			if last, ok := lastSeen[email]; !ok || ev.Timestamp.After(last.Time) {
				lastSeen[email] = ev.Timestamp
			}
			if activeByMonth[me.Month] == nil {
				activeByMonth[me.Month] = make(map[string]bool)
			}
			activeByMonth[me.Month][email] = true
		}
	}
	m.ActiveUsers = len(eventCount)

	series := make(map[types.Month]float64, len(activeByMonth))
	for month, emails := range activeByMonth {
		series[month] = float64(len(emails))
	}
	m.ActiveByMonth = sortedSeries(series)

	var seated []types.TeamMember
	for _, member := range members {
		if member.Removed {
			m.RemovedMembers++
			continue
		}
		m.ActiveSeats++
		if strings.EqualFold(member.Role, "owner") {
			m.Owners++
		}
		seated = append(seated, member)
	}

	m.TopUsers = topByEvents(seated, eventCount, lastSeen, ref, topN)
	m.Inactive30 = inactiveSince(seated, lastSeen, ref, 30)
	m.Inactive60 = inactiveSince(seated, lastSeen, ref, 60)
	m.Inactive90 = inactiveSince(seated, lastSeen, ref, 90)
	m.NeverUsed = neverUsed(seated, eventCount)

	if m.ActiveSeats > 0 {
		dormant := len(inactiveSince(seated, lastSeen, ref, dormancyDays))
		m.AdoptionRate = float64(m.ActiveSeats-dormant) / float64(m.ActiveSeats) * 100
	}
	return m
}

func activity(member types.TeamMember, events int, last types.UTCTime, seen bool, ref time.Time) MemberActivity {
	a := MemberActivity{Member: member, Events: events, DaysInactive: -1}
	if seen {
		t := last
		a.LastActivity = &t
		a.DaysInactive = int(ref.UTC().Sub(last.Time).Hours() / 24)
	}
	return a
}

func topByEvents(members []types.TeamMember, eventCount map[string]int, lastSeen map[string]types.UTCTime, ref time.Time, topN int) []MemberActivity {
	byEmail := make(map[string]types.TeamMember, len(members))
	for _, member := range members {
		byEmail[strings.ToLower(member.Email)] = member
	}

	out := make([]MemberActivity, 0, len(eventCount))
	for email, count := range eventCount {
		member, ok := byEmail[email]
		if !ok {
			// Active user no longer on the roster; keep the email.
			member = types.TeamMember{Email: email}
		}
		last, seen := lastSeen[email]
		out = append(out, activity(member, count, last, seen, ref))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Events != out[j].Events {
			return out[i].Events > out[j].Events
		}
		return out[i].Member.Email < out[j].Member.Email
	})
	return truncate(out, topN)
}

func inactiveSince(members []types.TeamMember, lastSeen map[string]types.UTCTime, ref time.Time, thresholdDays int) []MemberActivity {
	cutoff := ref.UTC().AddDate(0, 0, -thresholdDays)
	var out []MemberActivity
	for _, member := range members {
		last, seen := lastSeen[strings.ToLower(member.Email)]
		if seen && !last.Before(cutoff) {
			continue
		}
		out = append(out, activity(member, 0, last, seen, ref))
	}
	// Longest-inactive first, never-used last, names break ties.
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DaysInactive, out[j].DaysInactive
		if (di < 0) != (dj < 0) {
			return dj < 0
		}
		if di != dj {
			return di > dj
		}
		return memberSortKey(out[i].Member) < memberSortKey(out[j].Member)
	})
	return out
}

func neverUsed(members []types.TeamMember, eventCount map[string]int) []MemberActivity {
	var out []MemberActivity
	for _, member := range members {
		if eventCount[strings.ToLower(member.Email)] > 0 {
			continue
		}
		out = append(out, MemberActivity{Member: member, DaysInactive: -1})
	}
	sort.Slice(out, func(i, j int) bool {
		return memberSortKey(out[i].Member) < memberSortKey(out[j].Member)
	})
	return out
}

func memberSortKey(m types.TeamMember) string {
	if m.Name != "" {
		return strings.ToLower(m.Name)
	}
	return strings.ToLower(m.Email)
}
