package domain

import (
	"sort"
)

// TableAvailability is the per-table view of a restaurant on one day.
type TableAvailability struct {
	TableID  int64       `json:"table_id"`
	Number   int         `json:"number"`
	Seats    int         `json:"seats"`
	Status   TableStatus `json:"status"`
	Booked   []string    `json:"booked"`
	Free     []string    `json:"free"`
	Bookable bool        `json:"bookable"`
}

// AvailableSlot is a start time with the tables still free at that time.
type AvailableSlot struct {
	Time     string  `json:"time"`
	TableIDs []int64 `json:"table_ids"`
}

// StatsFilter narrows dashboard statistics to a date range. Empty bounds are open.
type StatsFilter struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Includes reports whether date falls inside the filter. Dates compare
// lexically because DateLayout is fixed width.
func (f StatsFilter) Includes(date string) bool {
	if f.From != "" && date < f.From {
		return false
	}
	if f.To != "" && date > f.To {
		return false
	}
	return true
}

// DashboardStats summarises a restaurant's reservations.
type DashboardStats struct {
	Total       int                       `json:"total"`
	ByStatus    map[ReservationStatus]int `json:"by_status"`
	Covers      int                       `json:"covers"`
	AverageSize float64                   `json:"average_size"`
	BusiestDay  string                    `json:"busiest_day,omitempty"`
}

// BuildTableAvailability combines tables, the restaurant's slot grid and the
// reservations of one day. Only reservations whose status still holds a
// table count as booked.
func BuildTableAvailability(slots []string, tables []Table, reservations []Reservation) []TableAvailability {
	booked := make(map[int64]map[string]struct{}, len(tables))
	for _, r := range reservations {
		if r.TableID == nil || !r.Status.Holds() {
			continue
		}
		if booked[*r.TableID] == nil {
			booked[*r.TableID] = map[string]struct{}{}
		}
		booked[*r.TableID][r.Time] = struct{}{}
	}

	out := make([]TableAvailability, 0, len(tables))
	for _, t := range tables {
		view := TableAvailability{
			TableID:  t.ID,
			Number:   t.Number,
			Seats:    t.Seats,
			Status:   t.Status,
			Booked:   []string{},
			Free:     []string{},
			Bookable: t.Status != TableUnavailable,
		}
		for _, s := range slots {
			if _, ok := booked[t.ID][s]; ok {
				view.Booked = append(view.Booked, s)
			} else if view.Bookable {
				view.Free = append(view.Free, s)
			}
		}
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// BuildAvailableSlots groups free time slots by start time, keeping only
// tables that seat the party.
func BuildAvailableSlots(slots []TimeSlot, tables []Table, guests int) []AvailableSlot {
	seats := make(map[int64]Table, len(tables))
	for _, t := range tables {
		seats[t.ID] = t
	}

	byTime := map[string][]int64{}
	for _, s := range slots {
		if s.Status != SlotFree {
			continue
		}
		t, ok := seats[s.TableID]
		if !ok || !t.Bookable(guests) {
			continue
		}
		byTime[s.Time] = append(byTime[s.Time], s.TableID)
	}

	out := make([]AvailableSlot, 0, len(byTime))
	for at, ids := range byTime {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out = append(out, AvailableSlot{Time: at, TableIDs: ids})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// BuildDashboardStats summarises reservations that fall inside f. Canceled
// reservations are counted by status but add no covers.
func BuildDashboardStats(reservations []Reservation, f StatsFilter) DashboardStats {
	stats := DashboardStats{ByStatus: map[ReservationStatus]int{}}
	perDay := map[string]int{}
	parties := 0

	for _, r := range reservations {
		if !f.Includes(r.Date) {
			continue
		}
		stats.Total++
		stats.ByStatus[r.Status]++
		if r.Status == ReservationCanceled {
			continue
		}
		stats.Covers += r.Guests
		parties++
		perDay[r.Date] += r.Guests
	}

	if parties > 0 {
		stats.AverageSize = float64(stats.Covers) / float64(parties)
	}
	best := 0
	for day, covers := range perDay {
		if covers > best || (covers == best && day < stats.BusiestDay) {
			best, stats.BusiestDay = covers, day
		}
	}
	return stats
}
