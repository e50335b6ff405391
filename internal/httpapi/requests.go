package httpapi

import "github.com/goliatone/go-reservation-cache/domain"

type RestaurantRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Opens       string `json:"opens" validate:"required,datetime=15:04"`
	Closes      string `json:"closes" validate:"required,datetime=15:04"`
	MinGuests   int    `json:"min_guests" validate:"gte=0"`
	MaxGuests   int    `json:"max_guests" validate:"omitempty,gtefield=MinGuests"`
	SlotMinutes int    `json:"slot_minutes" validate:"omitempty,gt=0,lte=240"`
}

func (req RestaurantRequest) toDomain(id int64) *domain.Restaurant {
	return &domain.Restaurant{
		ID:          id,
		Name:        req.Name,
		Opens:       req.Opens,
		Closes:      req.Closes,
		MinGuests:   req.MinGuests,
		MaxGuests:   req.MaxGuests,
		SlotMinutes: req.SlotMinutes,
	}
}

type TableRequest struct {
	ID     int64  `json:"id" validate:"gte=0"`
	Number int    `json:"number" validate:"required,gt=0"`
	Seats  int    `json:"seats" validate:"required,gt=0"`
	Status string `json:"status" validate:"omitempty,oneof=free occupied reserved unavailable"`
}

func (req TableRequest) toDomain(restaurantID int64) *domain.Table {
	status := domain.TableStatus(req.Status)
	if status == "" {
		status = domain.TableFree
	}
	return &domain.Table{
		ID:           req.ID,
		RestaurantID: restaurantID,
		Number:       req.Number,
		Seats:        req.Seats,
		Status:       status,
	}
}

type GuestRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

// ReservationRequest books either a time slot, which fixes table, date and
// time, or an explicit date and time.
type ReservationRequest struct {
	GuestID    int64  `json:"guest_id" validate:"required,gt=0"`
	TimeSlotID *int64 `json:"time_slot_id" validate:"omitempty,gt=0"`
	TableID    *int64 `json:"table_id" validate:"omitempty,gt=0"`
	Date       string `json:"date" validate:"required_without=TimeSlotID,omitempty,datetime=2006-01-02"`
	Time       string `json:"time" validate:"required_without=TimeSlotID,omitempty,datetime=15:04"`
	Duration   int    `json:"duration" validate:"omitempty,gt=0"`
	Guests     int    `json:"guests" validate:"required,gt=0"`
}

type UpdateReservationRequest struct {
	ReservationRequest
	Status string `json:"status" validate:"omitempty,oneof=created confirmed canceled completed archived"`
}

func (req ReservationRequest) apply(r *domain.Reservation) {
	r.GuestID = req.GuestID
	r.TimeSlotID = req.TimeSlotID
	r.TableID = req.TableID
	r.Date = req.Date
	r.Time = req.Time
	r.Guests = req.Guests
	if req.Duration > 0 {
		r.Duration = req.Duration
	}
}
