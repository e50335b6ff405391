package httpapi

import (
	"net/http"
	"strconv"

	"github.com/goliatone/go-reservation-cache/domain"
)

func (a *API) getRestaurant(w http.ResponseWriter, r *http.Request) {
	rid, err := idParam(r, "restaurantID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	restaurant, err := a.store.Restaurant(r.Context(), rid)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondRead(w, r, restaurant)
}

func (a *API) listTables(w http.ResponseWriter, r *http.Request) {
	rid, err := idParam(r, "restaurantID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	tables, err := a.store.Tables(r.Context(), rid)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondRead(w, r, tables)
}

func (a *API) listGuests(w http.ResponseWriter, r *http.Request) {
	rid, err := idParam(r, "restaurantID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	guests, err := a.store.Guests(r.Context(), rid)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondRead(w, r, guests)
}

// listReservations returns every reservation of the restaurant, or those of
// one day when ?date= is given.
func (a *API) listReservations(w http.ResponseWriter, r *http.Request) {
	rid, err := idParam(r, "restaurantID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	var reservations []domain.Reservation
	if r.URL.Query().Has("date") {
		day, derr := dateQuery(r)
		if derr != nil {
			a.respondError(w, r, derr)
			return
		}
		reservations, err = a.store.ReservationsOn(r.Context(), rid, day)
	} else {
		reservations, err = a.store.Reservations(r.Context(), rid)
	}
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondRead(w, r, reservations)
}

func (a *API) tableAvailability(w http.ResponseWriter, r *http.Request) {
	rid, err := idParam(r, "restaurantID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	day, err := dateQuery(r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	view, err := a.store.TableAvailability(r.Context(), rid, day)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondRead(w, r, view)
}

func (a *API) availableTimeSlots(w http.ResponseWriter, r *http.Request) {
	rid, err := idParam(r, "restaurantID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	day, err := dateQuery(r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	guests, err := strconv.Atoi(r.URL.Query().Get("guests"))
	if err != nil || guests <= 0 {
		a.respondError(w, r, badRequestf("guests must be a positive number"))
		return
	}
	slots, err := a.store.AvailableTimeSlots(r.Context(), rid, day, guests)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondRead(w, r, slots)
}

func (a *API) reservationStats(w http.ResponseWriter, r *http.Request) {
	rid, err := idParam(r, "restaurantID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	filter := domain.StatsFilter{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	for _, bound := range []string{filter.From, filter.To} {
		if bound == "" {
			continue
		}
		if _, perr := domain.ParseDate(bound); perr != nil {
			a.respondError(w, r, badRequestf("from and to must match %s", domain.DateLayout))
			return
		}
	}
	stats, err := a.store.ReservationStats(r.Context(), rid, filter)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondRead(w, r, stats)
}

func (a *API) getReservation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "reservationID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	res, err := a.store.Reservation(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondRead(w, r, res)
}
