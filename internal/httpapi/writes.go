package httpapi

import (
	"net/http"

	"github.com/goliatone/go-reservation-cache/domain"
)

func (a *API) saveRestaurant(w http.ResponseWriter, r *http.Request) {
	rid, err := idParam(r, "restaurantID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	var req RestaurantRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	restaurant := req.toDomain(rid)
	if err := a.store.SaveRestaurant(r.Context(), restaurant); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, restaurant)
}

// saveTable creates the table when the body has no id and updates it otherwise.
func (a *API) saveTable(w http.ResponseWriter, r *http.Request) {
	rid, err := idParam(r, "restaurantID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	var req TableRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	status := http.StatusOK
	if req.ID == 0 {
		status = http.StatusCreated
	}
	table := req.toDomain(rid)
	if err := a.store.SaveTable(r.Context(), table); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, status, table)
}

func (a *API) deleteTable(w http.ResponseWriter, r *http.Request) {
	rid, err := idParam(r, "restaurantID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	tid, err := idParam(r, "tableID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := a.store.DeleteTable(r.Context(), rid, tid); err != nil {
		a.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) saveGuest(w http.ResponseWriter, r *http.Request) {
	gid, err := idParam(r, "guestID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	var req GuestRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	guest := &domain.Guest{ID: gid, Name: req.Name, Email: req.Email, Phone: req.Phone}
	if err := a.store.SaveGuest(r.Context(), guest); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, guest)
}

func (a *API) createReservation(w http.ResponseWriter, r *http.Request) {
	rid, err := idParam(r, "restaurantID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	var req ReservationRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := a.checkParty(r, rid, req.Guests); err != nil {
		a.respondError(w, r, err)
		return
	}

	res := &domain.Reservation{RestaurantID: rid, Duration: 90}
	req.apply(res)
	if err := a.store.CreateReservation(r.Context(), res); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, res)
}

func (a *API) updateReservation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "reservationID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	var req UpdateReservationRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}

	res, err := a.store.Reservation(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := a.checkParty(r, res.RestaurantID, req.Guests); err != nil {
		a.respondError(w, r, err)
		return
	}
	req.apply(&res)
	if req.Status != "" {
		res.Status = domain.ReservationStatus(req.Status)
	}
	if _, err := a.store.UpdateReservation(r.Context(), &res); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, res)
}

func (a *API) cancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "reservationID")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	res, err := a.store.CancelReservation(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, res)
}

func (a *API) checkParty(r *http.Request, restaurantID int64, guests int) error {
	restaurant, err := a.store.Restaurant(r.Context(), restaurantID)
	if err != nil {
		return err
	}
	if !restaurant.AcceptsParty(guests) {
		return badRequestf("restaurant %d cannot seat %d guests", restaurantID, guests)
	}
	return nil
}
