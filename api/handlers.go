package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/4epuha1337/nextcharge/charge"
	"github.com/4epuha1337/nextcharge/db"
	"github.com/4epuha1337/nextcharge/logger"
)

// Store is the subscription storage the handlers depend on.
type Store interface {
	Add(ctx context.Context, sub db.Subscription) (int64, error)
	List(ctx context.Context) ([]db.Subscription, error)
	Due(ctx context.Context, on charge.Date) ([]db.Subscription, error)
	Get(ctx context.Context, id int64) (db.Subscription, error)
	Update(ctx context.Context, sub db.Subscription) error
	Advance(ctx context.Context, id int64) (db.Subscription, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	store Store
	log   *logger.Logger
	today func() charge.Date
}

func NewHandler(store Store, log *logger.Logger) *Handler {
	return &Handler{store: store, log: log, today: charge.Today}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		h.log.Info("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// NextCharge answers GET /api/nextcharge?date=&period=[&now=] with the
// next charge date as plain text. With now set, periods are applied until
// the date is past now.
func (h *Handler) NextCharge(w http.ResponseWriter, r *http.Request) {
	dateParam := r.FormValue("date")
	periodParam := r.FormValue("period")
	nowParam := r.FormValue("now")

	start, err := charge.ParseDate(dateParam)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	period, err := charge.ParsePeriod(periodParam)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	next := charge.Next(start, period)
	if nowParam != "" {
		now, err := charge.ParseDate(nowParam)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		next = charge.NextAfter(start, period, now)
	}
	if err := charge.CheckRange(next); err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	if _, err := w.Write([]byte(next.String())); err != nil {
		h.log.Warn("write response failed", "path", r.URL.Path, "error", err)
	}
}

type SubscriptionRequest struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
	StartDate string `json:"start_date"`
	Period    string `json:"period"`
}

func (h *Handler) decodeSubscription(r *http.Request) (db.Subscription, error) {
	var req SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return db.Subscription{}, errorf("invalid JSON format: %v", err)
	}
	if err := validateTitle(req.Title); err != nil {
		return db.Subscription{}, err
	}
	today := h.today()
	start, err := validateDate(req.StartDate, today)
	if err != nil {
		return db.Subscription{}, err
	}
	period, err := charge.ParsePeriod(req.Period)
	if err != nil {
		return db.Subscription{}, err
	}
	sub := db.Subscription{
		Title:      req.Title,
		Comment:    req.Comment,
		StartDate:  start,
		Period:     period,
		NextCharge: charge.Upcoming(start, period, today),
	}
	if err := charge.CheckRange(sub.NextCharge); err != nil {
		return db.Subscription{}, err
	}
	if req.ID != "" {
		if sub.ID, err = parseID(req.ID); err != nil {
			return db.Subscription{}, err
		}
	}
	return sub, nil
}

type idResponse struct {
	ID string `json:"id"`
}

func (h *Handler) PostSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.decodeSubscription(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.store.Add(r.Context(), sub)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("subscription added", "id", id, "period", sub.Period.String(), "next_charge", sub.NextCharge.String())
	h.writeJSON(w, http.StatusCreated, idResponse{ID: strconv.FormatInt(id, 10)})
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sub, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sub)
}

type listResponse struct {
	Subscriptions []db.Subscription `json:"subscriptions"`
}

// ListSubscriptions returns every subscription, or with ?due=YYYY-MM-DD
// only those charged on or before that date.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	var (
		subs []db.Subscription
		err  error
	)
	if due := r.URL.Query().Get("due"); due != "" {
		on, perr := charge.ParseDate(due)
		if perr != nil {
			h.fail(w, r, perr)
			return
		}
		subs, err = h.store.Due(r.Context(), on)
	} else {
		subs, err = h.store.List(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if subs == nil {
		subs = []db.Subscription{}
	}
	h.writeJSON(w, http.StatusOK, listResponse{Subscriptions: subs})
}

func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.decodeSubscription(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if sub.ID == 0 {
		h.fail(w, r, errorf("subscription id is required"))
		return
	}
	stored, err := h.store.Get(r.Context(), sub.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// Charges already recorded by MarkCharged survive edits that keep the
	// schedule.
	if stored.StartDate.Equal(sub.StartDate) && stored.Period == sub.Period {
		sub.NextCharge = stored.NextCharge
	}
	if err := h.store.Update(r.Context(), sub); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sub)
}

// MarkCharged moves the subscription's next charge forward one period.
func (h *Handler) MarkCharged(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sub, err := h.store.Advance(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("subscription charged", "id", id, "next_charge", sub.NextCharge.String())
	h.writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct{}{})
}
