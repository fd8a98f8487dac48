package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/4epuha1337/nextcharge/charge"
	"github.com/4epuha1337/nextcharge/db"
)

var errValidation = errors.New("validation failed")

func validateDate(date string, today charge.Date) (charge.Date, error) {
	if date == "" {
		return today, nil
	}
	return charge.ParseDate(date)
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", errValidation)
	}
	return nil
}

func parseID(raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, fmt.Errorf("%w: subscription id is required", errValidation)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid subscription id %q", errValidation, raw)
	}
	return id, nil
}

func parseIDParam(r *http.Request, param string) (int64, error) {
	return parseID(r.URL.Query().Get(param))
}

// statusFor maps an error to the HTTP status it is reported with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, charge.ErrInvalidDateFormat),
		errors.Is(err, charge.ErrUnknownPeriod),
		errors.Is(err, errValidation):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes data as the JSON body with status. A value that cannot
// be encoded is reported as a 500 instead.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		h.log.Error("encode response failed", "error", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.log.Warn("write response failed", "error", err)
	}
}

func errorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errValidation}, args...)...)
}
