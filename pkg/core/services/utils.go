package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jakechorley/shift-roster/pkg/core/apperr"
	"github.com/jakechorley/shift-roster/pkg/core/dates"
	"github.com/jakechorley/shift-roster/pkg/core/leaveguard"
	"github.com/jakechorley/shift-roster/pkg/core/model"
	"github.com/jakechorley/shift-roster/pkg/db"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := dates.Parse(fl.Field().String())
		return err == nil
	})
}

// now is replaced in tests
var now = func() time.Time { return time.Now().UTC() }

// validateRequest runs struct validation and reports the failing fields as an
// InvalidArgument error
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.InvalidArgument("invalid request: %v", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return apperr.InvalidArgument("invalid request: %s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", fe.Field())
	case "date":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", fe.Field(), fe.Param())
	case "min", "max":
		return fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

// validateSpan checks an inclusive date range and returns its days
func validateSpan(start, end string) (leaveguard.Span, []string, error) {
	span := leaveguard.Span{Start: start, End: end}
	if err := span.Validate(); err != nil {
		return span, nil, apperr.InvalidArgument("%v", err)
	}
	days, err := span.Days()
	if err != nil {
		return span, nil, apperr.InvalidArgument("%v", err)
	}
	return span, days, nil
}

// storeErr wraps an unexpected store failure. Callers translate the
// sentinel errors they expect before falling back to it.
func storeErr(err error, format string, args ...any) error {
	return apperr.Internal(err, "failed to "+format, args...)
}

// toModelWorker converts a stored worker to the domain type
func toModelWorker(w db.Worker) model.Worker {
	return model.Worker{
		ID:              w.ID,
		Name:            w.Name,
		Email:           w.Email,
		Grade:           w.Grade,
		Role:            model.Role(w.Role),
		DeploymentCount: w.DeploymentCount,
	}
}

// leaveDaysByWorker groups approved days by worker with each worker's days
// sorted and unique
func leaveDaysByWorker(approved []db.ApprovedLeave) map[string][]string {
	seen := make(map[string]map[string]bool)
	byWorker := make(map[string][]string)
	for _, l := range approved {
		if seen[l.WorkerID] == nil {
			seen[l.WorkerID] = make(map[string]bool)
		}
		if seen[l.WorkerID][l.Date] {
			continue
		}
		seen[l.WorkerID][l.Date] = true
		byWorker[l.WorkerID] = append(byWorker[l.WorkerID], l.Date)
	}
	for id := range byWorker {
		sort.Strings(byWorker[id])
	}
	return byWorker
}
