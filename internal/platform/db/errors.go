package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/postosaude/clinic/internal/platform/apperr"
)

// SQLSTATE codes mapped onto the error taxonomy.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

// Classify translates a pgx error into an *apperr.Error. entity names the
// row kind for not-found messages. A nil error stays nil and errors that are
// already typed pass through.
func Classify(err error, entity string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound(entity), err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Wrap(apperr.Conflict(conflictMessage(entity, pgErr.ConstraintName)), err)
		case pgForeignKeyViolation:
			if strings.Contains(pgErr.Detail, "still referenced") {
				return apperr.Wrap(apperr.Conflict(entity+" is still referenced by other records"), err)
			}
			return apperr.Wrap(apperr.NotFound(referenceName(pgErr.ConstraintName)), err)
		case pgCheckViolation:
			return apperr.Wrap(apperr.BusinessRule(checkMessage(pgErr.ConstraintName)), err)
		case pgNotNullViolation:
			return apperr.Wrap(apperr.Invalid(pgErr.ColumnName, "is required"), err)
		}
	}
	return apperr.Internal(err)
}

// Keyed by the constraint names declared in migrations/.
var constraintMessages = map[string]string{
	"post_login_key":                           "login already registered",
	"patient_cpf_key":                          "a patient with this cpf already exists",
	"practitioner_cpf_key":                     "a practitioner with this cpf already exists",
	"appointment_consultation_id_key":          "consultation already has an appointment",
	"vaccine_administration_dose_key":          "dose already registered for this patient",
	"prescription_item_pkey":                   "medication already in prescription",
	"vaccine_stock_available_quantity_check":   "stock quantity cannot be negative",
	"vaccine_stock_minimum_quantity_check":     "minimum quantity cannot be negative",
	"medication_stock_current_quantity_check":  "stock quantity cannot be negative",
	"medication_stock_minimum_quantity_check":  "minimum quantity cannot be negative",
	"vaccine_doses_required_check":             "doses required must be at least 1",
	"vaccine_administration_dose_number_check": "dose number must be at least 1",
	"appointment_status_check":                 "invalid appointment status",
}

var referenceNames = map[string]string{
	"practitioner_post_id_fkey":                   "post",
	"consultation_practitioner_id_fkey":           "practitioner",
	"appointment_patient_id_fkey":                 "patient",
	"appointment_consultation_id_fkey":            "consultation",
	"vaccine_stock_vaccine_id_fkey":               "vaccine",
	"vaccine_administration_patient_id_fkey":      "patient",
	"vaccine_administration_vaccine_id_fkey":      "vaccine",
	"vaccine_administration_practitioner_id_fkey": "practitioner",
	"vaccine_administration_stock_id_fkey":        "vaccine stock",
	"medication_stock_medication_id_fkey":         "medication",
	"prescription_consultation_id_fkey":           "consultation",
	"prescription_item_medication_id_fkey":        "medication",
	"prescription_item_prescription_id_fkey":      "prescription",
}

func conflictMessage(entity, constraint string) string {
	if msg, ok := constraintMessages[constraint]; ok {
		return msg
	}
	return entity + " already exists"
}

func checkMessage(constraint string) string {
	if msg, ok := constraintMessages[constraint]; ok {
		return msg
	}
	return "value violates a business rule"
}

func referenceName(constraint string) string {
	if name, ok := referenceNames[constraint]; ok {
		return "referenced " + name
	}
	return "referenced record"
}
