// Package validation holds the field-level rules shared by the client forms
// and the REST handlers.  Every rule is stateless: it returns a bool and, as
// a side effect, annotates (on failure) or clears (on success) the error
// indicator for its field through an Annotator.  Rules never return errors.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Failure reasons shown next to a field.
const (
	MsgRequired        = "This field is required"
	MsgEmail           = "Please enter a valid email address"
	MsgPhone           = "Phone number must start with 92 and be 12 digits total (e.g., 923001234567)"
	MsgStudentID       = "Student ID must be in format: XX22-XXX-XXX (e.g., FA22-BSE-014)"
	MsgPassword        = "Password must be at least 8 characters with uppercase, lowercase, number, and special character"
	MsgPasswordMatch   = "Passwords do not match"
	MsgName            = "Name must be 2-50 characters and contain only letters and spaces"
	MsgPrice           = "Please enter a valid price (e.g., 100 or 99.99)"
	MsgPricePositive   = "Price must be greater than 0"
	MsgPositiveInteger = "Please enter a positive whole number"
	MsgValuePositive   = "Value must be greater than 0"
)

// MsgMinLength and MsgMaxLength build the Length rule messages.
func MsgMinLength(min int) string { return fmt.Sprintf("Must be at least %d characters", min) }
func MsgMaxLength(max int) string { return fmt.Sprintf("Must not exceed %d characters", max) }

// PasswordSymbols is the set of symbols a password must draw one from.
const PasswordSymbols = "@$!%*?&"

var (
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern     = regexp.MustCompile(`^92\d{10}$`)
	studentIDPattern = regexp.MustCompile(`^[A-Z]{2}\d{2}-[A-Z]{3}-\d{3}$`)
	namePattern      = regexp.MustCompile(`^[A-Za-z\s]{2,50}$`)
	pricePattern     = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	integerPattern   = regexp.MustCompile(`^\d+$`)
	phoneSeparators  = strings.NewReplacer(" ", "", "-", "", "\t", "")
)

// Validator applies rules and reports their outcome to an Annotator.
type Validator struct {
	a Annotator
}

// New returns a Validator reporting to a.  A nil annotator discards
// annotations.
func New(a Annotator) *Validator {
	if a == nil {
		a = Discard
	}
	return &Validator{a: a}
}

// empty handles the shared blank-value policy.  done is true when the rule
// outcome is already decided: a blank optional field passes, a blank
// required field fails with MsgRequired.
func (v *Validator) empty(value, fieldID string, required bool) (ok, done bool) {
	if strings.TrimSpace(value) != "" {
		return false, false
	}
	if required {
		return v.fail(fieldID, MsgRequired), true
	}
	return v.pass(fieldID), true
}

func (v *Validator) fail(fieldID, msg string) bool {
	v.a.ShowError(fieldID, msg)
	return false
}

func (v *Validator) pass(fieldID string) bool {
	v.a.RemoveError(fieldID)
	return true
}

// Required passes for any value that is non-empty after trimming.
func (v *Validator) Required(value, fieldID string) bool {
	if ok, done := v.empty(value, fieldID, true); done {
		return ok
	}
	return v.pass(fieldID)
}

// Email checks the local@domain.tld shape.
func (v *Validator) Email(value, fieldID string, required bool) bool {
	if ok, done := v.empty(value, fieldID, required); done {
		return ok
	}
	if !emailPattern.MatchString(value) {
		return v.fail(fieldID, MsgEmail)
	}
	return v.pass(fieldID)
}

// Phone accepts a 12 digit number starting with 92.  Spaces and dashes are
// ignored.
func (v *Validator) Phone(value, fieldID string, required bool) bool {
	if ok, done := v.empty(value, fieldID, required); done {
		return ok
	}
	if !phonePattern.MatchString(NormalizePhone(value)) {
		return v.fail(fieldID, MsgPhone)
	}
	return v.pass(fieldID)
}

// NormalizePhone strips the separators Phone tolerates.
func NormalizePhone(value string) string {
	return phoneSeparators.Replace(value)
}

// StudentID checks the LLdd-LLL-ddd registration number format.
func (v *Validator) StudentID(value, fieldID string, required bool) bool {
	if ok, done := v.empty(value, fieldID, required); done {
		return ok
	}
	if !studentIDPattern.MatchString(strings.TrimSpace(value)) {
		return v.fail(fieldID, MsgStudentID)
	}
	return v.pass(fieldID)
}

// Password requires at least 8 characters drawn from letters, digits and
// PasswordSymbols, with at least one of each class.
func (v *Validator) Password(value, fieldID string, required bool) bool {
	if ok, done := v.empty(value, fieldID, required); done {
		return ok
	}
	if !StrongPassword(value) {
		return v.fail(fieldID, MsgPassword)
	}
	return v.pass(fieldID)
}

// StrongPassword is the predicate behind Password.
func StrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		default:
			return false
		}
	}
	return lower && upper && digit && symbol
}

// PasswordMatch compares confirm against the previously entered password.
// The confirmation is always required.
func (v *Validator) PasswordMatch(password, confirm, fieldID string) bool {
	if ok, done := v.empty(confirm, fieldID, true); done {
		return ok
	}
	if password != confirm {
		return v.fail(fieldID, MsgPasswordMatch)
	}
	return v.pass(fieldID)
}

// Name accepts 2-50 letters and spaces.
func (v *Validator) Name(value, fieldID string, required bool) bool {
	if ok, done := v.empty(value, fieldID, required); done {
		return ok
	}
	if !namePattern.MatchString(strings.TrimSpace(value)) {
		return v.fail(fieldID, MsgName)
	}
	return v.pass(fieldID)
}

// Price accepts a decimal with at most two fraction digits that is > 0.
func (v *Validator) Price(value, fieldID string, required bool) bool {
	if ok, done := v.empty(value, fieldID, required); done {
		return ok
	}
	s := strings.TrimSpace(value)
	if !pricePattern.MatchString(s) {
		return v.fail(fieldID, MsgPrice)
	}
	if f, err := strconv.ParseFloat(s, 64); err != nil || f <= 0 {
		return v.fail(fieldID, MsgPricePositive)
	}
	return v.pass(fieldID)
}

// PositiveInteger accepts a whole number > 0.
func (v *Validator) PositiveInteger(value, fieldID string, required bool) bool {
	if ok, done := v.empty(value, fieldID, required); done {
		return ok
	}
	s := strings.TrimSpace(value)
	if !integerPattern.MatchString(s) {
		return v.fail(fieldID, MsgPositiveInteger)
	}
	if strings.TrimLeft(s, "0") == "" {
		return v.fail(fieldID, MsgValuePositive)
	}
	return v.pass(fieldID)
}

// Length bounds the trimmed length in characters.  A zero bound is not
// checked.
func (v *Validator) Length(value, fieldID string, min, max int, required bool) bool {
	if ok, done := v.empty(value, fieldID, required); done {
		return ok
	}
	n := len([]rune(strings.TrimSpace(value)))
	if min > 0 && n < min {
		return v.fail(fieldID, MsgMinLength(min))
	}
	if max > 0 && n > max {
		return v.fail(fieldID, MsgMaxLength(max))
	}
	return v.pass(fieldID)
}
