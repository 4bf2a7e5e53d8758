package validation

import "strings"

// Field identifiers used by the composite validators.  They double as the
// keys of the field-error map returned by the REST handlers.
const (
	FieldLoginEmail    = "loginEmail"
	FieldLoginPassword = "loginPassword"

	FieldSignupName            = "signupName"
	FieldSignupEmail           = "signupEmail"
	FieldSignupStudentID       = "signupStudentId"
	FieldSignupPassword        = "signupPassword"
	FieldSignupConfirmPassword = "signupConfirmPassword"
	FieldSignupPhone           = "signupPhone"

	FieldProfileEmail           = "profileEmail"
	FieldProfilePhone           = "profilePhone"
	FieldProfileAddress         = "profileAddress"
	FieldProfileNewPassword     = "profileNewPassword"
	FieldProfileConfirmPassword = "profileConfirmPassword"

	FieldMenuItemName        = "itemName"
	FieldMenuItemPrice       = "itemPrice"
	FieldMenuItemDescription = "itemDescription"
	FieldMenuItemCategory    = "itemCategory"

	FieldCafeName     = "cafeName"
	FieldCafeLocation = "cafeLocation"

	FieldCheckoutAddress = "deliveryAddress"
	FieldCheckoutContact = "contactNumber"
	FieldCheckoutPayment = "paymentMethod"
	FieldCheckoutTID     = "jazzcashTid"

	FieldReportName        = "reportName"
	FieldReportDescription = "reportDescription"
	FieldReportLocation    = "reportLocation"
	FieldReportPhone       = "reportPhone"
	FieldReportEmail       = "reportEmail"

	FieldEntryTitle   = "entryTitle"
	FieldEntryContent = "entryContent"
	FieldEntryMood    = "entryMood"

	FieldNoticeSubject = "noticeSubject"
	FieldNoticeMessage = "noticeMessage"
)

// Payment methods accepted at checkout.
const (
	PaymentCash     = "cash"
	PaymentJazzCash = "jazzcash"
)

// MsgPaymentMethod is shown for an unknown payment method.
const MsgPaymentMethod = "Payment method must be cash or jazzcash"

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupForm is the account creation form.
type SignupForm struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	StudentID       string `json:"studentId"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Phone           string `json:"phone"`
}

// ProfileForm updates contact details; every field is optional and a new
// password must be confirmed.
type ProfileForm struct {
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// MenuItemForm creates or edits a menu item.
type MenuItemForm struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// CafeForm creates or edits a cafe.
type CafeForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// CheckoutForm carries the delivery details of an order.
type CheckoutForm struct {
	DeliveryAddress string `json:"delivery_address"`
	ContactNumber   string `json:"contact_number"`
	PaymentMethod   string `json:"payment_method"`
	JazzCashTID     string `json:"jazzcash_tid"`
}

// ItemReportForm reports a lost or found item.
type ItemReportForm struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	ReporterPhone string `json:"reporterPhone"`
	ReporterEmail string `json:"reporterEmail"`
}

// EntryForm is a diary entry.
type EntryForm struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Mood    string `json:"mood"`
}

// NotificationForm is sent by the food authority.
type NotificationForm struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// The composite validators below evaluate every rule, without
// short-circuiting, so all field errors surface at once.

// ValidateLogin checks the login form.
func (v *Validator) ValidateLogin(f LoginForm) bool {
	ok := v.Email(f.Email, FieldLoginEmail, true)
	ok = v.Required(f.Password, FieldLoginPassword) && ok
	return ok
}

// ValidateSignup checks the signup form.
func (v *Validator) ValidateSignup(f SignupForm) bool {
	ok := v.Name(f.Name, FieldSignupName, true)
	ok = v.Email(f.Email, FieldSignupEmail, true) && ok
	ok = v.StudentID(f.StudentID, FieldSignupStudentID, true) && ok
	ok = v.Password(f.Password, FieldSignupPassword, true) && ok
	ok = v.PasswordMatch(f.Password, f.ConfirmPassword, FieldSignupConfirmPassword) && ok
	ok = v.Phone(f.Phone, FieldSignupPhone, true) && ok
	return ok
}

// ValidateProfile checks a profile update.
func (v *Validator) ValidateProfile(f ProfileForm) bool {
	ok := v.Email(f.Email, FieldProfileEmail, false)
	ok = v.Phone(f.Phone, FieldProfilePhone, false) && ok
	ok = v.Length(f.Address, FieldProfileAddress, 0, 200, false) && ok
	ok = v.Password(f.NewPassword, FieldProfileNewPassword, false) && ok
	if strings.TrimSpace(f.NewPassword) != "" {
		ok = v.PasswordMatch(f.NewPassword, f.ConfirmPassword, FieldProfileConfirmPassword) && ok
	}
	return ok
}

// ValidateMenuItem checks a menu item.
func (v *Validator) ValidateMenuItem(f MenuItemForm) bool {
	ok := v.Length(f.Name, FieldMenuItemName, 2, 100, true)
	ok = v.Price(f.Price, FieldMenuItemPrice, true) && ok
	ok = v.Length(f.Description, FieldMenuItemDescription, 0, 500, false) && ok
	ok = v.Length(f.Category, FieldMenuItemCategory, 0, 50, false) && ok
	return ok
}

// ValidateCafe checks a cafe.
func (v *Validator) ValidateCafe(f CafeForm) bool {
	ok := v.Length(f.Name, FieldCafeName, 2, 100, true)
	ok = v.Length(f.Location, FieldCafeLocation, 0, 200, false) && ok
	return ok
}

// ValidateCheckout checks the delivery details.  A JazzCash payment needs a
// transaction id.
func (v *Validator) ValidateCheckout(f CheckoutForm) bool {
	ok := v.Length(f.DeliveryAddress, FieldCheckoutAddress, 5, 200, true)
	ok = v.Phone(f.ContactNumber, FieldCheckoutContact, true) && ok

	switch strings.ToLower(strings.TrimSpace(f.PaymentMethod)) {
	case "", PaymentCash:
		v.pass(FieldCheckoutPayment)
		v.pass(FieldCheckoutTID)
	case PaymentJazzCash:
		v.pass(FieldCheckoutPayment)
		ok = v.Required(f.JazzCashTID, FieldCheckoutTID) && ok
	default:
		ok = v.fail(FieldCheckoutPayment, MsgPaymentMethod)
	}
	return ok
}

// ValidateItemReport checks a lost or found report.
func (v *Validator) ValidateItemReport(f ItemReportForm) bool {
	ok := v.Length(f.Name, FieldReportName, 2, 100, true)
	ok = v.Length(f.Description, FieldReportDescription, 0, 1000, true) && ok
	ok = v.Length(f.Location, FieldReportLocation, 0, 200, true) && ok
	ok = v.Phone(f.ReporterPhone, FieldReportPhone, false) && ok
	ok = v.Email(f.ReporterEmail, FieldReportEmail, false) && ok
	return ok
}

// ValidateEntry checks a diary entry.
func (v *Validator) ValidateEntry(f EntryForm) bool {
	ok := v.Length(f.Title, FieldEntryTitle, 0, 120, true)
	ok = v.Required(f.Content, FieldEntryContent) && ok
	ok = v.Length(f.Mood, FieldEntryMood, 0, 8, false) && ok
	return ok
}

// ValidateNotification checks a food authority notice.
func (v *Validator) ValidateNotification(f NotificationForm) bool {
	ok := v.Length(f.Subject, FieldNoticeSubject, 0, 150, true)
	ok = v.Required(f.Message, FieldNoticeMessage) && ok
	return ok
}
