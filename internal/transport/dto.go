package transport

import (
	"errors"
	"regexp"
	"time"

	"github.com/Skotchmaster/medorder/internal/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

type RegisterRequest struct {
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	FullName    string   `json:"full_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Password    string   `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50), validation.Match(usernamePattern)),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Role, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
	)
}

type ResetPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 72)),
	)
}

// UpdateDetailsRequest carries only the fields an admin may change; a nil field is left as is.
type UpdateDetailsRequest struct {
	Email       *string   `json:"email"`
	FullName    *string   `json:"full_name"`
	Role        *string   `json:"role"`
	Permissions *[]string `json:"permissions"`
}

func (r UpdateDetailsRequest) Validate() error {
	if r.Email == nil && r.FullName == nil && r.Role == nil && r.Permissions == nil {
		return errors.New("at least one field is required")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(3, 254), is.Email),
		validation.Field(&r.FullName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Role, validation.NilOrNotEmpty, validation.Length(1, 50)),
	)
}

func (r UpdateDetailsRequest) Fields() map[string]any {
	fields := map[string]any{}
	if r.Email != nil {
		fields["email"] = *r.Email
	}
	if r.FullName != nil {
		fields["full_name"] = *r.FullName
	}
	if r.Role != nil {
		fields["role"] = *r.Role
	}
	if r.Permissions != nil {
		fields["permissions"] = models.StringSet(*r.Permissions)
	}
	return fields
}

type SetStatusRequest struct {
	Disabled *bool `json:"disabled"`
}

func (r SetStatusRequest) Validate() error {
	if r.Disabled == nil {
		return errors.New("disabled: cannot be blank")
	}
	return nil
}

type MedicineRequest struct {
	Name string  `json:"name"`
	MRP  float64 `json:"mrp"`
	Qty  int     `json:"qty"`
}

func (m MedicineRequest) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.MRP, validation.Min(0.0)),
		validation.Field(&m.Qty, validation.Required, validation.Min(1)),
	)
}

type CreateOrderRequest struct {
	Date                         string            `json:"date"`
	PatientName                  string            `json:"patient_name"`
	MobileNo                     string            `json:"mobile_no"`
	Address                      string            `json:"address"`
	Pincode                      string            `json:"pincode"`
	Medicines                    []MedicineRequest `json:"medicines"`
	ShippingCharges              float64           `json:"shipping_charges"`
	Amount                       float64           `json:"amount"`
	Discount                     float64           `json:"discount"`
	TotalAmount                  float64           `json:"total_amount"`
	EnquiryMadeOn                string            `json:"enquiry_made_on"`
	PaymentMadeOn                string            `json:"payment_made_on"`
	ModeOfPayment                string            `json:"mode_of_payment"`
	PaymentReconciliationStatus  string            `json:"payment_reconciliation_status"`
	DispatchStatus               string            `json:"dispatch_status"`
	ReceivedStatus               string            `json:"received_status"`
	Through                      string            `json:"through"`
	AwbDocketNo                  string            `json:"awb_docket_no"`
	MissingProductDuringDispatch string            `json:"missing_product_during_dispatch"`
	Remarks                      string            `json:"remarks"`
}

func (r CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Date, validation.Date(DateLayout)),
		validation.Field(&r.PatientName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.MobileNo, validation.Required, validation.Length(6, 20)),
		validation.Field(&r.Address, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.Pincode, validation.Required, is.Digit, validation.Length(4, 10)),
		validation.Field(&r.Medicines, validation.Required, validation.By(validateMedicines)),
		validation.Field(&r.ShippingCharges, validation.Min(0.0)),
		validation.Field(&r.Amount, validation.Min(0.0)),
		validation.Field(&r.Discount, validation.Min(0.0)),
		validation.Field(&r.TotalAmount, validation.Min(0.0)),
	)
}

func validateMedicines(value interface{}) error {
	meds, _ := value.([]MedicineRequest)
	for i := range meds {
		if err := meds[i].Validate(); err != nil {
			return errors.New("medicine " + meds[i].Name + ": " + err.Error())
		}
	}
	return nil
}

// ToModel fills the date with today's date when the client leaves it out.
func (r CreateOrderRequest) ToModel(createdBy string, now time.Time) *models.Order {
	date := r.Date
	if date == "" {
		date = now.Format(DateLayout)
	}
	meds := make([]models.Medicine, 0, len(r.Medicines))
	for _, m := range r.Medicines {
		meds = append(meds, models.Medicine{Name: m.Name, MRP: m.MRP, Qty: m.Qty})
	}
	return &models.Order{
		Date:                         date,
		PatientName:                  r.PatientName,
		MobileNo:                     r.MobileNo,
		Address:                      r.Address,
		Pincode:                      r.Pincode,
		Medicines:                    meds,
		ShippingCharges:              r.ShippingCharges,
		Amount:                       r.Amount,
		Discount:                     r.Discount,
		TotalAmount:                  r.TotalAmount,
		EnquiryMadeOn:                r.EnquiryMadeOn,
		PaymentMadeOn:                r.PaymentMadeOn,
		ModeOfPayment:                r.ModeOfPayment,
		PaymentReconciliationStatus:  r.PaymentReconciliationStatus,
		DispatchStatus:               r.DispatchStatus,
		ReceivedStatus:               r.ReceivedStatus,
		Through:                      r.Through,
		AwbDocketNo:                  r.AwbDocketNo,
		MissingProductDuringDispatch: r.MissingProductDuringDispatch,
		Remarks:                      r.Remarks,
		CreatedBy:                    createdBy,
	}
}

// UpdateOrderStatusRequest covers the fulfilment fields delivery staff fill in after creation.
type UpdateOrderStatusRequest struct {
	PaymentMadeOn                *string `json:"payment_made_on"`
	ModeOfPayment                *string `json:"mode_of_payment"`
	PaymentReconciliationStatus  *string `json:"payment_reconciliation_status"`
	DispatchStatus               *string `json:"dispatch_status"`
	ReceivedStatus               *string `json:"received_status"`
	Through                      *string `json:"through"`
	AwbDocketNo                  *string `json:"awb_docket_no"`
	MissingProductDuringDispatch *string `json:"missing_product_during_dispatch"`
	Remarks                      *string `json:"remarks"`
}

func (r UpdateOrderStatusRequest) Fields() map[string]any {
	fields := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			fields[col] = *v
		}
	}
	set("payment_made_on", r.PaymentMadeOn)
	set("mode_of_payment", r.ModeOfPayment)
	set("payment_reconciliation_status", r.PaymentReconciliationStatus)
	set("dispatch_status", r.DispatchStatus)
	set("received_status", r.ReceivedStatus)
	set("through", r.Through)
	set("awb_docket_no", r.AwbDocketNo)
	set("missing_product_during_dispatch", r.MissingProductDuringDispatch)
	set("remarks", r.Remarks)
	return fields
}

func (r UpdateOrderStatusRequest) Validate() error {
	if len(r.Fields()) == 0 {
		return errors.New("at least one field is required")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.PaymentMadeOn, validation.Date(DateLayout)),
		validation.Field(&r.Remarks, validation.Length(0, 1000)),
	)
}

type UserView struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	Disabled    bool      `json:"disabled"`
}

func NewUserView(u *models.User) UserView {
	perms := []string(u.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Permissions: perms,
		Disabled:    u.Disabled,
	}
}

func NewUserViews(users []models.User) []UserView {
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, NewUserView(&users[i]))
	}
	return out
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type CreatedResponse struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}
