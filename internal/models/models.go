package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	RoleAdmin    = "admin"
	RoleDelivery = "delivery"
)

// StringSet is stored as a postgres text[]; other dialects keep the same
// "{a,b}" literal in a text column.
type StringSet []string

func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	return pq.StringArray(s).Value()
}

func (s *StringSet) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*s = StringSet(arr)
	return nil
}

func (StringSet) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	Username       string    `gorm:"uniqueIndex;not null"   json:"username"`
	Email          string    `gorm:"uniqueIndex;not null"   json:"email"`
	FullName       string    `gorm:"not null"               json:"full_name"`
	Role           string    `gorm:"index;not null"         json:"role"`
	Permissions    StringSet `                              json:"permissions"`
	Disabled       bool      `gorm:"not null;default:false" json:"disabled"`
	HashedPassword string    `gorm:"not null"               json:"-"`
	CreatedAt      time.Time `                              json:"created_at"`
	UpdatedAt      time.Time `                              json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken rows are looked up by the sha256 of the signed token, never by the raw value.
type RefreshToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"   json:"id"`
	TokenHash string     `gorm:"uniqueIndex;not null"   json:"-"`
	JTI       string     `gorm:"uniqueIndex;not null"   json:"jti"`
	Username  string     `gorm:"index;not null"         json:"username"`
	ExpiresAt time.Time  `gorm:"not null"               json:"expires_at"`
	Revoked   bool       `gorm:"not null;default:false" json:"revoked"`
	RevokedAt *time.Time `                              json:"revoked_at,omitempty"`
	CreatedAt time.Time  `                              json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type BlacklistedToken struct {
	TokenID   string    `gorm:"primaryKey"     json:"token_id"`
	Username  string    `gorm:"index"          json:"username"`
	RevokedAt time.Time `gorm:"not null"       json:"revoked_at"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
}

type Medicine struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"     json:"-"`
	OrderID uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	Name    string    `gorm:"not null"                 json:"name"`
	MRP     float64   `gorm:"not null"                 json:"mrp"`
	Qty     int       `gorm:"not null"                 json:"qty"`
}

func (m *Medicine) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (Medicine) TableName() string {
	return "order_medicines"
}

type Order struct {
	ID                           uuid.UUID  `gorm:"type:uuid;primaryKey"    json:"id"`
	Date                         string     `gorm:"size:10;index;not null"  json:"date"`
	PatientName                  string     `gorm:"index;not null"          json:"patient_name"`
	MobileNo                     string     `gorm:"not null"                json:"mobile_no"`
	Address                      string     `gorm:"not null"                json:"address"`
	Pincode                      string     `gorm:"not null"                json:"pincode"`
	Medicines                    []Medicine `gorm:"foreignKey:OrderID"      json:"medicines"`
	ShippingCharges              float64    `                               json:"shipping_charges"`
	Amount                       float64    `                               json:"amount"`
	Discount                     float64    `                               json:"discount"`
	TotalAmount                  float64    `                               json:"total_amount"`
	EnquiryMadeOn                string     `                               json:"enquiry_made_on,omitempty"`
	PaymentMadeOn                string     `                               json:"payment_made_on,omitempty"`
	ModeOfPayment                string     `                               json:"mode_of_payment,omitempty"`
	PaymentReconciliationStatus  string     `                               json:"payment_reconciliation_status,omitempty"`
	DispatchStatus               string     `                               json:"dispatch_status,omitempty"`
	ReceivedStatus               string     `                               json:"received_status,omitempty"`
	Through                      string     `                               json:"through,omitempty"`
	AwbDocketNo                  string     `                               json:"awb_docket_no,omitempty"`
	MissingProductDuringDispatch string     `                               json:"missing_product_during_dispatch,omitempty"`
	Remarks                      string     `                               json:"remarks,omitempty"`
	CreatedBy                    string     `gorm:"index"                   json:"created_by"`
	CreatedAt                    time.Time  `                               json:"created_at"`
	UpdatedAt                    time.Time  `                               json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func All() []any {
	return []any{&User{}, &RefreshToken{}, &BlacklistedToken{}, &Order{}, &Medicine{}}
}
