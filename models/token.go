package models

import "encoding/json"

// Token field names
const (
	FieldID             = "id"
	FieldTokenNumber    = "token_number"
	FieldLocationID     = "mlocation_id"
	FieldServicePointID = "mservicepoint_id"
	FieldCategoryID     = "mtokencategory_id"
	FieldCustomerName   = "customer_name"
	FieldCustomerPhone  = "customer_phone"
	FieldStatus         = "status"
	FieldCreatedAt      = "created_at"
	FieldCalledAt       = "called_at"
	FieldServedAt       = "served_at"
	FieldCompletedAt    = "completed_at"
)

// Token is a queue ticket as returned by the API. Fields the server adds
// beyond the accessors below stay available through Record.
type Token struct {
	rec Record
}

// NewToken builds a Token from a decoded record. The record is copied.
func NewToken(rec map[string]any) *Token {
	r := Record(rec).Clone()
	if r == nil {
		r = Record{}
	}
	return &Token{rec: r}
}

// ID returns the token id
func (t *Token) ID() (int64, bool) { return t.rec.Int(FieldID) }

// TokenNumber returns the printed ticket number, e.g. "A005"
func (t *Token) TokenNumber() (string, bool) { return t.rec.String(FieldTokenNumber) }

// LocationID returns mlocation_id
func (t *Token) LocationID() (int64, bool) { return t.rec.Int(FieldLocationID) }

// ServicePointID returns mservicepoint_id
func (t *Token) ServicePointID() (int64, bool) { return t.rec.Int(FieldServicePointID) }

// CategoryID returns mtokencategory_id
func (t *Token) CategoryID() (int64, bool) { return t.rec.Int(FieldCategoryID) }

func (t *Token) CustomerName() (string, bool)  { return t.rec.String(FieldCustomerName) }
func (t *Token) CustomerPhone() (string, bool) { return t.rec.String(FieldCustomerPhone) }

// Status returns the server-side status code of the token
func (t *Token) Status() (int64, bool) { return t.rec.Int(FieldStatus) }

func (t *Token) CreatedAt() (string, bool)   { return t.rec.String(FieldCreatedAt) }
func (t *Token) CalledAt() (string, bool)    { return t.rec.String(FieldCalledAt) }
func (t *Token) ServedAt() (string, bool)    { return t.rec.String(FieldServedAt) }
func (t *Token) CompletedAt() (string, bool) { return t.rec.String(FieldCompletedAt) }

// Record returns a copy of every field of the token
func (t *Token) Record() Record {
	return t.rec.Clone()
}

// MarshalJSON encodes the token as its original record
func (t *Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(t.rec))
}
