package model

import "time"

// ClassStatus はクラスの審査状態を表す。
type ClassStatus string

const (
	// ClassStatusPending は審査待ち。登録直後の状態。
	ClassStatusPending ClassStatus = "pending"
	// ClassStatusApproved は承認済み。
	ClassStatusApproved ClassStatus = "approved"
	// ClassStatusDenied は却下。
	ClassStatusDenied ClassStatus = "denied"
)

// ParseClassStatus は文字列をClassStatusに変換する。
func ParseClassStatus(s string) (ClassStatus, error) {
	switch ClassStatus(s) {
	case ClassStatusPending, ClassStatusApproved, ClassStatusDenied:
		return ClassStatus(s), nil
	default:
		return "", NewInvalidArgumentError("status", s)
	}
}

// Class は講師が開講するクラスを表す。
type Class struct {
	ID              string      `json:"_id"`
	Name            string      `json:"name"`
	Image           string      `json:"image,omitempty"`
	InstructorName  string      `json:"instructor_name,omitempty"`
	InstructorEmail string      `json:"email"`
	Price           float64     `json:"price"`
	AvailableSeat   int         `json:"available_seat"`
	Description     string      `json:"description,omitempty"`
	Status          ClassStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
