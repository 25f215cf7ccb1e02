package model

import "time"

// CartEntry は受講生の購入予定を表す。購入の証明ではない。
// 明示的な削除か、決済の確定によってのみ消える。
type CartEntry struct {
	ID              string    `json:"_id"`
	StudentEmail    string    `json:"student_email"`
	ClassID         string    `json:"class_id"`
	Name            string    `json:"name,omitempty"`
	Image           string    `json:"image,omitempty"`
	InstructorName  string    `json:"instructor_name,omitempty"`
	InstructorEmail string    `json:"instructor_email,omitempty"`
	Price           float64   `json:"price"`
	CreatedAt       time.Time `json:"created_at"`
}
