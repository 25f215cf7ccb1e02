// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限レベルを表す。
// 空文字列は未設定を意味し、studentと同等の権限として扱う。
type Role string

const (
	// RoleUnset はロール未設定の状態。
	RoleUnset Role = ""
	// RoleStudent は受講生。
	RoleStudent Role = "student"
	// RoleInstructor は講師。クラスを登録できる。
	RoleInstructor Role = "instructor"
	// RoleAdmin は管理者。ユーザーとクラスを管理できる。
	RoleAdmin Role = "admin"
)

// ParseRole は文字列をRoleに変換する。
// student、instructor、admin 以外はエラーとする。
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return Role(s), nil
	default:
		return RoleUnset, NewInvalidRoleError(s)
	}
}

// User はサービス利用ユーザーを表す。
// emailが自然キーで、1つのemailにつき最大1レコード。
type User struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	PhotoURL  string    `json:"image,omitempty"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasRole はユーザーが指定ロールを持つかを返す。
// 未設定ロールはstudentとして扱う。
func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	if u.Role == RoleUnset {
		return role == RoleStudent
	}
	return u.Role == role
}

// UserDocument はアカウント登録時にクライアントから送られるユーザー情報。
// 空のフィールドは既存値を上書きしない。
type UserDocument struct {
	Name     string `json:"name"`
	PhotoURL string `json:"image"`
}

// Identity はトークンに埋め込まれる呼び出し元の識別情報。
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
