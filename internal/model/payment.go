package model

import "time"

// Payment は確定した決済の記録を表す。追記専用で更新しない。
// CartEntryIDで消費したカートエントリを明示的に参照する。
type Payment struct {
	ID            string    `json:"_id"`
	Email         string    `json:"email"`
	Price         float64   `json:"price"`
	TransactionID string    `json:"transaction_id"`
	CartEntryID   string    `json:"cart_entry_id"`
	ClassIDs      []string  `json:"class_ids"`
	ClassNames    []string  `json:"class_names"`
	CreatedAt     time.Time `json:"date"`
}

// SettlementResult は決済確定の結果。
// 挿入と削除は同一トランザクションで行われるが、応答形式は両方の結果を返す。
type SettlementResult struct {
	InsertResult InsertResult `json:"insertResult"`
	DeleteResult DeleteResult `json:"deleteResult"`
}
