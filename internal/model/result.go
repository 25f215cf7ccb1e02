package model

// 書き込み系APIの応答形式。既存クライアントとの互換のため
// acknowledged と件数/IDを返す形式に揃える。

// InsertResult は挿入結果。
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateResult は更新結果。
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResult は削除結果。
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// Inserted は挿入成功の結果を返す。
func Inserted(id string) *InsertResult {
	return &InsertResult{Acknowledged: true, InsertedID: id}
}

// Updated は1件更新の結果を返す。
func Updated() *UpdateResult {
	return &UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}
}

// Deleted は削除件数を含む結果を返す。
func Deleted(count int64) *DeleteResult {
	return &DeleteResult{Acknowledged: true, DeletedCount: count}
}
