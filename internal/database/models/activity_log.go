package models

// ActivityLog is an append-only audit record written by the worker.
type ActivityLog struct {
	UUIDBase
	UserID     uint   `gorm:"index" json:"user_id"`
	Action     string `gorm:"size:50;not null;index" json:"action"` // e.g. "recipe.create", "token.issue"
	EntityType string `gorm:"size:50" json:"entity_type"`
	EntityID   uint   `json:"entity_id"`
	IPAddress  string `gorm:"size:45" json:"ip_address"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
