package core

import (
	"time"
)

// GroupPolicy is the system-of-record row behind a GroupPolicyRecord.
// The statement list is projected into the key-value store on write;
// the decision path never reads this table.
type GroupPolicy struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text"`
	Statements string    `json:"statements" gorm:"type:json"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
	MDate      time.Time `json:"mdate" gorm:"autoUpdateTime"`
}
