package model

const TableNameDetailUsageRules = "detail_usage_rules"

// DetailUsageRule maps an exact (host, adjacent, exposure) context to a detail.
type DetailUsageRule struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	DetailID        uint   `gorm:"not null;index" json:"detail_id"`
	HostElement     string `gorm:"size:128;not null" json:"host_element"`
	AdjacentElement string `gorm:"size:128;not null" json:"adjacent_element"`
	Exposure        string `gorm:"size:64;not null" json:"exposure"`
}

func (*DetailUsageRule) TableName() string {
	return TableNameDetailUsageRules
}
