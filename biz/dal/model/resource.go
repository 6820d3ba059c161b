package model

import (
	"time"

	"gorm.io/gorm"
)

// ResourceStatus tracks the moderation lifecycle of a resource.
type ResourceStatus string

const (
	StatusPending  ResourceStatus = "PENDING"
	StatusActive   ResourceStatus = "ACTIVE"
	StatusRejected ResourceStatus = "REJECTED"
)

// Resource stores metadata for a purchasable teaching material. A row is
// created in an incomplete state (empty FileURL) before any blob exists
// and is finalized only after all uploads succeed. IsPublic and
// IsApproved stay false until admin approval, which lives outside the
// upload pipeline.
type Resource struct {
	ID        string         `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
	UpdatedAt time.Time      `json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	SellerID    int64   `gorm:"column:seller_id;index:idx_resource_seller" json:"seller_id"`
	Title       string  `gorm:"column:title;type:varchar(255)" json:"title"`
	Description string  `gorm:"column:description;type:text" json:"description,omitempty"`
	Kind        string  `gorm:"column:kind;type:varchar(32)" json:"kind"`
	PriceCents  int64   `gorm:"column:price_cents" json:"price_cents"`
	FileURL     string  `gorm:"column:file_url;type:text" json:"file_url,omitempty"`
	PreviewURL  *string `gorm:"column:preview_url;type:text" json:"preview_url,omitempty"`
	FileName    string  `gorm:"column:file_name" json:"file_name,omitempty"`
	FileSize    int64   `gorm:"column:file_size" json:"file_size,omitempty"`
	ContentType string  `gorm:"column:content_type" json:"content_type,omitempty"`

	IsPublic   bool           `gorm:"column:is_public" json:"is_public"`
	IsApproved bool           `gorm:"column:is_approved" json:"is_approved"`
	Status     ResourceStatus `gorm:"column:status;type:varchar(16)" json:"status"`
}

// TableName overrides gorm to use the resource table.
func (Resource) TableName() string {
	return "resource"
}
