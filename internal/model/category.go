package model

import "time"

// Category 商品分类，自引用邻接表 + 冗余 depth
// 约束：depth = parent.depth + 1（根为 0）；同一父节点下 name 唯一
type Category struct {
	ID       string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name     string  `gorm:"type:varchar(100);index:idx_category_parent_name,unique;not null" json:"name"`
	Slug     string  `gorm:"type:varchar(120);uniqueIndex:ux_category_slug;not null" json:"slug"`
	ParentID *string `gorm:"type:varchar(36);index:idx_category_parent;index:idx_category_parent_name,unique" json:"parent_id"`
	// Depth 冗余层级，避免读取时递归计算
	Depth     int `gorm:"not null;default:0;index:idx_category_depth" json:"depth"`
	SortOrder int `gorm:"not null;default:0" json:"sort_order"`
	// IsActive 不带列默认值，零值 false 才能写入（同 Product.IsActive）
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string { return "categories" }
