package model

import "time"

// Customer 顾客（首次外部身份换取成功时创建，与外部身份一一对应）
type Customer struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Subject   string    `gorm:"type:varchar(191);uniqueIndex:ux_customer_subject;not null" json:"-"` // 外部身份提供方 subject
	Email     string    `gorm:"type:varchar(191);uniqueIndex:ux_customer_email;not null" json:"email"`
	FullName  string    `gorm:"type:varchar(191)" json:"full_name"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }
