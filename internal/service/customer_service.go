package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/order-system/internal/model"
	"github.com/d60-Lab/order-system/internal/repository"
)

// ProfileInput 档案更新入参；留空的字段保持原值
type ProfileInput struct {
	FullName string `json:"full_name" binding:"max=191"`
	Phone    string `json:"phone" binding:"max=32"`
}

// CustomerService 顾客档案维护。外部身份断言通常不带手机号，
// 订单短信发往 Phone 字段，顾客需要能在登录后自行补全
type CustomerService struct {
	customers repository.CustomerRepository
}

func NewCustomerService(customers repository.CustomerRepository) *CustomerService {
	return &CustomerService{customers: customers}
}

// Get 当前顾客档案
func (s *CustomerService) Get(ctx context.Context, id string) (*model.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return customer, err
}

// UpdateProfile 更新姓名 / 手机号
func (s *CustomerService) UpdateProfile(ctx context.Context, id string, input ProfileInput) (*model.Customer, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.FullName); name != "" {
		customer.FullName = name
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		if !validPhone(phone) {
			return nil, validationErrorf("invalid phone number %q", phone)
		}
		customer.Phone = phone
	}

	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// validPhone 国际格式：可选 + 前缀，其余为数字，长度 8~16
func validPhone(p string) bool {
	if len(p) < 8 || len(p) > 16 {
		return false
	}
	for i, r := range p {
		if r == '+' && i == 0 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
