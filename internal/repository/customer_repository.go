package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/order-system/internal/model"
)

// CustomerRepository 顾客仓储接口
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	GetBySubject(ctx context.Context, subject string) (*model.Customer, error)
	// Upsert 按外部身份 subject 建档；已存在则返回已有记录
	Upsert(ctx context.Context, customer *model.Customer) (*model.Customer, error)
	Update(ctx context.Context, customer *model.Customer) error
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepository{db: db} }

func (r *customerRepository) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) GetBySubject(ctx context.Context, subject string) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).Where("subject = ?", subject).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Upsert(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	// 并发首登：冲突则忽略插入，随后按 subject 读回
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "subject"}}, DoNothing: true}).
		Create(customer).Error
	if err != nil {
		return nil, err
	}
	return r.GetBySubject(ctx, customer.Subject)
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}
