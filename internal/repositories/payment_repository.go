package repositories

import (
	"errors"

	"github.com/chamadopro/backend/internal/models"
	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	GetPaymentByContractID(contractID uint) (*models.Payment, error)
	GetPaymentByExternalReference(ref string) (*models.Payment, error)
	MarkPaid(paymentID uint, providerPaymentID, method string) error
	UpdateStatus(paymentID uint, from, to models.PaymentStatus) error
	ListByStatus(status models.PaymentStatus) ([]models.Payment, error)
}

type postgresPaymentRepository struct {
	db *gorm.DB
}

// NewPostgresPaymentRepository creates a new PaymentRepository backed by PostgreSQL
func NewPostgresPaymentRepository(db *gorm.DB) PaymentRepository {
	return &postgresPaymentRepository{db: db}
}

func (r *postgresPaymentRepository) GetPaymentByContractID(contractID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("contract_id = ?", contractID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *postgresPaymentRepository) GetPaymentByExternalReference(ref string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("external_reference = ?", ref).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// MarkPaid records the gateway settlement. Only a PENDING payment can move to
// PAID; anything else lost a race with a cancellation or resolution.
func (r *postgresPaymentRepository) MarkPaid(paymentID uint, providerPaymentID, method string) error {
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentPending).
		Updates(map[string]interface{}{
			"status":              models.PaymentPaid,
			"provider_payment_id": providerPaymentID,
			"method":              method,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *postgresPaymentRepository) UpdateStatus(paymentID uint, from, to models.PaymentStatus) error {
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *postgresPaymentRepository) ListByStatus(status models.PaymentStatus) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("status = ?", status).Order("created_at DESC").Find(&payments).Error
	return payments, err
}
