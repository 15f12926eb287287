package repositories

import (
	"errors"
	"log"
	"time"

	"github.com/chamadopro/backend/internal/models"
	"gorm.io/gorm"
)

// AcceptResult carries everything the handler needs to notify after a
// successful acceptance transaction.
type AcceptResult struct {
	Budget          *models.Budget
	Contract        *models.Contract
	Payment         *models.Payment
	RejectedBudgets []models.Budget
}

// BudgetRepository defines the interface for budget lifecycle operations
type BudgetRepository interface {
	CreateBudget(budget *models.Budget) error
	GetBudgetByID(id uint) (*models.Budget, error)
	ListByPost(postID uint) ([]models.Budget, error)
	ListByProvider(providerID uint, page, limit int) ([]models.Budget, int64, error)
	ListByClient(clientID uint, page, limit int) ([]models.Budget, int64, error)
	HasLiveBudget(postID, providerID uint) (bool, error)
	Counter(budgetID, authorID uint, req models.CounterBudgetRequest, ttl time.Duration) (*models.Negotiation, error)
	Accept(budgetID, clientID uint, feeRate float64, externalRef string) (*AcceptResult, error)
	UpdateStatus(budgetID, actorID uint, to models.BudgetStatus) error
	ExpireStale(now time.Time) (int64, error)
}

// PostgresBudgetRepository implements BudgetRepository for PostgreSQL
type PostgresBudgetRepository struct {
	db *gorm.DB
}

// NewPostgresBudgetRepository creates a new PostgresBudgetRepository
func NewPostgresBudgetRepository(db *gorm.DB) *PostgresBudgetRepository {
	return &PostgresBudgetRepository{db: db}
}

var liveStatuses = []models.BudgetStatus{models.BudgetPending, models.BudgetNegotiating}

// CreateBudget persists a new PENDING budget
func (r *PostgresBudgetRepository) CreateBudget(budget *models.Budget) error {
	budget.Status = models.BudgetPending
	return r.db.Create(budget).Error
}

// GetBudgetByID retrieves a budget with its negotiation history. A stale live
// budget is flipped to EXPIRED on the way out; expiry has no scheduler, reads
// are the trigger.
func (r *PostgresBudgetRepository) GetBudgetByID(id uint) (*models.Budget, error) {
	var budget models.Budget
	err := r.db.Preload("Negotiations", func(db *gorm.DB) *gorm.DB {
		return db.Order("negotiations.created_at ASC")
	}).First(&budget, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if budget.IsStale(time.Now()) {
		res := r.db.Model(&models.Budget{}).
			Where("id = ? AND status IN ?", budget.ID, liveStatuses).
			Update("status", models.BudgetExpired)
		if res.Error == nil && res.RowsAffected > 0 {
			budget.Status = models.BudgetExpired
		}
	}
	return &budget, nil
}

// ListByPost retrieves all budgets on a post, newest first
func (r *PostgresBudgetRepository) ListByPost(postID uint) ([]models.Budget, error) {
	r.expireStaleQuiet()
	var budgets []models.Budget
	err := r.db.Where("post_id = ?", postID).Order("created_at DESC").Find(&budgets).Error
	return budgets, err
}

// ListByProvider retrieves a provider's budgets with pagination
func (r *PostgresBudgetRepository) ListByProvider(providerID uint, page, limit int) ([]models.Budget, int64, error) {
	r.expireStaleQuiet()
	return r.listBy("provider_id", providerID, page, limit)
}

// ListByClient retrieves budgets received by a client with pagination
func (r *PostgresBudgetRepository) ListByClient(clientID uint, page, limit int) ([]models.Budget, int64, error) {
	r.expireStaleQuiet()
	return r.listBy("client_id", clientID, page, limit)
}

func (r *PostgresBudgetRepository) listBy(column string, id uint, page, limit int) ([]models.Budget, int64, error) {
	var budgets []models.Budget
	var total int64

	r.db.Model(&models.Budget{}).Where(column+" = ?", id).Count(&total)

	offset := (page - 1) * limit
	err := r.db.Where(column+" = ?", id).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&budgets).Error
	return budgets, total, err
}

// HasLiveBudget checks whether the provider already has an undecided budget
// on the post
func (r *PostgresBudgetRepository) HasLiveBudget(postID, providerID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Budget{}).
		Where("post_id = ? AND provider_id = ? AND status IN ?", postID, providerID, liveStatuses).
		Count(&count).Error
	return count > 0, err
}

// Counter appends a negotiation entry and moves the budget to NEGOTIATING.
// The guarded UPDATE carries the status and expiry check, so a terminal or
// stale budget rejects the counter with ErrInvalidTransition.
func (r *PostgresBudgetRepository) Counter(budgetID, authorID uint, req models.CounterBudgetRequest, ttl time.Duration) (*models.Negotiation, error) {
	negotiation := &models.Negotiation{
		BudgetID: budgetID,
		AuthorID: authorID,
		Value:    req.Value,
		TermDays: req.TermDays,
		Message:  req.Message,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Budget{}).
			Where("id = ? AND status IN ? AND expires_at > ?", budgetID, liveStatuses, time.Now()).
			Updates(map[string]interface{}{
				"status":     models.BudgetNegotiating,
				"expires_at": time.Now().Add(ttl),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return tx.Create(negotiation).Error
	})
	if err != nil {
		return nil, err
	}
	return negotiation, nil
}

// Accept settles the budget in a single transaction: guard-update to
// ACCEPTED, create the contract and pending payment, auto-reject sibling
// live budgets. The unique indexes on contracts.budget_id and
// contracts.post_id are the last line of defense against a concurrent
// acceptance; a duplicate-key error surfaces as ErrPostAlreadyContracted.
func (r *PostgresBudgetRepository) Accept(budgetID, clientID uint, feeRate float64, externalRef string) (*AcceptResult, error) {
	result := &AcceptResult{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var budget models.Budget
		if err := tx.Preload("Negotiations", func(db *gorm.DB) *gorm.DB {
			return db.Order("negotiations.created_at ASC")
		}).First(&budget, budgetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if budget.ClientID != clientID {
			return ErrInvalidTransition
		}

		res := tx.Model(&models.Budget{}).
			Where("id = ? AND status IN ? AND expires_at > ?", budgetID, liveStatuses, time.Now()).
			Update("status", models.BudgetAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if budget.IsStale(time.Now()) {
				return ErrBudgetExpired
			}
			return ErrInvalidTransition
		}
		budget.Status = models.BudgetAccepted

		value, termDays := budget.CurrentTerms()
		contract := &models.Contract{
			BudgetID:   budget.ID,
			PostID:     budget.PostID,
			ClientID:   budget.ClientID,
			ProviderID: budget.ProviderID,
			Value:      value,
			Deadline:   time.Now().AddDate(0, 0, termDays),
			Status:     models.ContractActive,
		}
		if err := tx.Create(contract).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrPostAlreadyContracted
			}
			return err
		}

		payment := &models.Payment{
			ContractID:        contract.ID,
			Value:             value,
			PlatformFee:       models.PlatformFee(value, feeRate),
			Status:            models.PaymentPending,
			ExternalReference: externalRef,
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		// Losing budgets are auto-rejected so their providers get a definite
		// answer instead of waiting out the expiry window.
		var siblings []models.Budget
		if err := tx.Where("post_id = ? AND id <> ? AND status IN ?", budget.PostID, budget.ID, liveStatuses).
			Find(&siblings).Error; err != nil {
			return err
		}
		if len(siblings) > 0 {
			ids := make([]uint, len(siblings))
			for i, s := range siblings {
				ids[i] = s.ID
			}
			if err := tx.Model(&models.Budget{}).Where("id IN ?", ids).
				Update("status", models.BudgetRejected).Error; err != nil {
				return err
			}
		}

		result.Budget = &budget
		result.Contract = contract
		result.Payment = payment
		result.RejectedBudgets = siblings
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus handles the terminal client/provider decisions: reject by the
// client, cancel by the provider. The actor column checked depends on the
// target status.
func (r *PostgresBudgetRepository) UpdateStatus(budgetID, actorID uint, to models.BudgetStatus) error {
	actorColumn := "client_id"
	if to == models.BudgetCancelled {
		actorColumn = "provider_id"
	}

	res := r.db.Model(&models.Budget{}).
		Where("id = ? AND "+actorColumn+" = ? AND status IN ?", budgetID, actorID, liveStatuses).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// ExpireStale flips every overdue live budget to EXPIRED and reports how many
// rows moved
func (r *PostgresBudgetRepository) ExpireStale(now time.Time) (int64, error) {
	res := r.db.Model(&models.Budget{}).
		Where("status IN ? AND expires_at <= ?", liveStatuses, now).
		Update("status", models.BudgetExpired)
	return res.RowsAffected, res.Error
}

func (r *PostgresBudgetRepository) expireStaleQuiet() {
	if _, err := r.ExpireStale(time.Now()); err != nil {
		log.Printf("budget expiry sweep failed: %v", err)
	}
}
