package repositories

import (
	"errors"
	"time"

	"github.com/chamadopro/backend/internal/models"
	"gorm.io/gorm"
)

// FinalizeResult reports the outcome of one party's finalize call
type FinalizeResult struct {
	Contract  *models.Contract
	Review    *models.Review
	Completed bool // true once both parties have finalized
}

// ContractRepository defines the interface for contract lifecycle operations
type ContractRepository interface {
	GetContractByID(id uint) (*models.Contract, error)
	GetContractByBudgetID(budgetID uint) (*models.Contract, error)
	ListByParticipant(userID uint, page, limit int) ([]models.Contract, int64, error)
	ListAll(status models.ContractStatus, page, limit int) ([]models.Contract, int64, error)
	Finalize(contractID, initiatorID uint, req models.FinalizeContractRequest) (*FinalizeResult, error)
	Cancel(contractID, initiatorID uint) (*models.Contract, error)
	OpenDispute(contractID, initiatorID uint, reason string) (*models.Dispute, error)
	ResolveDispute(disputeID, adminID uint, outcome, resolution string) (*models.Dispute, *models.Contract, error)
	ListOpenDisputes() ([]models.Dispute, error)
	ListReviewsForUser(userID uint) ([]models.Review, error)
}

// PostgresContractRepository implements ContractRepository for PostgreSQL
type PostgresContractRepository struct {
	db *gorm.DB
}

// NewPostgresContractRepository creates a new PostgresContractRepository
func NewPostgresContractRepository(db *gorm.DB) *PostgresContractRepository {
	return &PostgresContractRepository{db: db}
}

// GetContractByID retrieves a contract by ID
func (r *PostgresContractRepository) GetContractByID(id uint) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.First(&contract, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}

// GetContractByBudgetID retrieves the contract spawned by a budget
func (r *PostgresContractRepository) GetContractByBudgetID(budgetID uint) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.Where("budget_id = ?", budgetID).First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}

// ListByParticipant retrieves contracts where the user is client or provider
func (r *PostgresContractRepository) ListByParticipant(userID uint, page, limit int) ([]models.Contract, int64, error) {
	var contracts []models.Contract
	var total int64

	q := r.db.Model(&models.Contract{}).Where("client_id = ? OR provider_id = ?", userID, userID)
	q.Count(&total)

	offset := (page - 1) * limit
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&contracts).Error
	return contracts, total, err
}

// ListAll retrieves contracts for the admin views, optionally by status
func (r *PostgresContractRepository) ListAll(status models.ContractStatus, page, limit int) ([]models.Contract, int64, error) {
	var contracts []models.Contract
	var total int64

	q := r.db.Model(&models.Contract{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q.Count(&total)

	offset := (page - 1) * limit
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&contracts).Error
	return contracts, total, err
}

// Finalize records the initiator's review and completion flag. The contract
// reaches COMPLETED only when both parties have finalized; the second call
// also archives the post unless the finalizer asked to keep it published.
func (r *PostgresContractRepository) Finalize(contractID, initiatorID uint, req models.FinalizeContractRequest) (*FinalizeResult, error) {
	result := &FinalizeResult{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var contract models.Contract
		if err := tx.Clauses(lockForUpdate()).First(&contract, contractID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !contract.IsParticipant(initiatorID) {
			return ErrNotFound
		}
		if contract.Status != models.ContractActive {
			return ErrInvalidTransition
		}

		doneColumn := "provider_done"
		alreadyDone := contract.ProviderDone
		if initiatorID == contract.ClientID {
			doneColumn = "client_done"
			alreadyDone = contract.ClientDone
		}
		if alreadyDone {
			return ErrAlreadyFinalized
		}

		review := &models.Review{
			ContractID: contract.ID,
			ReviewerID: initiatorID,
			RevieweeID: contract.Counterpart(initiatorID),
			Rating:     req.Rating,
			Comment:    req.Comment,
		}
		if err := tx.Create(review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyFinalized
			}
			return err
		}

		updates := map[string]interface{}{doneColumn: true}
		if req.KeepPublished {
			updates["keep_published"] = true
		}

		counterpartDone := contract.ClientDone || contract.ProviderDone
		if counterpartDone {
			updates["status"] = models.ContractCompleted
		}
		if err := tx.Model(&contract).Updates(updates).Error; err != nil {
			return err
		}

		if counterpartDone {
			// Completion releases the held payment to the provider.
			if err := tx.Model(&models.Payment{}).
				Where("contract_id = ? AND status = ?", contract.ID, models.PaymentPaid).
				Update("status", models.PaymentReleased).Error; err != nil {
				return err
			}
			if !contract.KeepPublished && !req.KeepPublished {
				if err := tx.Model(&models.Post{}).Where("id = ?", contract.PostID).
					Update("status", models.PostArchived).Error; err != nil {
					return err
				}
			}
		}

		result.Contract = &contract
		result.Review = review
		result.Completed = counterpartDone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel moves an ACTIVE contract to CANCELLED and flags its payment for
// refund
func (r *PostgresContractRepository) Cancel(contractID, initiatorID uint) (*models.Contract, error) {
	var contract models.Contract

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(lockForUpdate()).First(&contract, contractID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !contract.IsParticipant(initiatorID) {
			return ErrNotFound
		}
		if !contract.CanTransitionTo(models.ContractCancelled) || contract.Status == models.ContractDisputed {
			return ErrInvalidTransition
		}

		if err := tx.Model(&contract).Update("status", models.ContractCancelled).Error; err != nil {
			return err
		}
		// A paid or pending settlement gets flagged for refund; RELEASED is
		// unreachable here because release happens only after COMPLETED.
		return tx.Model(&models.Payment{}).
			Where("contract_id = ? AND status IN ?", contract.ID,
				[]models.PaymentStatus{models.PaymentPending, models.PaymentPaid}).
			Update("status", models.PaymentRefunded).Error
	})
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// OpenDispute moves an ACTIVE contract to DISPUTED and records the dispute
func (r *PostgresContractRepository) OpenDispute(contractID, initiatorID uint, reason string) (*models.Dispute, error) {
	dispute := &models.Dispute{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var contract models.Contract
		if err := tx.Clauses(lockForUpdate()).First(&contract, contractID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !contract.IsParticipant(initiatorID) {
			return ErrNotFound
		}

		res := tx.Model(&models.Contract{}).
			Where("id = ? AND status = ?", contractID, models.ContractActive).
			Update("status", models.ContractDisputed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		dispute.ContractID = contractID
		dispute.InitiatorID = initiatorID
		dispute.Reason = reason
		dispute.Status = models.DisputeOpen
		return tx.Create(dispute).Error
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

// ResolveDispute routes a DISPUTED contract to COMPLETED (payment RELEASED)
// or CANCELLED (payment REFUNDED). Moderator-only, enforced at the route.
func (r *PostgresContractRepository) ResolveDispute(disputeID, adminID uint, outcome, resolution string) (*models.Dispute, *models.Contract, error) {
	var dispute models.Dispute
	var contract models.Contract

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(lockForUpdate()).First(&dispute, disputeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if dispute.Status != models.DisputeOpen {
			return ErrInvalidTransition
		}
		if err := tx.First(&contract, dispute.ContractID).Error; err != nil {
			return err
		}
		if contract.Status != models.ContractDisputed {
			return ErrInvalidTransition
		}

		contractStatus := models.ContractCompleted
		paymentStatus := models.PaymentReleased
		// Release only money actually collected; cancellation refunds both
		// pending and paid settlements.
		paymentFrom := []models.PaymentStatus{models.PaymentPaid}
		if outcome == models.DisputeOutcomeCancel {
			contractStatus = models.ContractCancelled
			paymentStatus = models.PaymentRefunded
			paymentFrom = []models.PaymentStatus{models.PaymentPending, models.PaymentPaid}
		}

		if err := tx.Model(&contract).Update("status", contractStatus).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Payment{}).
			Where("contract_id = ? AND status IN ?", contract.ID, paymentFrom).
			Update("status", paymentStatus).Error; err != nil {
			return err
		}

		now := time.Now()
		return tx.Model(&dispute).Updates(map[string]interface{}{
			"status":      models.DisputeResolved,
			"resolution":  resolution,
			"resolved_by": adminID,
			"resolved_at": &now,
		}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &dispute, &contract, nil
}

// ListOpenDisputes retrieves all unresolved disputes, oldest first
func (r *PostgresContractRepository) ListOpenDisputes() ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.Where("status = ?", models.DisputeOpen).Order("created_at ASC").Find(&disputes).Error
	return disputes, err
}

// ListReviewsForUser retrieves reviews received by a user
func (r *PostgresContractRepository) ListReviewsForUser(userID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.Where("reviewee_id = ?", userID).Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}
