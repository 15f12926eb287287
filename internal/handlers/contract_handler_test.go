package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/chamadopro/backend/internal/models"
	"github.com/chamadopro/backend/internal/repositories"
)

func TestContractHandler_FinalizeContract(t *testing.T) {
	contracts := map[uint]*models.Contract{
		5: {ID: 5, ClientID: 1, ProviderID: 2, Value: 120, Status: models.ContractActive},
	}

	t.Run("first finalization keeps the contract active", func(t *testing.T) {
		contractRepo := &fakeContractRepo{
			contracts: contracts,
			finalizeResult: &repositories.FinalizeResult{
				Contract:  contracts[5],
				Review:    &models.Review{ContractID: 5, ReviewerID: 1, RevieweeID: 2, Rating: 5},
				Completed: false,
			},
		}
		h := NewContractHandler(contractRepo, nil, nil)

		e := newTestEcho()
		c, rec := newAuthedRequest(e, http.MethodPost, "/contracts/5/finalize",
			`{"rating":5,"comment":"Excelente trabalho"}`, 1)
		c.SetParamNames("id")
		c.SetParamValues("5")

		if err := h.FinalizeContract(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var body struct {
			Status    models.ContractStatus `json:"status"`
			Completed bool                  `json:"completed"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if body.Completed || body.Status != models.ContractActive {
			t.Fatalf("expected still active, got %+v", body)
		}
	})

	t.Run("second party's finalization completes the contract", func(t *testing.T) {
		contractRepo := &fakeContractRepo{
			contracts: contracts,
			finalizeResult: &repositories.FinalizeResult{
				Contract:  &models.Contract{ID: 5, ClientID: 1, ProviderID: 2, Value: 120, Status: models.ContractCompleted},
				Review:    &models.Review{ContractID: 5, ReviewerID: 2, RevieweeID: 1, Rating: 4},
				Completed: true,
			},
		}
		h := NewContractHandler(contractRepo, nil, nil)

		e := newTestEcho()
		c, rec := newAuthedRequest(e, http.MethodPost, "/contracts/5/finalize",
			`{"rating":4,"comment":"Cliente atencioso"}`, 2)
		c.SetParamNames("id")
		c.SetParamValues("5")

		if err := h.FinalizeContract(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var body struct {
			Status    models.ContractStatus `json:"status"`
			Completed bool                  `json:"completed"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if !body.Completed || body.Status != models.ContractCompleted {
			t.Fatalf("expected completed, got %+v", body)
		}
	})

	t.Run("answers conflict on a repeated finalization", func(t *testing.T) {
		contractRepo := &fakeContractRepo{contracts: contracts, finalizeErr: repositories.ErrAlreadyFinalized}
		h := NewContractHandler(contractRepo, nil, nil)

		e := newTestEcho()
		c, _ := newAuthedRequest(e, http.MethodPost, "/contracts/5/finalize",
			`{"rating":5,"comment":"Excelente trabalho"}`, 1)
		c.SetParamNames("id")
		c.SetParamValues("5")

		err := h.FinalizeContract(c)
		assertHTTPError(t, err, http.StatusConflict)
	})

	t.Run("rejects a finalization from an outsider", func(t *testing.T) {
		h := NewContractHandler(&fakeContractRepo{contracts: contracts}, nil, nil)

		e := newTestEcho()
		c, _ := newAuthedRequest(e, http.MethodPost, "/contracts/5/finalize",
			`{"rating":5,"comment":"Excelente trabalho"}`, 99)
		c.SetParamNames("id")
		c.SetParamValues("5")

		err := h.FinalizeContract(c)
		assertHTTPError(t, err, http.StatusForbidden)
	})

	t.Run("rejects a rating outside 1..5", func(t *testing.T) {
		h := NewContractHandler(&fakeContractRepo{contracts: contracts}, nil, nil)

		e := newTestEcho()
		c, _ := newAuthedRequest(e, http.MethodPost, "/contracts/5/finalize",
			`{"rating":9,"comment":"nota máxima"}`, 1)
		c.SetParamNames("id")
		c.SetParamValues("5")

		err := h.FinalizeContract(c)
		assertHTTPError(t, err, http.StatusBadRequest)
	})
}

func TestContractHandler_OpenDispute(t *testing.T) {
	contracts := map[uint]*models.Contract{
		5: {ID: 5, ClientID: 1, ProviderID: 2, Status: models.ContractActive},
	}

	t.Run("opens a dispute on an active contract", func(t *testing.T) {
		h := NewContractHandler(&fakeContractRepo{contracts: contracts}, nil, nil)

		e := newTestEcho()
		c, rec := newAuthedRequest(e, http.MethodPost, "/contracts/5/dispute",
			`{"reason":"Serviço não foi concluído no prazo combinado"}`, 1)
		c.SetParamNames("id")
		c.SetParamValues("5")

		if err := h.OpenDispute(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}

		var dispute models.Dispute
		if err := json.Unmarshal(rec.Body.Bytes(), &dispute); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if dispute.Status != models.DisputeOpen || dispute.InitiatorID != 1 {
			t.Fatalf("unexpected dispute: %+v", dispute)
		}
	})

	t.Run("answers conflict when the contract is not active", func(t *testing.T) {
		contractRepo := &fakeContractRepo{contracts: contracts, disputeErr: repositories.ErrInvalidTransition}
		h := NewContractHandler(contractRepo, nil, nil)

		e := newTestEcho()
		c, _ := newAuthedRequest(e, http.MethodPost, "/contracts/5/dispute",
			`{"reason":"Serviço não foi concluído no prazo combinado"}`, 2)
		c.SetParamNames("id")
		c.SetParamValues("5")

		err := h.OpenDispute(c)
		assertHTTPError(t, err, http.StatusConflict)
	})
}
