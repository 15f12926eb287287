package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestNewMercadoPagoGateway(t *testing.T) {
	t.Run("requires an access token outside mock mode", func(t *testing.T) {
		t.Setenv("PAYMENT_GATEWAY_MOCK", "")
		t.Setenv("MERCADOPAGO_MOCK", "")

		_, err := NewMercadoPagoGateway("")
		if !errors.Is(err, ErrMissingMercadoPagoAccessToken) {
			t.Fatalf("expected ErrMissingMercadoPagoAccessToken, got %v", err)
		}
	})

	t.Run("mock mode needs no token", func(t *testing.T) {
		t.Setenv("PAYMENT_GATEWAY_MOCK", "1")

		g, err := NewMercadoPagoGateway("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !g.mockMode {
			t.Fatal("expected mock mode")
		}
	})
}

func TestMercadoPagoGateway_CreatePayment_Mock(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY_MOCK", "true")
	g, err := NewMercadoPagoGateway("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload := json.RawMessage(`{"payment_method_id":"pix","transaction_amount":120,"external_reference":"ref-1"}`)
	id, status, resp, err := g.CreatePayment(context.Background(), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a provider payment id")
	}
	if status != "approved" {
		t.Fatalf("expected approved, got %s", status)
	}

	var body map[string]any
	if err := json.Unmarshal(resp, &body); err != nil {
		t.Fatalf("invalid provider response: %v", err)
	}
	if body["external_reference"] != "ref-1" {
		t.Fatalf("expected the request payload echoed back, got %v", body["external_reference"])
	}
	if body["status_detail"] != "accredited" {
		t.Fatalf("expected accredited detail, got %v", body["status_detail"])
	}
}
