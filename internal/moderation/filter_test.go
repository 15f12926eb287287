package moderation

import (
	"strings"
	"testing"
)

func TestFilter_Check(t *testing.T) {
	f := NewFilter(nil)

	t.Run("passes ordinary conversation", func(t *testing.T) {
		for _, content := range []string{
			"Bom dia, posso começar o serviço na segunda?",
			"O valor inclui o material?",
			"Fechado, aguardo a confirmação pela plataforma.",
		} {
			if blocked, reason := f.Check(content); blocked {
				t.Fatalf("%q should pass, blocked with %q", content, reason)
			}
		}
	})

	t.Run("flags phone numbers", func(t *testing.T) {
		for _, content := range []string{
			"me liga no (11) 99876-5432",
			"meu numero é 11 98765 4321",
			"+55 11 91234-5678 qualquer hora",
		} {
			blocked, reason := f.Check(content)
			if !blocked {
				t.Fatalf("%q should be flagged", content)
			}
			if !strings.Contains(reason, "phone") {
				t.Fatalf("expected a phone reason, got %q", reason)
			}
		}
	})

	t.Run("flags email addresses", func(t *testing.T) {
		blocked, reason := f.Check("manda proposta pra joao.silva@example.com")
		if !blocked || !strings.Contains(reason, "email") {
			t.Fatalf("expected email flag, got blocked=%v reason=%q", blocked, reason)
		}
	})

	t.Run("flags external links", func(t *testing.T) {
		for _, content := range []string{
			"olha meu portfolio em https://meusite.example",
			"acessa www.promo-servicos.example aí",
		} {
			blocked, reason := f.Check(content)
			if !blocked || !strings.Contains(reason, "link") {
				t.Fatalf("%q: expected link flag, got blocked=%v reason=%q", content, blocked, reason)
			}
		}
	})

	t.Run("flags off-platform terms case-insensitively", func(t *testing.T) {
		blocked, reason := f.Check("Me chama no WhatsApp que fica mais barato")
		if !blocked || !strings.Contains(reason, "whatsapp") {
			t.Fatalf("expected whatsapp flag, got blocked=%v reason=%q", blocked, reason)
		}
	})

	t.Run("honors extra blocklist words", func(t *testing.T) {
		custom := NewFilter([]string{" Sinal Adiantado "})
		blocked, _ := custom.Check("só começo com sinal adiantado em espécie")
		if !blocked {
			t.Fatal("expected the extra word to be flagged")
		}
	})
}
