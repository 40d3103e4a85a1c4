package service

import (
	"reflect"
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time { return &t }
func floatPtr(f float64) *float64    { return &f }

func TestTemplateService_Render(t *testing.T) {
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		template string
		data     RecipientData
		want     string
	}{
		{
			name:     "all fields present",
			template: "Olá {nome}, seu plano {plano} vence em {vencimento}. Valor: {valor}",
			data: RecipientData{
				Name:    "Maria",
				Plan:    "Premium",
				DueDate: timePtr(due),
				Amount:  floatPtr(49.90),
			},
			want: "Olá Maria, seu plano Premium vence em 01/05/2024. Valor: R$ 49,90",
		},
		{
			name:     "phone placeholder",
			template: "Confirme seu número: {telefone}",
			data:     RecipientData{Phone: "5511999990000"},
			want:     "Confirme seu número: 5511999990000",
		},
		{
			name:     "multiple same placeholders",
			template: "{nome}, sim {nome}, você!",
			data:     RecipientData{Name: "João"},
			want:     "João, sim João, você!",
		},
		{
			name:     "unknown placeholder left verbatim",
			template: "Olá {nome}, código {codigo}",
			data:     RecipientData{Name: "Maria"},
			want:     "Olá Maria, código {codigo}",
		},
		{
			name:     "nil due date left verbatim",
			template: "Vence em {vencimento}",
			data:     RecipientData{},
			want:     "Vence em {vencimento}",
		},
		{
			name:     "nil amount left verbatim",
			template: "Valor: {valor}",
			data:     RecipientData{},
			want:     "Valor: {valor}",
		},
		{
			name:     "currency uses comma separator",
			template: "{valor}",
			data:     RecipientData{Amount: floatPtr(120.5)},
			want:     "R$ 120,50",
		},
		{
			name:     "no placeholders",
			template: "Mensagem sem variáveis",
			data:     RecipientData{Name: "Maria"},
			want:     "Mensagem sem variáveis",
		},
		{
			name:     "empty name renders empty",
			template: "Olá {nome}!",
			data:     RecipientData{},
			want:     "Olá !",
		},
		{
			name:     "malformed braces ignored",
			template: "Olá {nome, tudo bem?",
			data:     RecipientData{Name: "Maria"},
			want:     "Olá {nome, tudo bem?",
		},
	}

	svc := NewTemplateService()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Render(tt.template, tt.data)
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Rendering an already-rendered template must change nothing: a second
// pass sees no recognized placeholders and leaves strays alone.
func TestTemplateService_Render_Idempotent(t *testing.T) {
	svc := NewTemplateService()

	data := RecipientData{
		Name:   "Maria",
		Plan:   "Básico",
		Amount: floatPtr(29.90),
	}

	first := svc.Render("Olá {nome} ({plano}): {valor}, ref {pedido}", data)
	second := svc.Render(first, data)

	if first != second {
		t.Errorf("second render changed output: %q -> %q", first, second)
	}
}

func TestTemplateService_ValidateTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		wantErr  bool
	}{
		{"valid template", "Olá {nome}", false},
		{"plain text", "Sem placeholders", false},
		{"unknown placeholder is fine", "Código {codigo}", false},
		{"empty template", "", true},
		{"whitespace only", "   ", true},
	}

	svc := NewTemplateService()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateTemplate(tt.template)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTemplate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTemplateService_ExtractPlaceholders(t *testing.T) {
	svc := NewTemplateService()

	got := svc.ExtractPlaceholders("Olá {nome}, plano {plano}, vence {vencimento}")
	want := []string{"nome", "plano", "vencimento"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractPlaceholders() = %v, want %v", got, want)
	}

	if got := svc.ExtractPlaceholders("sem variáveis"); len(got) != 0 {
		t.Errorf("ExtractPlaceholders() = %v, want empty", got)
	}
}
