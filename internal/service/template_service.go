package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gestorzap/campaign-engine/internal/models"
)

// RecipientData is the fixed set of fields a template may draw from.
// Optional fields left nil render as a lookup miss: the placeholder stays
// in the output verbatim.
type RecipientData struct {
	Name    string
	Phone   string
	Plan    string
	DueDate *time.Time
	Amount  *float64
}

// RecipientDataFromClient builds renderer input from a directory snapshot
func RecipientDataFromClient(c *models.Client) RecipientData {
	return RecipientData{
		Name:    c.Name,
		Phone:   c.Phone,
		Plan:    c.Plan,
		DueDate: c.DueDate,
		Amount:  c.Amount,
	}
}

// TemplateService handles template rendering and validation.
//
// Render is a pure function: no side effects, safe for previews.
// Unrecognized placeholders are left verbatim, which both supports
// partial templates and makes rendering idempotent: re-rendering an
// already-rendered string changes nothing.
type TemplateService interface {
	Render(template string, data RecipientData) string
	ValidateTemplate(template string) error
	ExtractPlaceholders(template string) []string
}

type templateService struct {
	placeholderPattern *regexp.Regexp
}

// NewTemplateService creates a new template service
func NewTemplateService() TemplateService {
	return &templateService{
		placeholderPattern: regexp.MustCompile(`\{([a-z_]+)\}`),
	}
}

// Render substitutes every recognized placeholder with the recipient's
// value. Dates format as dd/mm/yyyy, currency as two decimals with the
// locale symbol.
func (s *templateService) Render(template string, data RecipientData) string {
	return s.placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		field := strings.Trim(match, "{}")

		switch field {
		case "nome":
			return data.Name
		case "telefone":
			return data.Phone
		case "plano":
			return data.Plan
		case "vencimento":
			if data.DueDate == nil {
				return match
			}
			return data.DueDate.Format("02/01/2006")
		case "valor":
			if data.Amount == nil {
				return match
			}
			return formatCurrency(*data.Amount)
		default:
			// Lookup miss: leave the placeholder untouched.
			return match
		}
	})
}

// ValidateTemplate checks if template syntax is usable. Unknown
// placeholders are not an error; they pass through at render time.
func (s *templateService) ValidateTemplate(template string) error {
	if strings.TrimSpace(template) == "" {
		return models.ErrInvalidInput("template cannot be empty")
	}
	return nil
}

// ExtractPlaceholders returns all placeholders found in template
func (s *templateService) ExtractPlaceholders(template string) []string {
	matches := s.placeholderPattern.FindAllStringSubmatch(template, -1)
	placeholders := make([]string, 0, len(matches))

	for _, match := range matches {
		if len(match) > 1 {
			placeholders = append(placeholders, match[1])
		}
	}

	return placeholders
}

func formatCurrency(v float64) string {
	return "R$ " + strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}
