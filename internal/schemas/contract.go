// Package schemas declares the shapes contract payloads must satisfy before
// they are persisted or returned to a client.
package schemas

import (
	"encoding/json"
	"fmt"
	"time"

	"rental/internal/apperrors"
	"rental/internal/models"

	"github.com/go-playground/validator/v10"
)

const contractNumberMessage = "O numero do contrato é Obrigatorio"

// ContractCreate is the accepted shape of a new contract. Pointer fields
// must be present in the payload but may hold a zero value.
type ContractCreate struct {
	Number     *int    `json:"number" validate:"required"`
	Retirada   string  `json:"retirada" validate:"required"`
	Devolucao  string  `json:"devolucao" validate:"required"`
	Observacao *string `json:"observacao"`
	Tipo       *string `json:"tipo" validate:"required"`
	Status     *string `json:"status" validate:"required"`
	ProductID  *string `json:"product_id" validate:"omitempty,uuid"`
}

// ContractResponse is the shape a contract must have when handed back to a client.
type ContractResponse struct {
	ID         string    `json:"id" validate:"required,uuid"`
	Number     int       `json:"number" validate:"min=1"`
	Retirada   string    `json:"retirada" validate:"required"`
	Devolucao  string    `json:"devolucao" validate:"required"`
	Observacao *string   `json:"observacao"`
	Tipo       string    `json:"tipo"`
	Status     string    `json:"status"`
	ProductID  *string   `json:"product_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewContractResponse builds the response shape of a stored contract.
func NewContractResponse(c *models.Contract) ContractResponse {
	return ContractResponse{
		ID:         c.ID,
		Number:     c.Number,
		Retirada:   c.Retirada,
		Devolucao:  c.Devolucao,
		Observacao: c.Observacao,
		Tipo:       c.Tipo,
		Status:     c.Status,
		ProductID:  c.ProductID,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ParseContractCreate decodes body and validates it against the create
// shape. Every violated field is reported in the returned error.
func ParseContractCreate(body []byte) (*ContractCreate, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, apperrors.Validation("invalid contract payload: expected a JSON object")
	}

	var in ContractCreate
	targets := map[string]any{
		"number":     &in.Number,
		"retirada":   &in.Retirada,
		"devolucao":  &in.Devolucao,
		"observacao": &in.Observacao,
		"tipo":       &in.Tipo,
		"status":     &in.Status,
		"product_id": &in.ProductID,
	}

	var fields []apperrors.FieldError
	typeErrs := make(map[string]bool)
	for _, name := range []string{"number", "retirada", "devolucao", "observacao", "tipo", "status", "product_id"} {
		value, ok := raw[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, targets[name]); err != nil {
			typeErrs[name] = true
			fields = append(fields, apperrors.FieldError{
				Field:   name,
				Message: fmt.Sprintf("expected %s", expectedType(name)),
			})
		}
	}

	if err := validate.Struct(in); err != nil {
		for _, fe := range asFieldErrors(err, raw) {
			if !typeErrs[fe.Field] {
				fields = append(fields, fe)
			}
		}
	}

	if len(fields) > 0 {
		return nil, apperrors.Validation("invalid contract payload", fields...)
	}
	return &in, nil
}

// ValidateContractResponse checks r against the response shape.
func ValidateContractResponse(r ContractResponse) error {
	if err := validate.Struct(r); err != nil {
		return apperrors.Validation("invalid contract", asFieldErrors(err, nil)...)
	}
	return nil
}

func asFieldErrors(err error, raw map[string]json.RawMessage) []apperrors.FieldError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperrors.FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperrors.FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe, raw),
		})
	}
	return out
}

func messageFor(fe validator.FieldError, raw map[string]json.RawMessage) string {
	switch fe.Tag() {
	case "required":
		if raw != nil {
			if v, present := raw[fe.Field()]; present && string(v) != "null" {
				return "must not be empty"
			}
		}
		return "is required"
	case "min":
		if fe.Field() == "number" {
			return contractNumberMessage
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}

func expectedType(field string) string {
	switch field {
	case "number":
		return "number"
	case "observacao":
		return "string or null"
	default:
		return "string"
	}
}
