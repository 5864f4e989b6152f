// pkg/models/api.go
package models

// Envelope is the JSON shape every endpoint responds with.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty" example:"Complaint submitted successfully"`
	Data    any                 `json:"data,omitempty"`
	Error   string              `json:"error,omitempty" example:"NOT_FOUND"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// OKMessage wraps data in a success envelope with a human message.
func OKMessage(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// ErrorResponse documents the failure envelope for swagger.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Complaint not found"`
	Error   string `json:"error,omitempty" example:"NOT_FOUND"`
}

// ValidationErrorResponse documents the validation failure envelope.
type ValidationErrorResponse struct {
	Success bool                `json:"success" example:"false"`
	Message string              `json:"message" example:"Validation failed"`
	Error   string              `json:"error" example:"VALIDATION"`
	Errors  map[string][]string `json:"errors"`
}
