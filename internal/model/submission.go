// Package model defines domain entities for the application.
package model

import "github.com/claimflow/claimflow/internal/validation"

// Collections that submissions are written to.
const (
	CollectionContactSubmission = "contactsubmission"
	CollectionSubscriber        = "subscriber"
)

// DefaultSource is recorded when a form does not say where it was posted from.
const DefaultSource = "website"

// ContactSubmission is an inbound contact or demo request from the marketing site.
type ContactSubmission struct {
	Name    string  `json:"name" validate:"min=2"`
	Email   string  `json:"email" validate:"email"`
	Company *string `json:"company"`
	Message string  `json:"message" validate:"min=5"`
	Source  string  `json:"source"`
}

// BindContactSubmission reads a ContactSubmission out of b, applying defaults.
// Presence and type violations are recorded on b.
func BindContactSubmission(b *validation.Binder) *ContactSubmission {
	return &ContactSubmission{
		Name:    b.String("name"),
		Email:   b.String("email"),
		Company: b.OptionalString("company"),
		Message: b.String("message"),
		Source:  b.StringOr("source", DefaultSource),
	}
}

// Fields returns the document fields to persist.
func (c *ContactSubmission) Fields() map[string]any {
	var company any
	if c.Company != nil {
		company = *c.Company
	}
	return map[string]any{
		"name":    c.Name,
		"email":   c.Email,
		"company": company,
		"message": c.Message,
		"source":  c.Source,
	}
}

// Subscriber is a newsletter signup.
type Subscriber struct {
	Email   string `json:"email" validate:"email"`
	Consent bool   `json:"consent"`
	Source  string `json:"source"`
}

// BindSubscriber reads a Subscriber out of b. Consent defaults to true.
func BindSubscriber(b *validation.Binder) *Subscriber {
	return &Subscriber{
		Email:   b.String("email"),
		Consent: b.BoolOr("consent", true),
		Source:  b.StringOr("source", DefaultSource),
	}
}

// Fields returns the document fields to persist.
func (s *Subscriber) Fields() map[string]any {
	return map[string]any{
		"email":   s.Email,
		"consent": s.Consent,
		"source":  s.Source,
	}
}
