// Package models contains the domain entities of the DecoRent marketplace:
// users and their client/provider profiles, published services, budget
// requests, contracts, notifications and reviews. All monetary amounts are
// stored as integer cents.
package models

import (
	"strings"
	"time"
)

// Budget request lifecycle. A request never returns to pending.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// Contract transaction states.
const (
	ContractStatusPending   = "pending"
	ContractStatusCompleted = "completed"
)

// Notification kinds, one per workflow transition.
const (
	NotificationRequestCreated   = "request_created"
	NotificationRequestAnswered  = "request_answered"
	NotificationPaymentConfirmed = "payment_confirmed"
	NotificationRateService      = "rate_service"
)

// User is the identity record shared by clients and providers.
type User struct {
	ID             int64
	UID            string // uuid, carried in JWT claims
	FullName       string
	Email          string // unique, used for login
	PasswordHash   string
	IsClient       bool
	IsProvider     bool
	GoogleSignup   bool
	FacebookSignup bool
	IOSSignup      bool
	CreatedAt      time.Time
}

// Client is the 1:1 client profile of a user.
type Client struct {
	ID     int64
	UserID int64
}

// Provider is the 1:1 provider profile of a user. CheckoutAccountID stays
// empty until the provider finishes payment-account onboarding; checkout
// creation is blocked while it is empty.
type Provider struct {
	ID                int64
	UserID            int64
	CompanyName       string
	BankCLABE         string
	CheckoutAccountID string
}

// Address keeps the location components apart instead of round-tripping a
// formatted string. MapsQuery renders the geocoding form on demand.
type Address struct {
	Street         string
	ExteriorNumber string
	InteriorNumber string
	Neighborhood   string
	PostalCode     string
	City           string
}

// MapsQuery returns the address as a single geocoding query string with
// spaces encoded as %20, the format the maps frontend embeds in URLs.
func (a Address) MapsQuery() string {
	parts := []string{a.Street, a.ExteriorNumber}
	if a.InteriorNumber != "" {
		parts = append(parts, a.InteriorNumber)
	}
	joined := strings.Join(parts, " ") + ", " + a.Neighborhood + ", " + a.PostalCode
	if a.City != "" {
		joined += " " + a.City
	}
	return strings.ReplaceAll(joined, " ", "%20")
}

// Service is a published offering owned by exactly one provider.
// AverageRating is derived from reviews and recomputed on every insert.
type Service struct {
	ID            int64
	ProviderID    int64
	Name          string
	Category      string
	Address       Address
	MinPriceCents int64
	MaxPriceCents int64
	Description   string
	AverageRating float64
}

// ServiceImage is one stored image of a service, referenced by path.
type ServiceImage struct {
	ID        int64
	ServiceID int64
	Path      string
}

// BudgetRequest links one client, one provider and one service.
// PriceCents is nil until the provider accepts; the invariant
// "price set iff status accepted" is enforced by the request workflow.
type BudgetRequest struct {
	ID            int64
	ClientID      int64
	ProviderID    int64
	ServiceID     int64
	EventType     string
	EventDate     time.Time
	DurationHours float64
	Attendees     int
	Address       Address
	Status        string
	PriceCents    *int64
	CreatedAt     time.Time
}

// Contract records a completed payment for an accepted request.
// CheckoutSessionID is unique so a replayed success callback can never
// produce a second row.
type Contract struct {
	ID                int64
	ClientID          int64
	ServiceID         int64
	PriceCents        int64
	Status            string
	ContractDate      time.Time
	CheckoutSessionID string
}

// Notification is addressed to one user, optionally tied to a request.
type Notification struct {
	ID        int64
	UserID    int64
	RequestID *int64
	Kind      string
	Message   string
	CreatedAt time.Time
	Read      bool
}

// Review is one user's rating of a service. At most one review per
// (service, user) pair; the schema enforces it.
type Review struct {
	ID        int64
	ServiceID int64
	UserID    int64
	UserName  string
	Stars     int
	Comment   string
	CreatedAt time.Time
}
