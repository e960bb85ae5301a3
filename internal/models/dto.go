package models

// Request payloads as they arrive from the outside. Dates come in as strings
// so they can be validated and parsed explicitly; prices come in as decimal
// amounts and are converted to cents by the services.

// RegisterClientRequest is the body of the client sign-up endpoint.
type RegisterClientRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterProviderRequest carries the provider sign-up form fields; the ID
// photo travels alongside it as a multipart file.
type RegisterProviderRequest struct {
	FullName    string `json:"full_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	CompanyName string `json:"company_name" validate:"required"`
	BankCLABE   string `json:"bank_clabe" validate:"required,numeric,len=18"`
}

// LoginRequest authenticates by email, not username.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ServiceUpsert is the form part of publishing or editing a service.
type ServiceUpsert struct {
	Name           string  `json:"name" validate:"required"`
	Category       string  `json:"category" validate:"required"`
	Street         string  `json:"street" validate:"required"`
	ExteriorNumber string  `json:"exterior_number" validate:"required"`
	InteriorNumber string  `json:"interior_number"`
	Neighborhood   string  `json:"neighborhood" validate:"required"`
	PostalCode     string  `json:"postal_code" validate:"required"`
	City           string  `json:"city"`
	MinPrice       float64 `json:"min_price" validate:"required,gt=0"`
	MaxPrice       float64 `json:"max_price" validate:"required,gtefield=MinPrice"`
	Description    string  `json:"description" validate:"required"`
}

// ImageUpload is one uploaded file, already read into memory so the catalog
// service can validate extension and payload before anything is persisted.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// CreateRequestDTO is the body of the budget-request creation endpoint.
// EventDate uses the 2006-01-02 layout.
type CreateRequestDTO struct {
	EventType      string  `json:"event_type" validate:"required"`
	EventDate      string  `json:"event_date" validate:"required,datetime=2006-01-02"`
	DurationHours  float64 `json:"duration_hours" validate:"required,gt=0"`
	Attendees      int     `json:"attendees" validate:"required,gt=0"`
	Street         string  `json:"street" validate:"required"`
	ExteriorNumber string  `json:"exterior_number" validate:"required"`
	InteriorNumber string  `json:"interior_number"`
	Neighborhood   string  `json:"neighborhood" validate:"required"`
	PostalCode     string  `json:"postal_code" validate:"required"`
}

// RespondRequestDTO carries the provider's quoted price.
type RespondRequestDTO struct {
	Price float64 `json:"price" validate:"required,gt=0"`
}

// CreateReviewDTO is the body of the review creation endpoint.
type CreateReviewDTO struct {
	Stars   int    `json:"stars" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// NotificationEvent is the message published to the notifications exchange
// for the email worker.
type NotificationEvent struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// Cents converts a decimal amount to integer cents.
func Cents(amount float64) int64 {
	return int64(amount*100 + 0.5)
}
