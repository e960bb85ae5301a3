package checkout

// CreateAccountRequest creates a connected express account for a provider.
type CreateAccountRequest struct {
	Type               string `json:"type"`
	Country            string `json:"country"`
	Email              string `json:"email"`
	BusinessType       string `json:"business_type"`
	ProductDescription string `json:"product_description,omitempty"`
}

// Account is a connected payment account.
type Account struct {
	ID string `json:"id"`
}

// CreateAccountLinkRequest asks for an onboarding link for a connected
// account.
type CreateAccountLinkRequest struct {
	Account    string `json:"account"`
	RefreshURL string `json:"refresh_url"`
	ReturnURL  string `json:"return_url"`
	Type       string `json:"type"`
}

// Link is a one-time URL returned for onboarding or dashboard login.
type Link struct {
	URL string `json:"url"`
}

// CreateSessionRequest creates a hosted checkout session. Amounts are in
// cents. Metadata is echoed back when the session is retrieved; the
// payment workflow stores the budget-request id there.
type CreateSessionRequest struct {
	Currency            string            `json:"currency"`
	ProductName         string            `json:"product_name"`
	UnitAmountCents     int64             `json:"unit_amount"`
	Quantity            int               `json:"quantity"`
	SuccessURL          string            `json:"success_url"`
	CancelURL           string            `json:"cancel_url"`
	ApplicationFeeCents int64             `json:"application_fee_amount"`
	TransferDestination string            `json:"transfer_destination"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

// Session is a hosted checkout session as returned by the provider.
type Session struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	Status      string            `json:"status"`
	AmountTotal int64             `json:"amount_total"`
	Metadata    map[string]string `json:"metadata"`
}
