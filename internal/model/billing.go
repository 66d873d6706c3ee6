package model

type Subscription struct {
	Status            string     `json:"status"`
	PlanID            string     `json:"plan_id,omitempty"`
	PlanName          string     `json:"plan_name,omitempty"`
	CurrentPeriodEnd  *Timestamp `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}

type CheckoutParams struct {
	PriceID    string `json:"price_id"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type PortalParams struct {
	ReturnURL string `json:"return_url"`
}

// RedirectSession is a hosted payment page the browser is sent to.
type RedirectSession struct {
	URL string `json:"url"`
}

type Invoice struct {
	ID               string     `json:"id"`
	AmountDue        int64      `json:"amount_due"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	HostedInvoiceURL string     `json:"hosted_invoice_url,omitempty"`
	CreatedAt        *Timestamp `json:"created_at,omitempty"`
}
