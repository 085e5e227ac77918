package adapter

import "context"

// CheckoutRequest carries what the gateway needs to open a hosted checkout.
type CheckoutRequest struct {
	ConversationID string
	Price          string // e.g. "810.00", TRY
	BasketID       string
	PackageID      string
	PackageName    string
	BuyerID        string
	BuyerName      string
	BuyerEmail     string
	BuyerIP        string
	CallbackURL    string
}

// CheckoutSession is the gateway's answer to an initialize request.
type CheckoutSession struct {
	Token           string
	CheckoutFormURL string
}

// CheckoutResult is the gateway's answer to a status retrieval.
type CheckoutResult struct {
	Success       bool
	PaymentStatus string // "SUCCESS" when paid
	PaymentID     string
	ErrorMessage  string
}

// CheckoutGateway is the hex port for hosted-checkout payment providers.
// Every request is signed; a provider rejecting the signature surfaces as
// domain.ErrGatewaySignature and must not be retried.
type CheckoutGateway interface {
	Name() string
	InitializeCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	RetrieveCheckout(ctx context.Context, token string) (CheckoutResult, error)
}
