package notify

import (
  "context"
  "time"
)

// SettledInvoice is the invoice snapshot delivered by the node's invoice
// subscription. It is read-only within this package.
type SettledInvoice struct {
  ID string `json:"id"`
  IsConfirmed bool `json:"is_confirmed"`
  Description string `json:"description"`
  Received int64 `json:"received"`
  ReceivedMtokens string `json:"received_mtokens"`
  IsPush bool `json:"is_push"`
  ConfirmedAt time.Time `json:"confirmed_at"`
  Payments []PaymentContribution `json:"payments"`
}

// PaymentContribution is one HTLC that funded the invoice.
type PaymentContribution struct {
  InChannel string `json:"in_channel"`
  Mtokens string `json:"mtokens"`
  Tokens int64 `json:"tokens"`
  IsConfirmed bool `json:"is_confirmed"`
  IsCanceled bool `json:"is_canceled"`
  IsHeld bool `json:"is_held"`
  PendingIndex *uint64 `json:"pending_index,omitempty"`
  TotalMtokens string `json:"total_mtokens,omitempty"`
  Messages []PaymentRecord `json:"messages,omitempty"`
}

// PaymentRecord is a custom TLV record carried on an HTLC. Value is hex.
type PaymentRecord struct {
  Type string `json:"type"`
  Value string `json:"value"`
}

// ControlledNode is a node the operator controls. The receiving node is
// part of the list and is excluded from transfer probes by key equality.
type ControlledNode struct {
  Label string
  PublicKey string
  API NodeAPI
}

// ChannelAlias pairs a channel id with the resolved counterparty label.
type ChannelAlias struct {
  ID string `json:"id"`
  Alias string `json:"alias"`
}

// ChannelPolicy is one side of a channel edge.
type ChannelPolicy struct {
  PublicKey string
}

// ChannelEdge is the result of a channel lookup.
type ChannelEdge struct {
  Policies []ChannelPolicy
}

type PastPaymentStatus int

const (
  PastPaymentConfirmed PastPaymentStatus = iota
  PastPaymentFailed
  PastPaymentError
)

// PastPayment is a settled outgoing payment found on a controlled node.
type PastPayment struct {
  FeeMtokens string
  Hops []string
}

// PastPaymentEvent is the single terminal event of a past-payment
// subscription: confirmed carries the payment, failed and error do not.
type PastPaymentEvent struct {
  Status PastPaymentStatus
  Payment *PastPayment
}

// NodeAPI is the node RPC surface this package consumes. Implementations
// own transport, retries, and timeouts.
type NodeAPI interface {
  LookupChannel(ctx context.Context, channelID string) (*ChannelEdge, error)
  ResolveAlias(ctx context.Context, publicKey string) (string, error)
  SubscribeToPastPayment(ctx context.Context, paymentHash string) (<-chan PastPaymentEvent, error)
}

// MessageDescriptor is a composed notification. Quiz, when present, has
// between 2 and 10 answers and the answer at index 0 is the correct one;
// the dispatcher re-randomizes placement before sending.
type MessageDescriptor struct {
  Icon string
  Message string
  Title string
  Quiz []string
}
