package notify

import (
  "context"
  "fmt"
)

// Error is a structured pipeline failure: an HTTP-like code paired with a
// stable reason token suitable for logging and alerting.
type Error struct {
  Code int
  Reason string
}

func (e *Error) Error() string {
  return fmt.Sprintf("%d: %s", e.Code, e.Reason)
}

// Validation reason tokens, one per required field.
const (
  ReasonExpectedFromName = "ExpectedFromNodeNameToPostSettledInvoice"
  ReasonExpectedConnectedID = "ExpectedConnectedIdToPostSettledInvoice"
  ReasonExpectedInvoice = "ExpectedInvoiceToPostSettledInvoice"
  ReasonExpectedNodeKey = "ExpectedNodeIdentityKeyToPostSettledInvoice"
  ReasonExpectedNodeHandle = "ExpectedNodeApiHandleToPostSettledInvoice"
  ReasonExpectedNodes = "ExpectedArrayOfNodesToPostSettledInvoice"
  ReasonExpectedQuizSender = "ExpectedSendQuizFunctionToPostSettledInvoice"
  ReasonExpectedSendFn = "ExpectedSendMessageFunctionToPostSettledInvoice"
)

// Params are the inputs to PostSettledInvoice. Nodes must be present but
// may be empty; everything else is required.
type Params struct {
  From string
  ID string
  Invoice *SettledInvoice
  Key string
  NodeHandle NodeAPI
  Nodes []ControlledNode
  QuizSender SendQuizFn
  Send SendFn
}

// Pipeline classifies a settled invoice, composes the category message and
// dispatches it. Composer defaults to the built-in category composers.
// OnClassified, when set, observes every classified settlement, including
// transfers that suppress messaging.
type Pipeline struct {
  Composer Composer
  OnClassified func(invoice *SettledInvoice, category Category)
}

func NewPipeline() *Pipeline {
  return &Pipeline{Composer: DefaultComposer()}
}

// PostSettledInvoice runs the full pipeline for one settled invoice. It
// either completes classification, composition and dispatch, or fails with
// the first step's error and sends nothing further; there is no partial
// notification. A collaborator panic during dispatch surfaces as the
// pipeline's error rather than crashing the caller.
func (p *Pipeline) PostSettledInvoice(ctx context.Context, params Params) (err error) {
  if err := validateParams(params); err != nil {
    return err
  }

  defer func() {
    if r := recover(); r != nil {
      err = fmt.Errorf("settled invoice dispatch panic: %v", r)
    }
  }()

  classifier := &Classifier{
    Key: params.Key,
    Nodes: params.Nodes,
    API: params.NodeHandle,
  }
  classification, err := classifier.Classify(ctx, params.Invoice)
  if err != nil {
    return err
  }

  if classification.Category != CategoryNone && p.OnClassified != nil {
    p.OnClassified(params.Invoice, classification.Category)
  }

  composer := p.composer()

  var descriptor *MessageDescriptor
  switch classification.Category {
  case CategoryNone, CategoryTransfer:
    // Transfers show up on the sending node; unconfirmed invoices are
    // not ready yet. Neither produces a message.
    return nil
  case CategoryBalancedOpen:
    proposal := classification.BalancedOpen
    label := p.partnerLabel(ctx, params.NodeHandle, proposal.PartnerPublicKey)
    descriptor, err = composer.BalancedOpen(proposal.CapacityTokens, label, proposal.FeeRate)
  case CategoryRebalance:
    rebalance := classification.Rebalance
    descriptor, err = composer.Rebalance(
      rebalance.FeeMtokens, rebalance.Hops,
      params.Invoice.Payments, params.Invoice.ReceivedMtokens,
    )
  case CategoryReceived:
    descriptor, err = composer.Received(
      params.Invoice.Description, params.Invoice.Payments,
      params.Invoice.Received, classification.Via,
    )
  }
  if err != nil {
    return err
  }
  if descriptor == nil {
    return nil
  }

  return dispatch(ctx, &params, descriptor)
}

func (p *Pipeline) composer() Composer {
  composer := p.Composer
  if composer.BalancedOpen == nil {
    composer.BalancedOpen = ComposeBalancedOpen
  }
  if composer.Rebalance == nil {
    composer.Rebalance = ComposeRebalance
  }
  if composer.Received == nil {
    composer.Received = ComposeReceived
  }
  return composer
}

// partnerLabel resolves a proposal partner key to an alias, falling back
// to the key itself.
func (p *Pipeline) partnerLabel(ctx context.Context, api NodeAPI, publicKey string) string {
  alias, err := api.ResolveAlias(ctx, publicKey)
  if err != nil || alias == "" {
    return publicKey
  }
  return alias
}

func validateParams(params Params) error {
  switch {
  case params.From == "":
    return &Error{Code: 400, Reason: ReasonExpectedFromName}
  case params.ID == "":
    return &Error{Code: 400, Reason: ReasonExpectedConnectedID}
  case params.Invoice == nil:
    return &Error{Code: 400, Reason: ReasonExpectedInvoice}
  case params.Key == "":
    return &Error{Code: 400, Reason: ReasonExpectedNodeKey}
  case params.NodeHandle == nil:
    return &Error{Code: 400, Reason: ReasonExpectedNodeHandle}
  case params.Nodes == nil:
    return &Error{Code: 400, Reason: ReasonExpectedNodes}
  case params.QuizSender == nil:
    return &Error{Code: 400, Reason: ReasonExpectedQuizSender}
  case params.Send == nil:
    return &Error{Code: 400, Reason: ReasonExpectedSendFn}
  }
  return nil
}
