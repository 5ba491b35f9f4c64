package notify

import (
  "context"
  "strings"

  "golang.org/x/sync/errgroup"
)

type Category int

const (
  CategoryNone Category = iota
  CategoryTransfer
  CategoryBalancedOpen
  CategoryRebalance
  CategoryReceived
)

func (c Category) String() string {
  switch c {
  case CategoryTransfer:
    return "transfer"
  case CategoryBalancedOpen:
    return "balanced_open"
  case CategoryRebalance:
    return "rebalance"
  case CategoryReceived:
    return "received"
  default:
    return "none"
  }
}

// Classification carries the facts for exactly one category.
type Classification struct {
  Category Category
  BalancedOpen *BalancedOpenProposal
  Rebalance *PastPayment
  Via []ChannelAlias
}

// Classifier decides which category a settled invoice belongs to. The
// four checks run concurrently; precedence is fixed regardless of which
// probe answers first: transfer, then balanced open, then rebalance, then
// plain receive.
type Classifier struct {
  Key string
  Nodes []ControlledNode
  API NodeAPI
}

func (c *Classifier) Classify(ctx context.Context, invoice *SettledInvoice) (*Classification, error) {
  if invoice == nil || !invoice.IsConfirmed {
    return &Classification{Category: CategoryNone}, nil
  }

  var (
    proposal *BalancedOpenProposal
    via []ChannelAlias
    rebalance *PastPayment
    transfer bool
  )

  group, groupCtx := errgroup.WithContext(ctx)
  group.Go(func() error {
    proposal = balancedOpenProposal(invoice)
    return nil
  })
  group.Go(func() error {
    via = c.resolveAliases(groupCtx, invoice)
    return nil
  })
  group.Go(func() error {
    rebalance = c.findRebalance(groupCtx, invoice.ID)
    return nil
  })
  group.Go(func() error {
    transfer = c.findTransfer(groupCtx, invoice.ID)
    return nil
  })
  if err := group.Wait(); err != nil {
    return nil, err
  }

  switch {
  case transfer:
    return &Classification{Category: CategoryTransfer}, nil
  case proposal != nil:
    return &Classification{Category: CategoryBalancedOpen, BalancedOpen: proposal}, nil
  case rebalance != nil:
    return &Classification{Category: CategoryRebalance, Rebalance: rebalance}, nil
  default:
    return &Classification{Category: CategoryReceived, Via: via}, nil
  }
}

// resolveAliases maps the distinct set of funding channels to counterparty
// labels. Any lookup failure falls back to the raw channel id.
func (c *Classifier) resolveAliases(ctx context.Context, invoice *SettledInvoice) []ChannelAlias {
  seen := make(map[string]struct{}, len(invoice.Payments))
  var channels []string
  for _, payment := range invoice.Payments {
    id := strings.TrimSpace(payment.InChannel)
    if id == "" {
      continue
    }
    if _, ok := seen[id]; ok {
      continue
    }
    seen[id] = struct{}{}
    channels = append(channels, id)
  }

  aliases := make([]ChannelAlias, len(channels))
  group, groupCtx := errgroup.WithContext(ctx)
  for i, id := range channels {
    i, id := i, id
    group.Go(func() error {
      aliases[i] = ChannelAlias{ID: id, Alias: c.resolveChannelAlias(groupCtx, id)}
      return nil
    })
  }
  _ = group.Wait()
  return aliases
}

func (c *Classifier) resolveChannelAlias(ctx context.Context, channelID string) string {
  edge, err := c.API.LookupChannel(ctx, channelID)
  if err != nil || edge == nil {
    return channelID
  }

  peerKey := ""
  for _, policy := range edge.Policies {
    if policy.PublicKey != "" && !strings.EqualFold(policy.PublicKey, c.Key) {
      peerKey = policy.PublicKey
      break
    }
  }
  if peerKey == "" {
    return channelID
  }

  alias, err := c.API.ResolveAlias(ctx, peerKey)
  if err != nil || strings.TrimSpace(alias) == "" {
    return channelID
  }
  return alias
}

// findRebalance reports the receiving node's own settled payment for the
// invoice hash, if one exists. Failed and errored subscriptions mean no
// rebalance, never a pipeline error.
func (c *Classifier) findRebalance(ctx context.Context, paymentHash string) *PastPayment {
  events, err := c.API.SubscribeToPastPayment(ctx, paymentHash)
  if err != nil {
    return nil
  }
  select {
  case event, ok := <-events:
    if !ok || event.Status != PastPaymentConfirmed {
      return nil
    }
    return event.Payment
  case <-ctx.Done():
    return nil
  }
}

// findTransfer races past-payment probes across every other controlled
// node and reports true as soon as one confirms. Outstanding probes are
// cancelled on the first confirmation; exhausting all probes without a
// confirmation means no transfer.
func (c *Classifier) findTransfer(ctx context.Context, paymentHash string) bool {
  var others []ControlledNode
  for _, node := range c.Nodes {
    if strings.EqualFold(node.PublicKey, c.Key) {
      continue
    }
    others = append(others, node)
  }
  if len(others) == 0 {
    return false
  }

  probeCtx, cancel := context.WithCancel(ctx)
  defer cancel()

  results := make(chan bool, len(others))
  for _, node := range others {
    node := node
    go func() {
      events, err := node.API.SubscribeToPastPayment(probeCtx, paymentHash)
      if err != nil {
        results <- false
        return
      }
      select {
      case event, ok := <-events:
        results <- ok && event.Status == PastPaymentConfirmed
      case <-probeCtx.Done():
        results <- false
      }
    }()
  }

  for range others {
    select {
    case confirmed := <-results:
      if confirmed {
        return true
      }
    case <-ctx.Done():
      return false
    }
  }
  return false
}
