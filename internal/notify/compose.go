package notify

import (
  "encoding/hex"
  "fmt"
  "strconv"
  "strings"
  "unicode/utf8"
)

// keysendMessageRecord is the TLV type carrying a keysend chat message.
const keysendMessageRecord = "34349334"

// Composer holds the category-specific message builders. The returned
// descriptor's Quiz, when set, must place the correct answer at index 0;
// the dispatcher randomizes placement.
type Composer struct {
  BalancedOpen func(capacity int64, partnerLabel string, feeRate uint64) (*MessageDescriptor, error)
  Rebalance func(feeMtokens string, hops []string, payments []PaymentContribution, receivedMtokens string) (*MessageDescriptor, error)
  Received func(description string, payments []PaymentContribution, receivedTokens int64, via []ChannelAlias) (*MessageDescriptor, error)
}

func DefaultComposer() Composer {
  return Composer{
    BalancedOpen: ComposeBalancedOpen,
    Rebalance: ComposeRebalance,
    Received: ComposeReceived,
  }
}

// ComposeBalancedOpen describes an externally funded channel proposal.
func ComposeBalancedOpen(capacity int64, partnerLabel string, feeRate uint64) (*MessageDescriptor, error) {
  if capacity <= 0 {
    return nil, fmt.Errorf("expected positive capacity to compose balanced open message")
  }
  label := strings.TrimSpace(partnerLabel)
  if label == "" {
    return nil, fmt.Errorf("expected partner label to compose balanced open message")
  }

  return &MessageDescriptor{
    Icon: "⚖️",
    Message: fmt.Sprintf(
      "Balanced open proposal: %s capacity channel with %s at %d/vbyte",
      FormatTokens(capacity), label, feeRate,
    ),
  }, nil
}

// ComposeRebalance describes an own-node circular payment. When the route
// has enough hops a quiz asks which peer carried the payment out; the
// first hop is the correct answer.
func ComposeRebalance(feeMtokens string, hops []string, payments []PaymentContribution, receivedMtokens string) (*MessageDescriptor, error) {
  amount := tokensFromMtokens(receivedMtokens)
  if amount == 0 {
    amount = paymentsTotalTokens(payments)
  }

  descriptor := &MessageDescriptor{
    Icon: "☯️",
    Message: fmt.Sprintf("Rebalanced %s, paid %s fee", FormatTokens(amount), formatFeeMtokens(feeMtokens)),
  }

  answers := dedupeStrings(hops)
  if len(answers) >= minQuizAnswers && len(answers) <= maxQuizAnswers {
    descriptor.Title = "Which peer took the rebalance out?"
    descriptor.Quiz = answers
  }
  return descriptor, nil
}

// ComposeReceived describes an ordinary received payment. A quiz is
// attached when the invoice arrived over channels with at least two
// distinct counterparties; the peer that carried the largest contribution
// is the correct answer.
func ComposeReceived(description string, payments []PaymentContribution, receivedTokens int64, via []ChannelAlias) (*MessageDescriptor, error) {
  message := fmt.Sprintf("Received %s", FormatTokens(receivedTokens))
  if trimmed := strings.TrimSpace(description); trimmed != "" {
    message += fmt.Sprintf(" for “%s”", trimmed)
  }
  if keysend := keysendMessage(payments); keysend != "" {
    message += fmt.Sprintf(" with message “%s”", keysend)
  }
  if labels := aliasLabels(via); len(labels) > 0 {
    message += " via " + strings.Join(labels, ", ")
  }

  descriptor := &MessageDescriptor{Icon: "💰", Message: message}

  answers := receivedQuiz(payments, via)
  if len(answers) >= minQuizAnswers && len(answers) <= maxQuizAnswers {
    descriptor.Title = "Who routed this payment?"
    descriptor.Quiz = answers
  }
  return descriptor, nil
}

// receivedQuiz builds the answer list for a received payment: the alias
// behind the largest contribution first, the remaining distinct aliases
// after it. Fewer than two distinct aliases means no quiz.
func receivedQuiz(payments []PaymentContribution, via []ChannelAlias) []string {
  aliases := dedupeStrings(aliasLabels(via))
  if len(aliases) < minQuizAnswers {
    return nil
  }

  correct := aliasForChannel(via, largestContributionChannel(payments))
  if correct == "" {
    correct = aliases[0]
  }

  answers := []string{correct}
  for _, alias := range aliases {
    if alias != correct {
      answers = append(answers, alias)
    }
  }
  return answers
}

func largestContributionChannel(payments []PaymentContribution) string {
  channel := ""
  var largest int64 = -1
  for _, payment := range payments {
    amount, err := strconv.ParseInt(payment.Mtokens, 10, 64)
    if err != nil {
      amount = payment.Tokens * 1e3
    }
    if amount > largest {
      largest = amount
      channel = payment.InChannel
    }
  }
  return channel
}

func aliasForChannel(via []ChannelAlias, channelID string) string {
  for _, entry := range via {
    if entry.ID == channelID {
      return entry.Alias
    }
  }
  return ""
}

func aliasLabels(via []ChannelAlias) []string {
  labels := make([]string, 0, len(via))
  for _, entry := range via {
    if trimmed := strings.TrimSpace(entry.Alias); trimmed != "" {
      labels = append(labels, trimmed)
    }
  }
  return labels
}

// keysendMessage extracts an attached keysend chat message from the
// funding HTLCs, if one decodes to printable text.
func keysendMessage(payments []PaymentContribution) string {
  for _, payment := range payments {
    value := recordValue(payment.Messages, keysendMessageRecord)
    if value == "" {
      continue
    }
    raw, err := hex.DecodeString(value)
    if err != nil || !utf8.Valid(raw) {
      continue
    }
    if text := strings.TrimSpace(string(raw)); text != "" {
      return text
    }
  }
  return ""
}

func paymentsTotalTokens(payments []PaymentContribution) int64 {
  var total int64
  for _, payment := range payments {
    total += payment.Tokens
  }
  return total
}

func dedupeStrings(items []string) []string {
  seen := make(map[string]struct{}, len(items))
  var out []string
  for _, item := range items {
    trimmed := strings.TrimSpace(item)
    if trimmed == "" {
      continue
    }
    if _, ok := seen[trimmed]; ok {
      continue
    }
    seen[trimmed] = struct{}{}
    out = append(out, trimmed)
  }
  return out
}
