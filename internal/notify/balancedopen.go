package notify

import (
  "encoding/binary"
  "encoding/hex"
)

// TLV record types carried on a balanced open funding HTLC.
const (
  recordBalancedOpenCapacity = "80501"
  recordBalancedOpenPartnerKey = "80502"
  recordBalancedOpenFeeRate = "80503"
)

const publicKeyHexLength = 66

// BalancedOpenProposal describes an externally funded channel proposal
// arriving as a push payment.
type BalancedOpenProposal struct {
  CapacityTokens int64
  PartnerPublicKey string
  FeeRate uint64
}

// balancedOpenProposal matches the structural signature of a balanced
// channel open funding flow: a push payment whose single contribution is
// still held, with nothing settled yet, announcing capacity, partner key
// and chain fee rate in TLV records. Returns nil when the invoice does
// not match.
func balancedOpenProposal(invoice *SettledInvoice) *BalancedOpenProposal {
  if invoice == nil || !invoice.IsPush {
    return nil
  }
  if !invoice.ConfirmedAt.IsZero() {
    return nil
  }
  if invoice.ReceivedMtokens != "" && invoice.ReceivedMtokens != "0" {
    return nil
  }
  if len(invoice.Payments) != 1 {
    return nil
  }

  payment := invoice.Payments[0]
  if !payment.IsHeld || payment.PendingIndex == nil {
    return nil
  }

  capacity, ok := recordUint64(payment.Messages, recordBalancedOpenCapacity)
  if !ok || capacity == 0 {
    return nil
  }
  rate, ok := recordUint64(payment.Messages, recordBalancedOpenFeeRate)
  if !ok || rate == 0 {
    return nil
  }
  partnerKey := recordValue(payment.Messages, recordBalancedOpenPartnerKey)
  if len(partnerKey) != publicKeyHexLength {
    return nil
  }
  if _, err := hex.DecodeString(partnerKey); err != nil {
    return nil
  }

  return &BalancedOpenProposal{
    CapacityTokens: int64(capacity),
    PartnerPublicKey: partnerKey,
    FeeRate: rate,
  }
}

func recordValue(records []PaymentRecord, recordType string) string {
  for _, record := range records {
    if record.Type == recordType {
      return record.Value
    }
  }
  return ""
}

// recordUint64 decodes a hex TLV value as a big-endian unsigned integer.
func recordUint64(records []PaymentRecord, recordType string) (uint64, bool) {
  value := recordValue(records, recordType)
  if value == "" {
    return 0, false
  }
  raw, err := hex.DecodeString(value)
  if err != nil || len(raw) == 0 || len(raw) > 8 {
    return 0, false
  }
  padded := make([]byte, 8)
  copy(padded[8-len(raw):], raw)
  return binary.BigEndian.Uint64(padded), true
}
