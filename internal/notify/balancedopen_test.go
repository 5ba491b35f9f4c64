package notify

import (
  "strings"
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
)

const testPartnerKey = "02" + "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func balancedOpenInvoice() *SettledInvoice {
  pending := uint64(1)
  return &SettledInvoice{
    ID: "aa01",
    IsConfirmed: true,
    IsPush: true,
    Payments: []PaymentContribution{{
      InChannel: "700000x1x1",
      IsHeld: true,
      PendingIndex: &pending,
      Messages: []PaymentRecord{
        {Type: recordBalancedOpenCapacity, Value: "1e8480"},
        {Type: recordBalancedOpenPartnerKey, Value: testPartnerKey},
        {Type: recordBalancedOpenFeeRate, Value: "02"},
      },
    }},
  }
}

func TestBalancedOpenProposalMatch(t *testing.T) {
  proposal := balancedOpenProposal(balancedOpenInvoice())
  require.NotNil(t, proposal)

  assert.Equal(t, int64(2_000_000), proposal.CapacityTokens)
  assert.Equal(t, testPartnerKey, proposal.PartnerPublicKey)
  assert.Equal(t, uint64(2), proposal.FeeRate)
}

func TestBalancedOpenProposalRejections(t *testing.T) {
  t.Run("not a push", func(t *testing.T) {
    invoice := balancedOpenInvoice()
    invoice.IsPush = false
    assert.Nil(t, balancedOpenProposal(invoice))
  })

  t.Run("already received tokens", func(t *testing.T) {
    invoice := balancedOpenInvoice()
    invoice.ReceivedMtokens = "1000"
    assert.Nil(t, balancedOpenProposal(invoice))
  })

  t.Run("more than one contribution", func(t *testing.T) {
    invoice := balancedOpenInvoice()
    invoice.Payments = append(invoice.Payments, PaymentContribution{InChannel: "700000x2x2"})
    assert.Nil(t, balancedOpenProposal(invoice))
  })

  t.Run("not held", func(t *testing.T) {
    invoice := balancedOpenInvoice()
    invoice.Payments[0].IsHeld = false
    assert.Nil(t, balancedOpenProposal(invoice))
  })

  t.Run("no pending index", func(t *testing.T) {
    invoice := balancedOpenInvoice()
    invoice.Payments[0].PendingIndex = nil
    assert.Nil(t, balancedOpenProposal(invoice))
  })

  t.Run("missing capacity record", func(t *testing.T) {
    invoice := balancedOpenInvoice()
    invoice.Payments[0].Messages = invoice.Payments[0].Messages[1:]
    assert.Nil(t, balancedOpenProposal(invoice))
  })

  t.Run("short partner key", func(t *testing.T) {
    invoice := balancedOpenInvoice()
    invoice.Payments[0].Messages[1].Value = testPartnerKey[:20]
    assert.Nil(t, balancedOpenProposal(invoice))
  })

  t.Run("partner key not hex", func(t *testing.T) {
    invoice := balancedOpenInvoice()
    invoice.Payments[0].Messages[1].Value = strings.Repeat("zz", 33)
    assert.Nil(t, balancedOpenProposal(invoice))
  })

  t.Run("zero fee rate", func(t *testing.T) {
    invoice := balancedOpenInvoice()
    invoice.Payments[0].Messages[2].Value = "00"
    assert.Nil(t, balancedOpenProposal(invoice))
  })
}

func TestRecordUint64(t *testing.T) {
  records := []PaymentRecord{{Type: "1", Value: "01ff"}}

  value, ok := recordUint64(records, "1")
  require.True(t, ok)
  assert.Equal(t, uint64(511), value)

  _, ok = recordUint64(records, "2")
  assert.False(t, ok)

  _, ok = recordUint64([]PaymentRecord{{Type: "1", Value: "0102030405060708ff"}}, "1")
  assert.False(t, ok)

  _, ok = recordUint64([]PaymentRecord{{Type: "1", Value: "xx"}}, "1")
  assert.False(t, ok)
}
