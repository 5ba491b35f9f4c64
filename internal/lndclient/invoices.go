package lndclient

import (
  "context"
  "encoding/hex"
  "sort"
  "strconv"
  "time"

  "github.com/silenzara/ln-telegram/internal/notify"

  "github.com/lightningnetwork/lnd/lnrpc"
)

// SubscribeSettledInvoices streams settled invoices past settleIndex to
// the handler, blocking until the stream ends. The handler receives the
// invoice together with its settle index so the caller can keep a cursor.
func (c *Client) SubscribeSettledInvoices(ctx context.Context, settleIndex uint64, handle func(invoice *notify.SettledInvoice, settleIndex uint64)) error {
  conn, err := c.dial(ctx)
  if err != nil {
    return err
  }
  defer conn.Close()

  stream, err := lnrpc.NewLightningClient(conn).SubscribeInvoices(ctx, &lnrpc.InvoiceSubscription{
    SettleIndex: settleIndex,
  })
  if err != nil {
    return err
  }

  cursor := settleIndex
  for {
    invoice, err := stream.Recv()
    if err != nil {
      return err
    }
    if invoice.State != lnrpc.Invoice_SETTLED {
      continue
    }
    if invoice.SettleIndex <= cursor {
      continue
    }
    cursor = invoice.SettleIndex

    handle(settledInvoiceFromRPC(invoice), cursor)
  }
}

func settledInvoiceFromRPC(invoice *lnrpc.Invoice) *notify.SettledInvoice {
  payments := make([]notify.PaymentContribution, 0, len(invoice.Htlcs))
  for _, htlc := range invoice.Htlcs {
    if htlc == nil {
      continue
    }
    payment := notify.PaymentContribution{
      InChannel: formatChannelID(htlc.ChanId),
      Mtokens: strconv.FormatUint(htlc.AmtMsat, 10),
      Tokens: int64(htlc.AmtMsat / 1e3),
      IsConfirmed: htlc.State == lnrpc.InvoiceHTLCState_SETTLED,
      IsCanceled: htlc.State == lnrpc.InvoiceHTLCState_CANCELED,
      IsHeld: htlc.State == lnrpc.InvoiceHTLCState_ACCEPTED,
    }
    if htlc.State == lnrpc.InvoiceHTLCState_ACCEPTED {
      index := htlc.HtlcIndex
      payment.PendingIndex = &index
    }
    if htlc.MppTotalAmtMsat > 0 {
      payment.TotalMtokens = strconv.FormatUint(htlc.MppTotalAmtMsat, 10)
    }
    for recordType, value := range htlc.CustomRecords {
      payment.Messages = append(payment.Messages, notify.PaymentRecord{
        Type: strconv.FormatUint(recordType, 10),
        Value: hex.EncodeToString(value),
      })
    }
    sort.Slice(payment.Messages, func(i, j int) bool {
      return payment.Messages[i].Type < payment.Messages[j].Type
    })
    payments = append(payments, payment)
  }

  return &notify.SettledInvoice{
    ID: hex.EncodeToString(invoice.RHash),
    IsConfirmed: invoice.State == lnrpc.Invoice_SETTLED,
    Description: invoice.Memo,
    Received: invoice.AmtPaidSat,
    ReceivedMtokens: strconv.FormatInt(invoice.AmtPaidMsat, 10),
    IsPush: invoice.IsKeysend,
    ConfirmedAt: time.Unix(invoice.SettleDate, 0).UTC(),
    Payments: payments,
  }
}
