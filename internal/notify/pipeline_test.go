package notify

import (
  "context"
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
)

func validParams(recorder *dispatchRecorder, api NodeAPI) Params {
  return Params{
    From: "alpha",
    ID: "chat-1",
    Invoice: receivedInvoice(),
    Key: selfKey,
    NodeHandle: api,
    Nodes: []ControlledNode{{Label: "alpha", PublicKey: selfKey, API: api}},
    QuizSender: recorder.sendQuiz,
    Send: recorder.send,
  }
}

func TestPostSettledInvoiceValidation(t *testing.T) {
  recorder := &dispatchRecorder{}
  api := &fakeNodeAPI{}

  tests := []struct {
    name string
    mutate func(*Params)
    reason string
  }{
    {"missing from", func(p *Params) { p.From = "" }, ReasonExpectedFromName},
    {"missing id", func(p *Params) { p.ID = "" }, ReasonExpectedConnectedID},
    {"missing invoice", func(p *Params) { p.Invoice = nil }, ReasonExpectedInvoice},
    {"missing key", func(p *Params) { p.Key = "" }, ReasonExpectedNodeKey},
    {"missing node handle", func(p *Params) { p.NodeHandle = nil }, ReasonExpectedNodeHandle},
    {"missing nodes", func(p *Params) { p.Nodes = nil }, ReasonExpectedNodes},
    {"missing quiz sender", func(p *Params) { p.QuizSender = nil }, ReasonExpectedQuizSender},
    {"missing send", func(p *Params) { p.Send = nil }, ReasonExpectedSendFn},
  }

  for _, tt := range tests {
    t.Run(tt.name, func(t *testing.T) {
      params := validParams(recorder, api)
      tt.mutate(&params)

      err := NewPipeline().PostSettledInvoice(context.Background(), params)
      var pipelineErr *Error
      require.ErrorAs(t, err, &pipelineErr)
      assert.Equal(t, 400, pipelineErr.Code)
      assert.Equal(t, tt.reason, pipelineErr.Reason)
    })
  }
}

func TestPostSettledInvoiceEmptyNodesIsValid(t *testing.T) {
  recorder := &dispatchRecorder{}
  params := validParams(recorder, &fakeNodeAPI{})
  params.Nodes = []ControlledNode{}

  err := NewPipeline().PostSettledInvoice(context.Background(), params)
  require.NoError(t, err)
  assert.Len(t, recorder.messages, 1)
}

func TestPostSettledInvoiceReceived(t *testing.T) {
  recorder := &dispatchRecorder{}
  api := &fakeNodeAPI{
    edges: map[string]*ChannelEdge{
      "700000x1x1": {Policies: []ChannelPolicy{{PublicKey: selfKey}, {PublicKey: peerKey}}},
    },
    aliases: map[string]string{peerKey: "carol"},
  }

  err := NewPipeline().PostSettledInvoice(context.Background(), validParams(recorder, api))
  require.NoError(t, err)

  require.Len(t, recorder.messages, 1)
  assert.Equal(t, "💰 Received 100 via carol", recorder.messages[0].text)
  assert.Empty(t, recorder.quizzes)
}

func TestPostSettledInvoiceUnconfirmedSendsNothing(t *testing.T) {
  recorder := &dispatchRecorder{}
  params := validParams(recorder, &fakeNodeAPI{})
  params.Invoice = &SettledInvoice{ID: "dd04"}

  classified := false
  pipeline := NewPipeline()
  pipeline.OnClassified = func(*SettledInvoice, Category) { classified = true }

  err := pipeline.PostSettledInvoice(context.Background(), params)
  require.NoError(t, err)
  assert.Empty(t, recorder.messages)
  assert.False(t, classified)
}

func TestPostSettledInvoiceTransferSuppressed(t *testing.T) {
  recorder := &dispatchRecorder{}
  invoice := receivedInvoice()
  sibling := &fakeNodeAPI{
    pastPayments: map[string]PastPaymentEvent{
      invoice.ID: {Status: PastPaymentConfirmed, Payment: &PastPayment{}},
    },
  }

  params := validParams(recorder, &fakeNodeAPI{})
  params.Invoice = invoice
  params.Nodes = append(params.Nodes, ControlledNode{
    Label: "beta", PublicKey: otherNodeKey, API: sibling,
  })

  var observed Category
  pipeline := NewPipeline()
  pipeline.OnClassified = func(_ *SettledInvoice, category Category) { observed = category }

  err := pipeline.PostSettledInvoice(context.Background(), params)
  require.NoError(t, err)

  // The transfer is recorded but never messaged.
  assert.Equal(t, CategoryTransfer, observed)
  assert.Empty(t, recorder.messages)
  assert.Empty(t, recorder.quizzes)
}

func TestPostSettledInvoiceRebalanceWithQuiz(t *testing.T) {
  original := quizIndex
  defer func() { quizIndex = original }()
  quizIndex = func(n int) int { return 0 }

  recorder := &dispatchRecorder{}
  invoice := receivedInvoice()
  api := &fakeNodeAPI{
    pastPayments: map[string]PastPaymentEvent{
      invoice.ID: {
        Status: PastPaymentConfirmed,
        Payment: &PastPayment{FeeMtokens: "1500", Hops: []string{"peer-a", "peer-b"}},
      },
    },
  }
  params := validParams(recorder, api)
  params.Invoice = invoice

  err := NewPipeline().PostSettledInvoice(context.Background(), params)
  require.NoError(t, err)

  require.Len(t, recorder.messages, 1)
  assert.Equal(t, "☯️ Rebalanced 100, paid 1.500 fee", recorder.messages[0].text)

  require.Len(t, recorder.quizzes, 1)
  assert.Equal(t, []string{"peer-a", "peer-b"}, recorder.quizzes[0].Answers)
  assert.Equal(t, 0, recorder.quizzes[0].CorrectIndex)
}

func TestPostSettledInvoiceBalancedOpen(t *testing.T) {
  recorder := &dispatchRecorder{}
  api := &fakeNodeAPI{
    aliases: map[string]string{testPartnerKey: "carol"},
  }
  params := validParams(recorder, api)
  params.Invoice = balancedOpenInvoice()

  err := NewPipeline().PostSettledInvoice(context.Background(), params)
  require.NoError(t, err)

  require.Len(t, recorder.messages, 1)
  assert.Equal(t, "⚖️ Balanced open proposal: 2000k capacity channel with carol at 2/vbyte", recorder.messages[0].text)
}

func TestPostSettledInvoiceBalancedOpenLabelFallsBackToKey(t *testing.T) {
  recorder := &dispatchRecorder{}
  params := validParams(recorder, &fakeNodeAPI{})
  params.Invoice = balancedOpenInvoice()

  err := NewPipeline().PostSettledInvoice(context.Background(), params)
  require.NoError(t, err)

  require.Len(t, recorder.messages, 1)
  assert.Contains(t, recorder.messages[0].text, testPartnerKey)
}

func TestPostSettledInvoiceMultiNodeSuffix(t *testing.T) {
  recorder := &dispatchRecorder{}
  params := validParams(recorder, &fakeNodeAPI{})
  params.From = "alpha.main"
  params.Nodes = append(params.Nodes, ControlledNode{Label: "beta", PublicKey: otherNodeKey, API: &fakeNodeAPI{}})

  err := NewPipeline().PostSettledInvoice(context.Background(), params)
  require.NoError(t, err)

  require.Len(t, recorder.messages, 1)
  assert.Contains(t, recorder.messages[0].text, "\\- alpha\\.main")
}

func TestPostSettledInvoicePanicBecomesError(t *testing.T) {
  params := validParams(&dispatchRecorder{}, &fakeNodeAPI{})
  params.Send = func(context.Context, string, string, string) error {
    panic("collaborator exploded")
  }

  err := NewPipeline().PostSettledInvoice(context.Background(), params)
  require.Error(t, err)
  assert.Contains(t, err.Error(), "collaborator exploded")
}
