package lndclient

import (
  "context"
  "crypto/x509"
  "encoding/hex"
  "errors"
  "fmt"
  "log"
  "os"
  "strconv"
  "strings"
  "sync"

  "github.com/silenzara/ln-telegram/internal/config"
  "github.com/silenzara/ln-telegram/internal/notify"

  "github.com/lightningnetwork/lnd/lnrpc"
  "github.com/lightningnetwork/lnd/lnrpc/routerrpc"
  "google.golang.org/grpc"
  "google.golang.org/grpc/credentials"
)

const maxGRPCMsgSize = 32 * 1024 * 1024

// Client is the gRPC handle for one controlled node. It implements
// notify.NodeAPI.
type Client struct {
  node config.NodeConfig
  logger *log.Logger

  mu sync.Mutex
  pubkey string
}

func New(node config.NodeConfig, logger *log.Logger) *Client {
  return &Client{node: node, logger: logger, pubkey: strings.ToLower(strings.TrimSpace(node.Pubkey))}
}

func (c *Client) Label() string {
  return c.node.Label
}

type macaroonCredential struct {
  macaroon string
}

func (m macaroonCredential) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
  return map[string]string{"macaroon": m.macaroon}, nil
}

func (m macaroonCredential) RequireTransportSecurity() bool {
  return true
}

func (c *Client) dial(ctx context.Context) (*grpc.ClientConn, error) {
  tlsCert, err := os.ReadFile(c.node.TLSCertPath)
  if err != nil {
    return nil, err
  }
  certPool := x509.NewCertPool()
  if ok := certPool.AppendCertsFromPEM(tlsCert); !ok {
    return nil, fmt.Errorf("failed to parse node TLS cert")
  }

  macBytes, err := os.ReadFile(c.node.MacaroonPath)
  if err != nil {
    return nil, err
  }

  creds := credentials.NewClientTLSFromCert(certPool, "")
  opts := []grpc.DialOption{
    grpc.WithTransportCredentials(creds),
    grpc.WithPerRPCCredentials(macaroonCredential{hex.EncodeToString(macBytes)}),
    grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxGRPCMsgSize)),
  }

  return grpc.DialContext(ctx, c.node.GRPCHost, opts...)
}

// PublicKey returns the node's identity pubkey, from config when pinned
// there, otherwise discovered once via GetInfo and cached.
func (c *Client) PublicKey(ctx context.Context) (string, error) {
  c.mu.Lock()
  cached := c.pubkey
  c.mu.Unlock()
  if cached != "" {
    return cached, nil
  }

  conn, err := c.dial(ctx)
  if err != nil {
    return "", err
  }
  defer conn.Close()

  info, err := lnrpc.NewLightningClient(conn).GetInfo(ctx, &lnrpc.GetInfoRequest{})
  if err != nil {
    return "", err
  }
  pubkey := strings.ToLower(strings.TrimSpace(info.IdentityPubkey))
  if pubkey == "" {
    return "", errors.New("node reported empty identity pubkey")
  }

  c.mu.Lock()
  c.pubkey = pubkey
  c.mu.Unlock()
  return pubkey, nil
}

// LookupChannel returns both policy sides of a channel edge.
func (c *Client) LookupChannel(ctx context.Context, channelID string) (*notify.ChannelEdge, error) {
  id, err := parseChannelID(channelID)
  if err != nil {
    return nil, err
  }

  conn, err := c.dial(ctx)
  if err != nil {
    return nil, err
  }
  defer conn.Close()

  edge, err := lnrpc.NewLightningClient(conn).GetChanInfo(ctx, &lnrpc.ChanInfoRequest{ChanId: id})
  if err != nil {
    return nil, err
  }

  return &notify.ChannelEdge{
    Policies: []notify.ChannelPolicy{
      {PublicKey: edge.Node1Pub},
      {PublicKey: edge.Node2Pub},
    },
  }, nil
}

// ResolveAlias looks up a node's announced alias.
func (c *Client) ResolveAlias(ctx context.Context, publicKey string) (string, error) {
  conn, err := c.dial(ctx)
  if err != nil {
    return "", err
  }
  defer conn.Close()

  info, err := lnrpc.NewLightningClient(conn).GetNodeInfo(ctx, &lnrpc.NodeInfoRequest{
    PubKey: publicKey,
    IncludeChannels: false,
  })
  if err != nil {
    return "", err
  }
  if info.GetNode() == nil {
    return "", errors.New("node info unavailable")
  }
  return info.GetNode().Alias, nil
}

// SubscribeToPastPayment tracks the node's own payment for a hash and
// emits exactly one terminal event: confirmed when the payment settled,
// failed when the node gave up on it, error on any transport problem
// (including the node never having attempted the payment).
func (c *Client) SubscribeToPastPayment(ctx context.Context, paymentHash string) (<-chan notify.PastPaymentEvent, error) {
  raw, err := hex.DecodeString(strings.TrimSpace(paymentHash))
  if err != nil {
    return nil, fmt.Errorf("invalid payment hash hex")
  }

  conn, err := c.dial(ctx)
  if err != nil {
    return nil, err
  }

  stream, err := routerrpc.NewRouterClient(conn).TrackPaymentV2(ctx, &routerrpc.TrackPaymentRequest{
    PaymentHash: raw,
    NoInflightUpdates: true,
  })
  if err != nil {
    _ = conn.Close()
    return nil, err
  }

  events := make(chan notify.PastPaymentEvent, 1)
  go func() {
    defer conn.Close()
    defer close(events)
    for {
      payment, err := stream.Recv()
      if err != nil {
        events <- notify.PastPaymentEvent{Status: notify.PastPaymentError}
        return
      }
      switch payment.Status {
      case lnrpc.Payment_SUCCEEDED:
        events <- notify.PastPaymentEvent{
          Status: notify.PastPaymentConfirmed,
          Payment: pastPaymentFromRPC(payment),
        }
        return
      case lnrpc.Payment_FAILED:
        events <- notify.PastPaymentEvent{Status: notify.PastPaymentFailed}
        return
      }
    }
  }()
  return events, nil
}

func pastPaymentFromRPC(payment *lnrpc.Payment) *notify.PastPayment {
  past := &notify.PastPayment{
    FeeMtokens: strconv.FormatInt(payment.FeeMsat, 10),
  }
  route := settledRouteFromPayment(payment)
  if route == nil {
    return past
  }
  for _, hop := range route.GetHops() {
    if hop == nil {
      continue
    }
    past.Hops = append(past.Hops, shortPubKey(hop.PubKey))
  }
  return past
}

func settledRouteFromPayment(payment *lnrpc.Payment) *lnrpc.Route {
  if payment == nil {
    return nil
  }
  for _, attempt := range payment.Htlcs {
    if attempt == nil || attempt.Route == nil {
      continue
    }
    if attempt.Status == lnrpc.HTLCAttempt_SUCCEEDED {
      return attempt.Route
    }
  }
  for _, attempt := range payment.Htlcs {
    if attempt != nil && attempt.Route != nil {
      return attempt.Route
    }
  }
  return nil
}

func shortPubKey(value string) string {
  trimmed := strings.TrimSpace(value)
  if len(trimmed) <= 12 {
    return trimmed
  }
  return trimmed[:12]
}

// parseChannelID accepts the human short channel format "block x tx x out"
// as well as a plain decimal channel id.
func parseChannelID(channelID string) (uint64, error) {
  trimmed := strings.TrimSpace(channelID)
  if trimmed == "" {
    return 0, errors.New("channel id required")
  }

  parts := strings.Split(trimmed, "x")
  if len(parts) == 3 {
    block, err1 := strconv.ParseUint(parts[0], 10, 24)
    tx, err2 := strconv.ParseUint(parts[1], 10, 24)
    out, err3 := strconv.ParseUint(parts[2], 10, 16)
    if err1 != nil || err2 != nil || err3 != nil {
      return 0, fmt.Errorf("invalid short channel id %q", channelID)
    }
    return block<<40 | tx<<16 | out, nil
  }

  id, err := strconv.ParseUint(trimmed, 10, 64)
  if err != nil {
    return 0, fmt.Errorf("invalid channel id %q", channelID)
  }
  return id, nil
}

// formatChannelID renders a numeric channel id in the short "BxTxO" form.
func formatChannelID(id uint64) string {
  if id == 0 {
    return ""
  }
  return fmt.Sprintf("%dx%dx%d", id>>40, (id>>16)&0xFFFFFF, id&0xFFFF)
}
