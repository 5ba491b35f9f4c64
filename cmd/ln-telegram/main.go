package main

import (
  "context"
  "flag"
  "log"
  "os"
  "os/signal"
  "sync"
  "syscall"
  "time"

  "github.com/silenzara/ln-telegram/internal/config"
  "github.com/silenzara/ln-telegram/internal/lndclient"
  "github.com/silenzara/ln-telegram/internal/notify"
  "github.com/silenzara/ln-telegram/internal/server"
  "github.com/silenzara/ln-telegram/internal/store"
  "github.com/silenzara/ln-telegram/internal/telegram"

  "github.com/jackc/pgx/v5/pgxpool"
)

const resubscribeDelay = 5 * time.Second

func main() {
  configPath := flag.String("config", "/etc/ln-telegram/config.yaml", "path to config file")
  flag.Parse()

  logger := log.New(os.Stdout, "", log.LstdFlags)

  cfg, err := config.Load(*configPath)
  if err != nil {
    logger.Fatalf("config: %v", err)
  }

  ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
  defer stop()

  bot, err := telegram.New(cfg.Telegram.BotToken, logger)
  if err != nil {
    logger.Fatalf("telegram: %v", err)
  }

  var history *store.Store
  if cfg.Postgres.DSN != "" {
    pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
    if err != nil {
      logger.Fatalf("postgres: %v", err)
    }
    defer pool.Close()

    history = store.New(pool, logger)
    if err := history.EnsureSchema(ctx); err != nil {
      logger.Fatalf("postgres: schema: %v", err)
    }
    if err := history.EnsureCursorSchema(ctx); err != nil {
      logger.Fatalf("postgres: cursor schema: %v", err)
    }
  }

  clients := make([]*lndclient.Client, 0, len(cfg.Nodes))
  nodes := make([]notify.ControlledNode, 0, len(cfg.Nodes))
  for _, nodeCfg := range cfg.Nodes {
    client := lndclient.New(nodeCfg, logger)

    pubkey, err := client.PublicKey(ctx)
    if err != nil {
      logger.Fatalf("node %s: identity pubkey: %v", nodeCfg.Label, err)
    }
    logger.Printf("node %s: %s", nodeCfg.Label, pubkey)

    clients = append(clients, client)
    nodes = append(nodes, notify.ControlledNode{
      Label: nodeCfg.Label,
      PublicKey: pubkey,
      API: client,
    })
  }

  if cfg.Server.Port > 0 {
    srv := server.New(cfg, logger, history)
    go func() {
      if err := srv.Run(); err != nil {
        logger.Printf("server: %v", err)
      }
    }()
  }

  var wg sync.WaitGroup
  for i, client := range clients {
    wg.Add(1)
    go func(client *lndclient.Client, node notify.ControlledNode) {
      defer wg.Done()
      watchNode(ctx, logger, cfg, bot, history, client, node, nodes)
    }(client, nodes[i])
  }

  wg.Wait()
  logger.Printf("shutting down")
}

// watchNode keeps one node's settled invoice stream alive, feeding each
// settlement through the notification pipeline. The stream resumes from
// the stored settle index, so restarts replay nothing and miss nothing.
func watchNode(ctx context.Context, logger *log.Logger, cfg *config.Config, bot *telegram.Client, history *store.Store, client *lndclient.Client, node notify.ControlledNode, nodes []notify.ControlledNode) {
  for {
    cursor := uint64(0)
    if history != nil {
      stored, err := history.LastSettleIndex(ctx, node.Label)
      if err != nil {
        logger.Printf("notify: %s: load settle index: %v", node.Label, err)
      } else {
        cursor = stored
      }
    }

    err := client.SubscribeSettledInvoices(ctx, cursor, func(invoice *notify.SettledInvoice, settleIndex uint64) {
      handleSettled(ctx, logger, cfg, bot, history, client, node, nodes, invoice, settleIndex)
    })
    if ctx.Err() != nil {
      return
    }
    logger.Printf("notify: %s: invoice stream ended: %v", node.Label, err)

    select {
    case <-ctx.Done():
      return
    case <-time.After(resubscribeDelay):
    }
  }
}

func handleSettled(ctx context.Context, logger *log.Logger, cfg *config.Config, bot *telegram.Client, history *store.Store, client *lndclient.Client, node notify.ControlledNode, nodes []notify.ControlledNode, invoice *notify.SettledInvoice, settleIndex uint64) {
  pipeline := notify.NewPipeline()
  if history != nil {
    pipeline.OnClassified = func(invoice *notify.SettledInvoice, category notify.Category) {
      recordSettlement(ctx, logger, history, node.Label, invoice, category)
    }
  }

  err := pipeline.PostSettledInvoice(ctx, notify.Params{
    From: node.Label,
    ID: cfg.Telegram.ChatID,
    Invoice: invoice,
    Key: node.PublicKey,
    NodeHandle: client,
    Nodes: nodes,
    Send: func(ctx context.Context, id string, text string, mode string) error {
      return bot.SendMessage(ctx, id, text, mode)
    },
    QuizSender: func(ctx context.Context, quiz notify.QuizMessage) error {
      return bot.SendQuiz(ctx, quiz.ID, quiz.Question, quiz.Answers, quiz.CorrectIndex)
    },
  })
  if err != nil {
    logger.Printf("notify: %s: invoice %s: %v", node.Label, invoice.ID, err)
    return
  }

  if history != nil {
    if err := history.SetSettleIndex(ctx, node.Label, settleIndex); err != nil {
      logger.Printf("notify: %s: store settle index: %v", node.Label, err)
    }
  }
}

func recordSettlement(ctx context.Context, logger *log.Logger, history *store.Store, nodeLabel string, invoice *notify.SettledInvoice, category notify.Category) {
  occurredAt := invoice.ConfirmedAt
  if occurredAt.IsZero() {
    occurredAt = time.Now().UTC()
  }

  err := history.Record(ctx, "invoice:"+invoice.ID, store.Settlement{
    OccurredAt: occurredAt,
    Category: category.String(),
    NodeLabel: nodeLabel,
    AmountSat: invoice.Received,
    PaymentHash: invoice.ID,
    Description: invoice.Description,
  })
  if err != nil {
    logger.Printf("store: record settlement %s: %v", invoice.ID, err)
  }
}
