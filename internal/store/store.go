package store

import (
  "context"
  "errors"
  "log"
  "strconv"
  "strings"
  "sync"
  "time"

  "github.com/jackc/pgx/v5"
  "github.com/jackc/pgx/v5/pgtype"
  "github.com/jackc/pgx/v5/pgxpool"
)

const (
  settlementRetentionDays = 365
  settlementCleanupInterval = 6 * time.Hour
)

// Settlement is one classified invoice settlement.
type Settlement struct {
  ID int64 `json:"id"`
  OccurredAt time.Time `json:"occurred_at"`
  Category string `json:"category"`
  NodeLabel string `json:"node_label"`
  AmountSat int64 `json:"amount_sat"`
  PaymentHash string `json:"payment_hash"`
  Description string `json:"description,omitempty"`
}

// Store keeps the settlement history in Postgres.
type Store struct {
  db *pgxpool.Pool
  logger *log.Logger

  mu sync.Mutex
  lastCleanup time.Time
}

func New(db *pgxpool.Pool, logger *log.Logger) *Store {
  return &Store{db: db, logger: logger}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
  if s.db == nil {
    return errors.New("db not configured")
  }

  _, err := s.db.Exec(ctx, `
create table if not exists settlements (
  id bigserial primary key,
  event_key text unique not null,
  occurred_at timestamptz not null,
  category text not null,
  node_label text not null,
  amount_sat bigint not null default 0,
  payment_hash text not null,
  description text,
  created_at timestamptz not null default now()
);

create index if not exists settlements_occurred_at_idx on settlements (occurred_at desc);
create index if not exists settlements_payment_hash_idx on settlements (payment_hash);
`)
  return err
}

// Record upserts a settlement by event key, so reconnect replays of the
// invoice stream do not duplicate history.
func (s *Store) Record(ctx context.Context, eventKey string, settlement Settlement) error {
  if strings.TrimSpace(eventKey) == "" {
    return errors.New("event key required")
  }

  _, err := s.db.Exec(ctx, `
insert into settlements (event_key, occurred_at, category, node_label, amount_sat, payment_hash, description)
values ($1,$2,$3,$4,$5,$6,$7)
on conflict (event_key) do update set
  occurred_at = excluded.occurred_at,
  category = excluded.category,
  node_label = excluded.node_label,
  amount_sat = excluded.amount_sat,
  payment_hash = excluded.payment_hash,
  description = excluded.description
`, eventKey, settlement.OccurredAt, settlement.Category, settlement.NodeLabel,
    settlement.AmountSat, settlement.PaymentHash, nullableString(settlement.Description),
  )
  if err != nil {
    return err
  }

  s.cleanupIfNeeded()
  return nil
}

func (s *Store) List(ctx context.Context, limit int) ([]Settlement, error) {
  if s.db == nil {
    return nil, errors.New("settlement history disabled")
  }
  if limit <= 0 {
    limit = 200
  }
  if limit > 1000 {
    limit = 1000
  }

  rows, err := s.db.Query(ctx, `
select id, occurred_at, category, node_label, amount_sat, payment_hash, description
from settlements
order by occurred_at desc, id desc
limit $1`, limit)
  if err != nil {
    return nil, err
  }
  defer rows.Close()

  var items []Settlement
  for rows.Next() {
    var item Settlement
    var description pgtype.Text
    if err := rows.Scan(
      &item.ID, &item.OccurredAt, &item.Category, &item.NodeLabel,
      &item.AmountSat, &item.PaymentHash, &description,
    ); err != nil {
      return nil, err
    }
    if description.Valid {
      item.Description = description.String
    }
    items = append(items, item)
  }
  return items, rows.Err()
}

// LastSettleIndex returns the stored invoice stream cursor for a node.
func (s *Store) LastSettleIndex(ctx context.Context, nodeLabel string) (uint64, error) {
  var value string
  err := s.db.QueryRow(ctx, `
select value from settlement_cursors where key=$1`, cursorKey(nodeLabel)).Scan(&value)
  if err == pgx.ErrNoRows {
    return 0, nil
  }
  if err != nil {
    return 0, err
  }
  parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
  if err != nil {
    return 0, nil
  }
  return parsed, nil
}

func (s *Store) SetSettleIndex(ctx context.Context, nodeLabel string, settleIndex uint64) error {
  _, err := s.db.Exec(ctx, `
insert into settlement_cursors (key, value, updated_at)
values ($1, $2, now())
on conflict (key) do update set value=excluded.value, updated_at=excluded.updated_at
`, cursorKey(nodeLabel), strconv.FormatUint(settleIndex, 10))
  return err
}

func (s *Store) EnsureCursorSchema(ctx context.Context) error {
  _, err := s.db.Exec(ctx, `
create table if not exists settlement_cursors (
  key text primary key,
  value text not null,
  updated_at timestamptz not null default now()
);
`)
  return err
}

func (s *Store) cleanupIfNeeded() {
  s.mu.Lock()
  next := s.lastCleanup.Add(settlementCleanupInterval)
  if time.Now().Before(next) {
    s.mu.Unlock()
    return
  }
  s.lastCleanup = time.Now()
  s.mu.Unlock()

  ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
  defer cancel()
  cutoff := time.Now().AddDate(0, 0, -settlementRetentionDays)
  if _, err := s.db.Exec(ctx, "delete from settlements where occurred_at < $1", cutoff); err != nil {
    s.logger.Printf("store: cleanup failed: %v", err)
  }
}

func cursorKey(nodeLabel string) string {
  return "invoice_settle_index:" + strings.TrimSpace(nodeLabel)
}

func nullableString(value string) any {
  if strings.TrimSpace(value) == "" {
    return nil
  }
  return value
}
