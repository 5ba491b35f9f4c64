package config

import (
  "os"
  "path/filepath"
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
  t.Helper()
  path := filepath.Join(t.TempDir(), "config.yaml")
  require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
  return path
}

func TestLoad(t *testing.T) {
  path := writeConfig(t, `
telegram:
  bot_token: "123:abc"
  chat_id: "-100200300"
nodes:
  - label: alpha
    grpc_host: localhost:10009
    tls_cert_path: /data/alpha/tls.cert
    macaroon_path: /data/alpha/readonly.macaroon
  - grpc_host: localhost:10010
    tls_cert_path: /data/beta/tls.cert
    macaroon_path: /data/beta/readonly.macaroon
postgres:
  dsn: postgres://ln:ln@localhost/ln
server:
  port: 8443
`)

  cfg, err := Load(path)
  require.NoError(t, err)

  assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
  assert.Equal(t, "-100200300", cfg.Telegram.ChatID)
  assert.Equal(t, "127.0.0.1", cfg.Server.Host)
  assert.Equal(t, 8443, cfg.Server.Port)

  require.Len(t, cfg.Nodes, 2)
  assert.Equal(t, "alpha", cfg.Nodes[0].Label)
  // Unlabeled nodes get a positional name.
  assert.Equal(t, "node-1", cfg.Nodes[1].Label)
}

func TestLoadRejectsIncompleteConfig(t *testing.T) {
  tests := []struct {
    name string
    contents string
  }{
    {"missing bot token", `
telegram:
  chat_id: "1"
nodes:
  - grpc_host: h
    tls_cert_path: c
    macaroon_path: m
`},
    {"missing chat id", `
telegram:
  bot_token: t
nodes:
  - grpc_host: h
    tls_cert_path: c
    macaroon_path: m
`},
    {"no nodes", `
telegram:
  bot_token: t
  chat_id: "1"
`},
    {"node missing macaroon", `
telegram:
  bot_token: t
  chat_id: "1"
nodes:
  - grpc_host: h
    tls_cert_path: c
`},
  }

  for _, tt := range tests {
    t.Run(tt.name, func(t *testing.T) {
      _, err := Load(writeConfig(t, tt.contents))
      assert.Error(t, err)
    })
  }
}

func TestLoadMissingFile(t *testing.T) {
  _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
  assert.Error(t, err)
}
