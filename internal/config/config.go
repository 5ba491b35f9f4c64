package config

import (
  "fmt"
  "os"
  "strings"

  "gopkg.in/yaml.v3"
)

type Config struct {
  Telegram TelegramConfig `yaml:"telegram"`
  Nodes []NodeConfig `yaml:"nodes"`
  Postgres PostgresConfig `yaml:"postgres"`
  Server ServerConfig `yaml:"server"`
}

type TelegramConfig struct {
  BotToken string `yaml:"bot_token"`
  ChatID string `yaml:"chat_id"`
}

// NodeConfig describes one controlled node. The first entry is the node
// whose invoices are watched first; every entry gets its own watcher.
// Pubkey may be left empty and is discovered from the node at startup.
type NodeConfig struct {
  Label string `yaml:"label"`
  GRPCHost string `yaml:"grpc_host"`
  TLSCertPath string `yaml:"tls_cert_path"`
  MacaroonPath string `yaml:"macaroon_path"`
  Pubkey string `yaml:"pubkey"`
}

type PostgresConfig struct {
  DSN string `yaml:"dsn"`
}

type ServerConfig struct {
  Host string `yaml:"host"`
  Port int `yaml:"port"`
  TLSCert string `yaml:"tls_cert"`
  TLSKey string `yaml:"tls_key"`
}

func Load(path string) (*Config, error) {
  b, err := os.ReadFile(path)
  if err != nil {
    return nil, err
  }

  var cfg Config
  if err := yaml.Unmarshal(b, &cfg); err != nil {
    return nil, err
  }

  if cfg.Server.Host == "" {
    cfg.Server.Host = "127.0.0.1"
  }

  if strings.TrimSpace(cfg.Telegram.BotToken) == "" {
    return nil, fmt.Errorf("telegram bot_token required")
  }
  if strings.TrimSpace(cfg.Telegram.ChatID) == "" {
    return nil, fmt.Errorf("telegram chat_id required")
  }
  if len(cfg.Nodes) == 0 {
    return nil, fmt.Errorf("at least one node required")
  }
  for i, node := range cfg.Nodes {
    if strings.TrimSpace(node.GRPCHost) == "" {
      return nil, fmt.Errorf("node %d: grpc_host required", i)
    }
    if strings.TrimSpace(node.TLSCertPath) == "" {
      return nil, fmt.Errorf("node %d: tls_cert_path required", i)
    }
    if strings.TrimSpace(node.MacaroonPath) == "" {
      return nil, fmt.Errorf("node %d: macaroon_path required", i)
    }
    if strings.TrimSpace(node.Label) == "" {
      cfg.Nodes[i].Label = fmt.Sprintf("node-%d", i)
    }
  }

  return &cfg, nil
}
