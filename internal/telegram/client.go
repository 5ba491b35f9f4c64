package telegram

import (
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "log"
  "net/http"
  "strings"
  "time"
)

const apiBaseURL = "https://api.telegram.org"

// ParseModeMarkdownV2 requests escaped-markup rendering.
const ParseModeMarkdownV2 = "MarkdownV2"

type Client struct {
  token string
  httpClient *http.Client
  logger *log.Logger
}

func New(token string, logger *log.Logger) (*Client, error) {
  if strings.TrimSpace(token) == "" {
    return nil, errors.New("telegram bot token required")
  }
  return &Client{
    token: token,
    httpClient: &http.Client{Timeout: 30 * time.Second},
    logger: logger,
  }, nil
}

type sendMessageRequest struct {
  ChatID string `json:"chat_id"`
  Text string `json:"text"`
  ParseMode string `json:"parse_mode,omitempty"`
}

type sendPollRequest struct {
  ChatID string `json:"chat_id"`
  Question string `json:"question"`
  Options []string `json:"options"`
  Type string `json:"type"`
  CorrectOptionID int `json:"correct_option_id"`
  IsAnonymous bool `json:"is_anonymous"`
}

// SendMessage posts a text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID string, text string, parseMode string) error {
  if strings.TrimSpace(chatID) == "" {
    return errors.New("chat id required")
  }
  if text == "" {
    return errors.New("message text required")
  }

  return c.post(ctx, "sendMessage", sendMessageRequest{
    ChatID: chatID,
    Text: text,
    ParseMode: parseMode,
  })
}

// SendQuiz posts a quiz-mode poll to a chat.
func (c *Client) SendQuiz(ctx context.Context, chatID string, question string, answers []string, correctIndex int) error {
  if strings.TrimSpace(chatID) == "" {
    return errors.New("chat id required")
  }
  if strings.TrimSpace(question) == "" {
    return errors.New("quiz question required")
  }
  if correctIndex < 0 || correctIndex >= len(answers) {
    return fmt.Errorf("correct index %d out of range for %d answers", correctIndex, len(answers))
  }

  return c.post(ctx, "sendPoll", sendPollRequest{
    ChatID: chatID,
    Question: question,
    Options: answers,
    Type: "quiz",
    CorrectOptionID: correctIndex,
    IsAnonymous: true,
  })
}

func (c *Client) post(ctx context.Context, method string, payload any) error {
  body, err := json.Marshal(payload)
  if err != nil {
    return err
  }

  endpoint := fmt.Sprintf("%s/bot%s/%s", apiBaseURL, c.token, method)
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
  if err != nil {
    return err
  }
  req.Header.Set("Content-Type", "application/json")

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return err
  }
  defer resp.Body.Close()

  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    raw, _ := io.ReadAll(resp.Body)
    return fmt.Errorf("telegram api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
  }
  return nil
}
