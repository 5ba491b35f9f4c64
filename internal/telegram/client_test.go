package telegram

import (
  "context"
  "log"
  "os"
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *Client {
  t.Helper()
  client, err := New("123:abc", log.New(os.Stdout, "", 0))
  require.NoError(t, err)
  return client
}

func TestNewRequiresToken(t *testing.T) {
  _, err := New("  ", nil)
  assert.Error(t, err)
}

func TestSendMessageValidation(t *testing.T) {
  client := testClient(t)

  err := client.SendMessage(context.Background(), "", "hello", "")
  assert.Error(t, err)

  err = client.SendMessage(context.Background(), "chat", "", "")
  assert.Error(t, err)
}

func TestSendQuizValidation(t *testing.T) {
  client := testClient(t)

  err := client.SendQuiz(context.Background(), "", "q", []string{"a", "b"}, 0)
  assert.Error(t, err)

  err = client.SendQuiz(context.Background(), "chat", "", []string{"a", "b"}, 0)
  assert.Error(t, err)

  err = client.SendQuiz(context.Background(), "chat", "q", []string{"a", "b"}, 2)
  assert.Error(t, err)

  err = client.SendQuiz(context.Background(), "chat", "q", []string{"a", "b"}, -1)
  assert.Error(t, err)
}
