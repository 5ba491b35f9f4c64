package notify

import (
  "context"
  "strings"
)

// RenderModeMarkdownV2 is the fixed rendering mode for dispatched text.
const RenderModeMarkdownV2 = "MarkdownV2"

// SendFn delivers a text message to a recipient.
type SendFn func(ctx context.Context, id string, text string, mode string) error

// SendQuizFn delivers a quiz as a follow-up to a text message.
type SendQuizFn func(ctx context.Context, quiz QuizMessage) error

// QuizMessage is a randomized quiz ready for the messaging collaborator.
type QuizMessage struct {
  ID string
  Question string
  Answers []string
  CorrectIndex int
}

const markdownReserved = "_*[]()~`>#+-=|{}.!"

// escapeMarkdown backslash-prefixes every MarkdownV2 reserved character.
func escapeMarkdown(text string) string {
  var b strings.Builder
  b.Grow(len(text))
  for _, r := range text {
    if strings.ContainsRune(markdownReserved, r) {
      b.WriteByte('\\')
    }
    b.WriteRune(r)
  }
  return b.String()
}

// dispatch sends the composed text and then, strictly after it, the quiz.
// The node label suffix is only added when the operator runs more than one
// node, and only the suffix is escaped; the icon and message body pass
// through untouched. Quizzes outside the 2..10 answer range are silently
// suppressed.
func dispatch(ctx context.Context, params *Params, descriptor *MessageDescriptor) error {
  text := descriptor.Icon + " " + descriptor.Message
  if len(params.Nodes) > 1 {
    text += escapeMarkdown(" - " + params.From)
  }

  if err := params.Send(ctx, params.ID, text, RenderModeMarkdownV2); err != nil {
    return err
  }

  if descriptor.Title == "" {
    return nil
  }
  if len(descriptor.Quiz) < minQuizAnswers || len(descriptor.Quiz) > maxQuizAnswers {
    return nil
  }

  randomized, err := RandomizeQuiz(descriptor.Quiz)
  if err != nil {
    return err
  }

  return params.QuizSender(ctx, QuizMessage{
    ID: params.ID,
    Question: descriptor.Title,
    Answers: randomized.Answers,
    CorrectIndex: randomized.CorrectIndex,
  })
}
