package notify

import (
  "fmt"
  "math/rand"
)

const (
  minQuizAnswers = 2
  maxQuizAnswers = 10
)

// RandomizedQuiz is an answer list ready for dispatch: the correct answer
// sits at CorrectIndex, everything else keeps its composed position.
type RandomizedQuiz struct {
  Answers []string
  CorrectIndex int
}

var quizIndex = rand.Intn

// RandomizeQuiz takes an answer list whose first element is the correct
// one and moves it to a uniformly chosen slot with a single swap. Only
// two positions change; the rest of the answers stay where the composer
// put them.
func RandomizeQuiz(answers []string) (*RandomizedQuiz, error) {
  if len(answers) < minQuizAnswers || len(answers) > maxQuizAnswers {
    return nil, fmt.Errorf("expected between %d and %d quiz answers, got %d", minQuizAnswers, maxQuizAnswers, len(answers))
  }

  shuffled := make([]string, len(answers))
  copy(shuffled, answers)

  correct := quizIndex(len(shuffled))
  shuffled[0], shuffled[correct] = shuffled[correct], shuffled[0]

  return &RandomizedQuiz{Answers: shuffled, CorrectIndex: correct}, nil
}
