package opentdb

import (
	"html"
	"math/rand"
	"slices"
	"sync"
	"time"

	"mini-quiz/internal/domain"
)

// Decode turns the service's HTML-entity-escaped text into display text.
// Plain text passes through unchanged.
func Decode(s string) string {
	return html.UnescapeString(s)
}

// Normalizer converts raw service items into quiz questions, placing the correct
// answer at a uniformly random slot among the incorrect ones.
type Normalizer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewNormalizer uses rnd for slot selection; nil seeds from the clock.
func NewNormalizer(rnd *rand.Rand) *Normalizer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Normalizer{rnd: rnd}
}

// Normalize returns one question per raw item, in order.
func (n *Normalizer) Normalize(raw []domain.RawQuestion) []domain.Question {
	questions := make([]domain.Question, 0, len(raw))
	for _, item := range raw {
		questions = append(questions, n.normalizeOne(item))
	}
	return questions
}

func (n *Normalizer) normalizeOne(item domain.RawQuestion) domain.Question {
	options := make([]string, 0, len(item.IncorrectAnswers)+1)
	for _, answer := range item.IncorrectAnswers {
		options = append(options, Decode(answer))
	}

	// slot is in [0, len(incorrect)] inclusive
	slot := n.intn(len(options) + 1)
	options = slices.Insert(options, slot, Decode(item.CorrectAnswer))

	return domain.Question{
		Text:         Decode(item.Question),
		Options:      options,
		CorrectIndex: slot,
	}
}

func (n *Normalizer) intn(bound int) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rnd.Intn(bound)
}
