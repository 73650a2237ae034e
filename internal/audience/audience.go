// Package audience holds the simulated audience data model.
package audience

import (
	"errors"
	"fmt"
)

type Stance string

const (
	Supportive Stance = "supportive"
	Skeptical  Stance = "skeptical"
	Curious    Stance = "curious"
)

type Domain string

const (
	Tech    Domain = "tech"
	Design  Domain = "design"
	Finance Domain = "finance"
)

type Persona struct {
	Stance      Stance `json:"stance"`
	Domain      Domain `json:"domain"`
	Description string `json:"description,omitempty"`
}

// Bot is a simulated audience member. The backend is authoritative; clients
// only mirror what they are told.
type Bot struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Avatar  string  `json:"avatar"`
	Persona Persona `json:"persona"`
}

// Reaction is the ephemeral feedback a bot shows after a transcript chunk.
type Reaction struct {
	EmojiUnicode string  `json:"emoji_unicode,omitempty"`
	MicroPhrase  string  `json:"micro_phrase,omitempty"`
	ScoreDelta   float64 `json:"score_delta,omitempty"`
}

var ErrMissingID = errors.New("bot id is required")

func (s Stance) Valid() bool {
	switch s {
	case Supportive, Skeptical, Curious:
		return true
	}
	return false
}

func (d Domain) Valid() bool {
	switch d {
	case Tech, Design, Finance:
		return true
	}
	return false
}

// Validate checks the fields a client needs to render a bot. Unknown stances
// and domains are rejected so typos surface early.
func (b Bot) Validate() error {
	if b.ID == "" {
		return ErrMissingID
	}
	if b.Persona.Stance != "" && !b.Persona.Stance.Valid() {
		return fmt.Errorf("bot %s: invalid stance %q", b.ID, b.Persona.Stance)
	}
	if b.Persona.Domain != "" && !b.Persona.Domain.Valid() {
		return fmt.Errorf("bot %s: invalid domain %q", b.ID, b.Persona.Domain)
	}
	return nil
}

// Emotion derives a facial expression from a reaction's score delta and the
// bot's stance.
func (r Reaction) Emotion(stance Stance) Emotion {
	switch {
	case r.ScoreDelta >= 2:
		return EmotionExcited
	case r.ScoreDelta >= 1:
		return EmotionHappy
	case r.ScoreDelta <= -2:
		return EmotionAngry
	case r.ScoreDelta <= -1:
		if stance == Skeptical {
			return EmotionSkeptical
		}
		return EmotionConfused
	}
	switch stance {
	case Skeptical:
		return EmotionSkeptical
	case Curious:
		return EmotionAttentive
	default:
		return EmotionCalm
	}
}
