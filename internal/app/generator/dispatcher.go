package generator

import (
	"context"
	"errors"

	"github.com/piyuindia4/ai-slides/internal/adapters/llm"
	"github.com/piyuindia4/ai-slides/internal/domain"
	"github.com/piyuindia4/ai-slides/internal/observability"
)

// Outcome is the tagged result of one dispatcher call. Deck is never empty:
// when Failure is set the deck came from the local fallback synthesizer.
type Outcome struct {
	Deck    domain.Deck
	Message string
	Failure *Failure
	// UsedFallback: the remote call failed and the deck was synthesized
	// locally from the topic string.
	UsedFallback bool
	// Repaired: the remote call succeeded but its output was unparseable,
	// so the normalizer substituted synthetic content.
	Repaired bool
}

// Success reports whether the remote generation completed.
func (o Outcome) Success() bool {
	return o.Failure == nil
}

// Dispatcher funnels generate and revise requests through the backoff
// caller and the normalizer, and guarantees forward progress: every call
// yields a deck, remote service or not.
type Dispatcher struct {
	model  domain.ModelClient
	caller *Caller
}

func NewDispatcher(model domain.ModelClient) *Dispatcher {
	return &Dispatcher{
		model:  model,
		caller: NewCaller(),
	}
}

// Generate builds a deck for a fresh topic, carrying at most the three most
// recent prior exchanges as context.
func (d *Dispatcher) Generate(ctx context.Context, topic string, history []domain.Message) Outcome {
	prompt := llm.BuildGeneratePrompt(topic, history)
	return d.dispatch(ctx, prompt, topic)
}

// Revise sends the full current deck verbatim with an edit instruction and
// expects the complete updated deck back.
func (d *Dispatcher) Revise(ctx context.Context, instruction string, deck domain.Deck) Outcome {
	prompt := llm.BuildRevisePrompt(instruction, deck)
	return d.dispatch(ctx, prompt, instruction)
}

func (d *Dispatcher) dispatch(ctx context.Context, prompt, topic string) Outcome {
	log := observability.LoggerFromContext(ctx)

	raw, err := d.caller.Call(ctx, func(ctx context.Context) (string, error) {
		return d.model.GenerateText(ctx, prompt)
	})
	if err != nil {
		var f *Failure
		if !errors.As(err, &f) {
			f = Classify(err)
		}
		log.Warn("generation failed, synthesizing deck locally",
			"class", f.Class,
			"reason", f.Reason)
		return Outcome{
			Deck:         SynthesizeDeck(topic),
			Message:      FallbackMessage(topic),
			Failure:      f,
			UsedFallback: true,
		}
	}

	res := Normalize(raw, topic)
	if res.Fallback {
		log.Warn("could not parse model response, using raw text slide")
	}

	message := res.Message
	if message == "" {
		message = FallbackMessage(topic)
	}

	log.Info("generated deck", "slides", len(res.Deck), "repaired", res.Fallback)
	return Outcome{
		Deck:     res.Deck,
		Message:  message,
		Repaired: res.Fallback,
	}
}
