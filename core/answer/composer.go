package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/VilyWonca/KAF-BACK/core/llm"
	"github.com/VilyWonca/KAF-BACK/model"
)

// NoGroundingMarker is embedded in the prompt when retrieval returned no
// passages, instructing the model to answer from general knowledge and
// say so.
const NoGroundingMarker = "No book excerpts were found for this question."

// Composer turns a user question and retrieved passages into a grounded
// prompt and streams the model's answer as typed events.
type Composer struct {
	llm     *llm.Client
	timeout time.Duration
	log     *slog.Logger
}

// NewComposer creates a new answer composer. The timeout is the ceiling
// for one complete answer stream.
func NewComposer(client *llm.Client, timeout time.Duration, logger *slog.Logger) *Composer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Composer{
		llm:     client,
		timeout: timeout,
		log:     logger,
	}
}

// BuildPrompt renders the retrieved passages as attributed excerpt blocks
// in rank order, followed by the question and an instruction to answer
// only from the excerpts and cite them. Without passages it builds an
// explicit no-grounding prompt instead.
func BuildPrompt(question string, passages []*model.RetrievedPassage) string {
	if len(passages) == 0 {
		var b strings.Builder
		b.WriteString(NoGroundingMarker)
		b.WriteString("\nAnswer the following question from your general knowledge ")
		b.WriteString("and state clearly that no reliable source material was available.\n\n")
		b.WriteString("Question: ")
		b.WriteString(question)
		return b.String()
	}

	var b strings.Builder
	b.WriteString("Here are excerpts from books relevant to the question below.\n\n")

	for _, passage := range passages {
		fmt.Fprintf(&b, "Author: %s\nBook title: %q, page %d\nExcerpt from this page: %s\n\n",
			passage.Author, passage.Title, passage.PageNumber, passage.Text)
	}

	b.WriteString("Using only these excerpts, answer the question: ")
	b.WriteString(question)
	b.WriteString("\nQuote from the matching excerpts. ")
	b.WriteString("At the end of your answer state the author, the book title and the page of every excerpt you used.")
	return b.String()
}

// Answer streams a grounded answer to the emitter: one partial_answer
// event per fragment in arrival order, then a single final_answer event
// carrying the full text. On a generation failure or a stream that runs
// past the ceiling a single error event is emitted instead of the final
// answer. Only when the caller's ctx is cancelled does forwarding stop
// without an error event.
func (c *Composer) Answer(ctx context.Context, question string, passages []*model.RetrievedPassage, emitter Emitter) (string, error) {
	prompt := BuildPrompt(question, passages)

	streamCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fragments, errc := c.llm.StreamChat(streamCtx, prompt)

	var full strings.Builder
	for fragment := range fragments {
		full.WriteString(fragment)
		emitter.Emit(NewPartialAnswerEvent(fragment))
	}

	if err := <-errc; err != nil {
		if ctx.Err() != nil {
			c.log.Warn("Answer stream cancelled", slog.String("error", ctx.Err().Error()))
			return full.String(), ctx.Err()
		}
		if streamCtx.Err() == context.DeadlineExceeded {
			c.log.Error("Answer stream exceeded the time ceiling", slog.Duration("timeout", c.timeout))
			emitter.Emit(NewErrorEvent("answer generation timed out"))
			return full.String(), streamCtx.Err()
		}
		c.log.Error("Answer generation failed", slog.String("error", err.Error()))
		emitter.Emit(NewErrorEvent("answer generation failed"))
		return full.String(), err
	}

	text := full.String()
	emitter.Emit(NewFinalAnswerEvent(text))
	return text, nil
}
