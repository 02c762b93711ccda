package streamproc

import (
	"context"

	"github.com/coreflux/agentturn/pkg/models"
)

// Processor consumes one stream and yields Process events (spec §4.4).
type Processor struct{}

// New constructs a Processor. There are no tunables: chunk handling,
// finalization, and fault isolation are fixed by spec §4.4.
func New() *Processor {
	return &Processor{}
}

// Process implements the Contract of spec §4.4:
// process(stream, session) → sequence of events. priorToolResults is the
// previous cycle's tool messages, consulted for optional result
// synthesis; pass nil when there were none.
func (p *Processor) Process(ctx context.Context, stream <-chan StreamItem, session *models.SessionState, priorToolResults []*models.Message) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)

		asm := newAssembler()
		var textAcc string
		var usage UsageMetadata
		var warnings []string

		emit := func(ev Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					warnings = append(warnings, "recovered from panic while parsing stream part")
				}
			}()

			for item := range stream {
				if item.Err != nil {
					emit(Event{Type: EventDebugInfo, Debug: DebugInfo{
						Status:    "fatal",
						Error:     item.Err.Error(),
						ErrorType: "stream_error",
						Usage:     usage,
						Warnings:  warnings,
					}})
					emit(Event{Type: EventTextDelta, Text: "Sorry, something went wrong while generating a response."})
					return
				}
				if item.Chunk == nil {
					continue
				}

				for _, part := range item.Chunk.Parts {
					func() {
						defer func() {
							if r := recover(); r != nil {
								warnings = append(warnings, "recovered from panic while parsing a chunk part")
							}
						}()

						if part.Text != "" {
							textAcc += part.Text
							session.StreamingPlaceholderContent += part.Text
							emit(Event{Type: EventTextDelta, Text: part.Text})
						}
						if part.FunctionCall != nil {
							asm.Merge(part.FunctionCall)
						}
						if part.UsageMetadata != nil {
							usage = *part.UsageMetadata
						}
					}()

					select {
					case <-ctx.Done():
						return
					default:
					}
				}
			}
		}()

		if hasSynthesisIntent(textAcc) {
			if block := buildSynthesisBlock(priorToolResults); block != "" {
				emit(Event{Type: EventTextDelta, Text: block})
			}
		}

		finalized := asm.Finalize()
		if len(finalized) > 0 {
			calls := make([]models.ToolCallRequest, len(finalized))
			for i, f := range finalized {
				calls[i] = models.ToolCallRequest{ID: f.ID, Name: f.Name, Arguments: f.Arguments}
			}
			emit(Event{Type: EventToolCalls, ToolCalls: calls})
		}

		status := "ok"
		select {
		case <-ctx.Done():
			status = "terminated_normally"
		default:
		}

		emit(Event{Type: EventDebugInfo, Debug: DebugInfo{Status: status, Usage: usage, Warnings: warnings}})
	}()

	return out
}
