package room

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/meshchat/roomlog/event"
	"github.com/meshchat/roomlog/l10n"
)

// PayloadKind classifies a matched event's payload shape for redaction.
// Derived once per event; the numeric order mirrors the match priority.
type PayloadKind int

// Payload kinds, in match-priority order. An event carrying both a file and
// a discussion marker is a file message: first match wins, and the ordering
// is a contract.
const (
	KindFileMessage PayloadKind = iota
	KindDiscussionMessage
	KindPlainMessage
)

// String returns the kind's label, used in logs and metrics.
func (k PayloadKind) String() string {
	switch k {
	case KindFileMessage:
		return "file"
	case KindDiscussionMessage:
		return "discussion"
	default:
		return "message"
	}
}

// classifyPayload derives the payload kind of one matched event.
func classifyPayload(evt *event.Event) PayloadKind {
	if evt.FileID() != "" {
		return KindFileMessage
	}

	if evt.DiscussionRoomID() != "" {
		return KindDiscussionMessage
	}

	return KindPlainMessage
}

// PruneResult reports a completed prune run: how many events were redacted
// and the side-effect identifiers collected for external cleanup. File and
// discussion removal is not performed here; the file-storage garbage
// collector consumes FileIDs and the discussion-index cleanup consumes
// DiscussionIDs.
type PruneResult struct {
	Count         int
	FileIDs       []string
	DiscussionIDs []string
}

// prunePlaceholderColor is the fixed color of the redaction placeholder
// attachment left behind when a file message is pruned.
const prunePlaceholderColor = "#FD745E"

// Prune bulk-redacts the room's message events matching the caller filter.
//
// The run:
//  1. Appends an audit event whose payload is the serialized caller filter,
//     recording the redaction itself in the log.
//  2. Scans live events that carry a message-text field and satisfy the
//     filter. Already-redacted events never re-match: the soft-delete
//     predicate is merged conjunctively with the caller filter, so running
//     the same prune twice is a no-op the second time.
//  3. Classifies each hit into exactly one payload kind and applies the
//     kind's redaction, collecting file and discussion ids.
//
// The scan-then-rewrite is not transactional across the matched set: each
// rewrite is an independent atomic document update, and a failed rewrite is
// logged and skipped without rolling back completed ones. The result counts
// only successful redactions.
func (s *Service) Prune(ctx context.Context, roomID string, filter event.Filter) (*PruneResult, error) {
	q := event.Context(roomID)
	if q.IsZero() {
		return nil, event.ErrRoomIDRequired
	}

	var span trace.Span
	if s.config.Tracer != nil {
		ctx, span = s.config.Tracer.StartPruneSpan(ctx, roomID)
	}

	result, matched, failed, err := s.prune(ctx, q, filter)

	if span != nil {
		redacted := 0
		if result != nil {
			redacted = result.Count
		}

		s.config.Tracer.EndPruneSpan(span, matched, redacted, failed)
	}

	return result, err
}

func (s *Service) prune(ctx context.Context, q event.ContextQuery, filter event.Filter) (*PruneResult, int, int, error) {
	started := time.Now()

	serialized, err := json.Marshal(filter)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("serialize prune filter: %w", err)
	}

	audit := event.New(s.EnsureSource(""), q, event.Stub{
		Type: event.TypePruneMessages,
		Data: event.Data{event.KeyQuery: string(serialized)},
	})

	if _, appendErr := s.Append(ctx, audit); appendErr != nil {
		return nil, 0, 0, fmt.Errorf("append prune audit event: %w", appendErr)
	}

	match := event.And(filter, event.Filter{
		"d." + event.KeyMessage: event.Filter{"$exists": true},
		"_deletedAt":            event.Filter{"$exists": false},
	})

	matches, err := s.store.FindEvents(ctx, q, match)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("scan prune candidates: %w", err)
	}

	result := &PruneResult{
		FileIDs:       []string{},
		DiscussionIDs: []string{},
	}

	kindCounts := map[string]int{}
	failed := 0

	for _, evt := range matches {
		kind := classifyPayload(evt)

		fileID := evt.FileID()
		discussionID := evt.DiscussionRoomID()

		if redactErr := s.store.RedactEvent(ctx, evt.ID, s.redactionFor(kind)); redactErr != nil {
			failed++
			s.logger.Error("prune: redact event failed",
				"room_id", q.RoomID,
				"event_id", evt.ID.String(),
				"kind", kind.String(),
				"error", redactErr,
			)

			continue
		}

		result.Count++
		kindCounts[kind.String()]++

		switch kind {
		case KindFileMessage:
			result.FileIDs = append(result.FileIDs, fileID)
		case KindDiscussionMessage:
			result.DiscussionIDs = append(result.DiscussionIDs, discussionID)
		}
	}

	if s.config.Metrics != nil {
		s.config.Metrics.RecordPrune(kindCounts, time.Since(started).Seconds())
	}

	if failed > 0 {
		s.logger.Warn("prune: completed with failures",
			"room_id", q.RoomID,
			"matched", len(matches),
			"redacted", result.Count,
			"failed", failed,
		)
	}

	return result, len(matches), failed, nil
}

// redactionFor builds the kind-specific rewrite.
//
// File messages lose the file field and gain a single placeholder
// attachment. Discussion markers keep their payload so the discussion link
// stays resolvable by the collaborator that owns discussion cleanup. Plain
// messages get their text cleared. Every kind is stamped deleted.
func (s *Service) redactionFor(kind PayloadKind) event.Redaction {
	switch kind {
	case KindFileMessage:
		caption := s.config.Localizer.Lookup(l10n.KeyFileRemovedByPrune)

		return event.Redaction{
			Set: event.Data{
				event.KeyAttachments: []event.Data{{
					"color":      prunePlaceholderColor,
					"prunedText": "_" + caption + "_",
				}},
			},
			Unset:        []string{event.KeyFile},
			StampDeleted: true,
		}
	case KindDiscussionMessage:
		return event.Redaction{StampDeleted: true}
	default:
		return event.Redaction{
			Set:          event.Data{event.KeyMessage: ""},
			StampDeleted: true,
		}
	}
}
