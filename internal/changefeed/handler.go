// Package changefeed turns graph mutation records from the write path's Kafka
// topic into in-process change signals, so a multi-node deployment invalidates
// cached results on every node, not just the one that saw the write.
package changefeed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nintynick/transitive-trust-sub001/internal/platform/kafka/consumer"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/ports"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	dErrors "github.com/nintynick/transitive-trust-sub001/pkg/domain-errors"
)

// changePayload matches the JSON structure produced by the write path.
type changePayload struct {
	Kind   string `json:"kind"`
	Domain string `json:"domain"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	At     string `json:"at"`
}

// Handler decodes change records and fans them out to subscribers. It
// implements both consumer.Handler and ports.ChangeNotifier, so the engine's
// AttachInvalidation plugs in directly.
type Handler struct {
	logger *slog.Logger

	mu        sync.Mutex
	listeners map[int]func(ports.GraphChange)
	nextID    int
}

// NewHandler creates a handler with no subscribers.
func NewHandler(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		listeners: make(map[int]func(ports.GraphChange)),
	}
}

// Subscribe registers a change listener; the returned function detaches it.
func (h *Handler) Subscribe(fn func(ports.GraphChange)) func() {
	h.mu.Lock()
	idx := h.nextID
	h.nextID++
	h.listeners[idx] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, idx)
		h.mu.Unlock()
	}
}

// Handle decodes one record and notifies subscribers. Malformed records are
// logged and committed; redelivery cannot fix a bad payload.
func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	change, err := decode(msg.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "skipping malformed graph change record",
			"topic", msg.Topic,
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	h.mu.Lock()
	fns := make([]func(ports.GraphChange), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
	return nil
}

func decode(value []byte) (ports.GraphChange, error) {
	var payload changePayload
	if err := json.Unmarshal(value, &payload); err != nil {
		return ports.GraphChange{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unmarshal graph change")
	}

	domainID, err := id.ParseDomainID(payload.Domain)
	if err != nil {
		return ports.GraphChange{}, err
	}

	change := ports.GraphChange{
		Kind:   ports.ChangeKind(payload.Kind),
		Domain: domainID,
	}
	if payload.From != "" {
		from, err := id.ParsePrincipalID(payload.From)
		if err != nil {
			return ports.GraphChange{}, err
		}
		change.From = from
	}
	if payload.To != "" {
		to, err := id.ParsePrincipalID(payload.To)
		if err != nil {
			return ports.GraphChange{}, err
		}
		change.To = to
	}
	if payload.At != "" {
		at, err := time.Parse(time.RFC3339Nano, payload.At)
		if err != nil {
			return ports.GraphChange{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "parse change timestamp")
		}
		change.At = at
	}
	return change, nil
}
