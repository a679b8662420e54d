package chat

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultFetchConcurrency = 8

// Aggregator builds the conversation list of one operator.
type Aggregator struct {
	store       Store
	authz       Authorizer
	logger      *zap.Logger
	concurrency int
}

// NewAggregator creates an aggregator reading from s and gating on authz.
func NewAggregator(s Store, authz Authorizer, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		store:       s,
		authz:       authz,
		logger:      logger,
		concurrency: defaultFetchConcurrency,
	}
}

// Summaries returns the operator's conversations that have at least one
// message, newest activity first. Any store error fails the whole call.
func (a *Aggregator) Summaries(ctx context.Context, operator string) ([]Summary, error) {
	if !a.authz.IsOperator(operator) {
		return nil, fmt.Errorf("%w: %q", ErrNotOperator, operator)
	}

	ids, err := a.store.ListConversationIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	var owned []string
	for _, id := range ids {
		if AddressedTo(id, operator) {
			owned = append(owned, id)
		}
	}

	results := make([]*Summary, len(owned))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, id := range owned {
		g.Go(func() error {
			s, err := a.summarize(gctx, id)
			if err != nil {
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(results))
	for _, s := range results {
		if s != nil {
			summaries = append(summaries, *s)
		}
	}
	SortSummaries(summaries)

	a.logger.Debug("conversations aggregated",
		zap.String("operator", operator),
		zap.Int("scanned", len(ids)),
		zap.Int("owned", len(owned)),
		zap.Int("listed", len(summaries)))
	return summaries, nil
}

// summarize returns nil, nil for conversations without messages.
func (a *Aggregator) summarize(ctx context.Context, id string) (*Summary, error) {
	latest, err := a.store.LatestMessage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("latest message of %q: %w", id, err)
	}
	if latest == nil {
		return nil, nil
	}

	patient := PatientOf(id)
	appt, err := a.store.FirstAppointmentFor(ctx, patient)
	if err != nil {
		return nil, fmt.Errorf("appointment for %q: %w", patient, err)
	}

	at := time.UnixMilli(latest.Timestamp)
	if latest.Timestamp == 0 {
		at = time.Now()
	}
	return &Summary{
		ID:              id,
		PatientEmail:    patient,
		Patient:         ProfileFor(patient, appt),
		LastMessage:     Preview(latest),
		LastMessageTime: at,
	}, nil
}

// SortSummaries orders summaries by last message time descending, breaking
// ties by id so the order is stable across refreshes.
func SortSummaries(s []Summary) {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].LastMessageTime.Equal(s[j].LastMessageTime) {
			return s[i].LastMessageTime.After(s[j].LastMessageTime)
		}
		return s[i].ID < s[j].ID
	})
}
