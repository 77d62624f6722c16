package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/imsg/internal/state"
	"go.uber.org/zap"
)

// Journal records every send attempt in the state DB and logs its outcome.
// Journal write failures are logged and never fail the send itself.
type Journal struct {
	next   Sender
	db     *state.DB
	logger *zap.Logger
}

// NewJournal wraps next so attempts are recorded in db.
func NewJournal(next Sender, db *state.DB, logger *zap.Logger) *Journal {
	return &Journal{
		next:   next,
		db:     db,
		logger: logger,
	}
}

// Send implements Sender.
func (j *Journal) Send(ctx context.Context, recipient, text string) error {
	clientID := uuid.NewString()
	log := j.logger.With(zap.String("client_id", clientID), zap.String("recipient", recipient))

	if err := j.db.QueueDispatch(clientID, recipient, text); err != nil {
		log.Error("failed to record dispatch", zap.Error(err))
	} else if err := j.db.MarkDispatchSending(clientID); err != nil {
		log.Error("failed to mark sending", zap.Error(err))
	}

	start := time.Now()
	err := j.next.Send(ctx, recipient, text)
	elapsed := time.Since(start)

	if err != nil {
		log.Error("failed to send message", zap.Error(err), zap.Duration("elapsed", elapsed))
		if markErr := j.db.MarkDispatchFailed(clientID, err.Error()); markErr != nil {
			log.Error("failed to mark failed", zap.Error(markErr))
		}
		return err
	}

	if markErr := j.db.MarkDispatchSent(clientID); markErr != nil {
		log.Error("failed to mark sent", zap.Error(markErr))
	}
	log.Info("message sent", zap.Duration("elapsed", elapsed), zap.Int("length", len(text)))
	return nil
}
