package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/domain"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fakePublisher struct {
	sent []interfaces.NotificationMessage
	err  error
}

func (p *fakePublisher) PublishNotification(ctx context.Context, msg interfaces.NotificationMessage) error {
	p.sent = append(p.sent, msg)
	return p.err
}

type fakeRecorder struct {
	calls int
	err   error
}

func (r *fakeRecorder) RecordTransition(ctx context.Context) error {
	r.calls++
	return r.err
}

func TestTransitionSucceeded(t *testing.T) {
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	n := NewNotifier(pub, rec, logger.Nop(), clockwork.NewFakeClockAt(now), "grill")

	order := domain.Order{ID: "o-1", Stage: domain.StageInProgress, Table: &domain.TableRef{Number: 9}}
	n.TransitionSucceeded(context.Background(), order, domain.StagePending)

	assert.Equal(t, 1, rec.calls)
	require.Len(t, pub.sent, 1)
	msg := pub.sent[0]
	assert.Equal(t, interfaces.NotificationTransitionSucceeded, msg.Kind)
	assert.Equal(t, domain.StagePending, msg.OldStage)
	assert.Equal(t, domain.StageInProgress, msg.NewStage)
	assert.Equal(t, "grill", msg.ChangedBy)
	assert.Equal(t, 9, *msg.TableNumber)
	assert.Equal(t, now, msg.Timestamp)
}

func TestTransitionFailed(t *testing.T) {
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	n := NewNotifier(pub, rec, logger.Nop(), clockwork.NewFakeClockAt(now), "grill")

	n.TransitionFailed(context.Background(), "o-1", domain.StageDone, errors.New("order service returned 503"))

	assert.Zero(t, rec.calls)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, interfaces.NotificationTransitionFailed, pub.sent[0].Kind)
	assert.Equal(t, "order service returned 503", pub.sent[0].Error)
	assert.Nil(t, pub.sent[0].TableNumber)
}

func TestFailuresAreSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	rec := &fakeRecorder{err: errors.New("db down")}
	n := NewNotifier(pub, rec, logger.Nop(), nil, "grill")

	assert.NotPanics(t, func() {
		n.TransitionSucceeded(context.Background(), domain.Order{ID: "o-1", Stage: domain.StageDone}, domain.StageInProgress)
	})
	assert.Len(t, pub.sent, 1)

	assert.NotPanics(t, func() {
		NewNotifier(nil, nil, logger.Nop(), nil, "grill").TransitionFailed(context.Background(), "o-1", domain.StageDone, nil)
	})
}
