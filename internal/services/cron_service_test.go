package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	calls atomic.Int32
	err   error
}

func (j *countingJob) CleanupSessions(context.Context) (int64, error) {
	j.calls.Add(1)
	return 3, j.err
}

func (j *countingJob) SyncSoldOut(context.Context) (int64, error) {
	j.calls.Add(1)
	return 1, j.err
}

func TestCronService_RunNow(t *testing.T) {
	sessions := &countingJob{}
	departures := &countingJob{err: errors.New("db down")}
	svc := NewCronService(sessions, departures, quietLogger())

	svc.RunNow()

	assert.Equal(t, int32(1), sessions.calls.Load())
	assert.Equal(t, int32(1), departures.calls.Load())
}

func TestCronService_StartStop(t *testing.T) {
	svc := NewCronService(&countingJob{}, &countingJob{}, quietLogger())

	require.NoError(t, svc.Start())
	assert.Len(t, svc.Entries(), 2)
	svc.Stop()
}
