package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-coach-go/pkg/tasks"
)

// stubProcessor 前 fail 次调用返回 err，之后成功。
type stubProcessor struct {
	err   error
	fail  int
	calls int
	onErr func()
}

func (p *stubProcessor) Process(ctx context.Context, task tasks.TranscriptArchiveTask) error {
	p.calls++
	if p.calls <= p.fail {
		if p.onErr != nil {
			p.onErr()
		}
		return p.err
	}
	return nil
}

type memCounter struct {
	counts map[string]int64
	err    error
}

func (c *memCounter) Incr(ctx context.Context, key string) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.counts[key]++
	return c.counts[key], nil
}

func (c *memCounter) Reset(ctx context.Context, key string) error {
	delete(c.counts, key)
	return nil
}

func taskBytes(t *testing.T) []byte {
	b, err := json.Marshal(tasks.TranscriptArchiveTask{SessionID: "s1", UserID: 7, Score: 80})
	require.NoError(t, err)
	return b
}

func noBackoff(t *testing.T) {
	prev := retryBackoff
	retryBackoff = 0
	t.Cleanup(func() { retryBackoff = prev })
}

func TestHandleMessageCommitsMalformed(t *testing.T) {
	p := &stubProcessor{}
	assert.True(t, handleMessage(context.Background(), []byte("{bad"), p, &memCounter{counts: map[string]int64{}}))
	assert.Equal(t, 0, p.calls)
}

func TestHandleMessageRetriesInProcessThenGivesUp(t *testing.T) {
	noBackoff(t)
	p := &stubProcessor{err: errors.New("minio down"), fail: 100}
	c := &memCounter{counts: map[string]int64{}}

	assert.True(t, handleMessage(context.Background(), taskBytes(t), p, c))
	assert.Equal(t, maxAttempts, p.calls)
	assert.Empty(t, c.counts)
}

func TestHandleMessageSucceedsOnRetry(t *testing.T) {
	noBackoff(t)
	p := &stubProcessor{err: errors.New("es timeout"), fail: 1}
	c := &memCounter{counts: map[string]int64{}}

	assert.True(t, handleMessage(context.Background(), taskBytes(t), p, c))
	assert.Equal(t, 2, p.calls)
	assert.Empty(t, c.counts)
}

func TestHandleMessageContinuesCountFromPreviousRun(t *testing.T) {
	noBackoff(t)
	c := &memCounter{counts: map[string]int64{"kafka:attempts:s1": 2}}
	p := &stubProcessor{err: errors.New("x"), fail: 100}

	assert.True(t, handleMessage(context.Background(), taskBytes(t), p, c))
	assert.Equal(t, 1, p.calls)
}

func TestHandleMessageCounterFailureStillBounded(t *testing.T) {
	noBackoff(t)
	c := &memCounter{counts: map[string]int64{}, err: errors.New("redis down")}
	p := &stubProcessor{err: errors.New("x"), fail: 100}

	assert.True(t, handleMessage(context.Background(), taskBytes(t), p, c))
	assert.Equal(t, maxAttempts, p.calls)
}

func TestHandleMessageCancelledKeepsOffset(t *testing.T) {
	noBackoff(t)
	ctx, cancel := context.WithCancel(context.Background())
	p := &stubProcessor{err: context.Canceled, fail: 100, onErr: cancel}

	assert.False(t, handleMessage(ctx, taskBytes(t), p, &memCounter{counts: map[string]int64{}}))
	assert.Equal(t, 1, p.calls)
}
