package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-coach-go/internal/model"
	"interview-coach-go/internal/repository"
	"interview-coach-go/pkg/errs"
	"interview-coach-go/pkg/tasks"
)

// stubRepo 只实现归档用到的读取方法。
type stubRepo struct {
	repository.InterviewRepository
	session  *model.InterviewSession
	messages []model.ChatMessage
	result   *model.InterviewResult
}

func (r *stubRepo) FindSession(_ context.Context, id string) (*model.InterviewSession, error) {
	if r.session == nil || r.session.ID != id {
		return nil, errs.ErrNotFound
	}
	return r.session, nil
}

func (r *stubRepo) ListMessages(context.Context, string) ([]model.ChatMessage, error) {
	return r.messages, nil
}

func (r *stubRepo) FindResult(context.Context, string) (*model.InterviewResult, error) {
	if r.result == nil {
		return nil, errs.ErrNotFound
	}
	return r.result, nil
}

type memStore struct {
	objects map[string][]byte
	err     error
}

func (s *memStore) Put(_ context.Context, name string, data []byte, _ string) error {
	if s.err != nil {
		return s.err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[name] = data
	return nil
}

type memIndexer struct {
	docs map[string]model.AnswerDocument
}

func (i *memIndexer) IndexAnswer(_ context.Context, doc model.AnswerDocument) error {
	if i.docs == nil {
		i.docs = map[string]model.AnswerDocument{}
	}
	i.docs[doc.DocID] = doc
	return nil
}

func fixture() *stubRepo {
	end := time.Now()
	return &stubRepo{
		session: &model.InterviewSession{
			ID: "s1", UserID: 7, SubtopicID: 3, Language: model.LanguageSpanish,
			StartTime: end.Add(-time.Hour), EndTime: &end, Completed: true,
			Subtopic: &model.Subtopic{ID: 3, Name: "Go concurrency"},
		},
		messages: []model.ChatMessage{
			{ID: 1, SessionID: "s1", Content: "Pregunta 1: ¿Qué es un canal?"},
			{ID: 2, SessionID: "s1", Content: "Un conducto tipado entre goroutines.", IsUserMessage: true},
		},
		result: &model.InterviewResult{
			SessionID: "s1", Score: 70, Evaluation: "Puntuación: 70", CreatedAt: end,
			Answers: []model.ResultAnswer{{Position: 1, Question: "Pregunta 1: ¿Qué es un canal?", Answer: "Un conducto tipado entre goroutines."}},
		},
	}
}

func TestProcessArchivesAndIndexes(t *testing.T) {
	store, indexer := &memStore{}, &memIndexer{}
	p := NewProcessor(fixture(), store, indexer)

	require.NoError(t, p.Process(context.Background(), tasks.TranscriptArchiveTask{SessionID: "s1", UserID: 7}))

	data, ok := store.objects["transcripts/7/s1.json"]
	require.True(t, ok)
	var archive TranscriptArchive
	require.NoError(t, json.Unmarshal(data, &archive))
	assert.Equal(t, "Go concurrency", archive.Subtopic)
	assert.Equal(t, 70, archive.Score)
	assert.Len(t, archive.Messages, 2)

	doc, ok := indexer.docs["s1-1"]
	require.True(t, ok)
	assert.Equal(t, uint(7), doc.UserID)
	assert.Equal(t, "es", doc.Language)
	assert.Equal(t, 70, doc.Score)

	// 重复处理覆盖同一对象和文档
	require.NoError(t, p.Process(context.Background(), tasks.TranscriptArchiveTask{SessionID: "s1", UserID: 7}))
	assert.Len(t, store.objects, 1)
	assert.Len(t, indexer.docs, 1)
}

func TestProcessSkipsDeletedSession(t *testing.T) {
	p := NewProcessor(&stubRepo{}, &memStore{}, &memIndexer{})
	assert.NoError(t, p.Process(context.Background(), tasks.TranscriptArchiveTask{SessionID: "gone"}))
}

func TestProcessReturnsErrorsForRetry(t *testing.T) {
	repo := fixture()
	repo.result = nil
	p := NewProcessor(repo, &memStore{}, &memIndexer{})
	assert.Error(t, p.Process(context.Background(), tasks.TranscriptArchiveTask{SessionID: "s1"}))

	p = NewProcessor(fixture(), &memStore{err: errors.New("minio down")}, &memIndexer{})
	assert.Error(t, p.Process(context.Background(), tasks.TranscriptArchiveTask{SessionID: "s1"}))
}
