package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-coach-go/internal/model"
	"interview-coach-go/pkg/errs"
)

func TestSubjectServiceCreatesCatalogTree(t *testing.T) {
	svc := NewSubjectService(newMemSubjectRepo())

	_, err := svc.CreateCatalog("  ", "x")
	assert.True(t, errs.IsCode(err, errs.CodeInvalidArgument))

	cat, err := svc.CreateCatalog("Distributed systems", "Assess consensus knowledge")
	require.NoError(t, err)
	sub, err := svc.CreateSubtopic(cat.ID, "Raft", "Leader election and log replication")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, sub.CatalogID)

	_, err = svc.CreateSubtopic(12345, "Paxos", "")
	assert.True(t, errs.IsCode(err, errs.CodeNotFound))

	catalogs, err := svc.ListCatalogs()
	require.NoError(t, err)
	require.Len(t, catalogs, 1)
	require.Len(t, catalogs[0].Subtopics, 1)
	assert.Equal(t, "Raft", catalogs[0].Subtopics[0].Name)
}

type fakeSearcher struct {
	userID uint
	size   int
	hits   []model.AnswerSearchDTO
	err    error
}

func (f *fakeSearcher) SearchAnswers(_ context.Context, userID uint, _ string, size int) ([]model.AnswerSearchDTO, error) {
	f.userID, f.size = userID, size
	return f.hits, f.err
}

func TestSearchAnswersScopesToUser(t *testing.T) {
	backend := &fakeSearcher{hits: []model.AnswerSearchDTO{{SessionID: "s1", Position: 1}}}
	svc := NewSearchService(backend)
	user := &model.User{ID: 5, Username: "hana"}

	hits, err := svc.SearchAnswers(context.Background(), user, " goroutines ", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.Equal(t, uint(5), backend.userID)
	assert.Equal(t, 10, backend.size)

	_, err = svc.SearchAnswers(context.Background(), user, "   ", 5)
	assert.True(t, errs.IsCode(err, errs.CodeInvalidArgument))

	backend.err = errors.New("es down")
	_, err = svc.SearchAnswers(context.Background(), user, "x", 5)
	assert.True(t, errs.IsCode(err, errs.CodeUnavailable))
}
