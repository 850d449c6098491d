package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/pkg/elasticsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSearch struct {
	mock.Mock
}

func (m *mockSearch) IndexDocument(ctx context.Context, index, docID string, body interface{}) error {
	return m.Called(ctx, index, docID, body).Error(0)
}

func (m *mockSearch) Search(ctx context.Context, index string, query map[string]interface{}, from, size int) (*elasticsearch.SearchResponse, error) {
	args := m.Called(ctx, index, query, from, size)
	resp, _ := args.Get(0).(*elasticsearch.SearchResponse)
	return resp, args.Error(1)
}

func (m *mockSearch) CreateIndex(ctx context.Context, index string, mapping map[string]interface{}) error {
	return m.Called(ctx, index, mapping).Error(0)
}

func TestSearchIndexer_IndexesRevision(t *testing.T) {
	backend := &mockSearch{}
	backend.On("IndexDocument", mock.Anything, "cms-revisions", "12", mock.MatchedBy(func(doc revisionDocument) bool {
		return doc.SubjectType == "page" && doc.SubjectID == 3 && doc.Version == "1.0.4" &&
			assert.ObjectsAreEqual([]string{"slug"}, doc.ChangedFields)
	})).Return(nil).Once()

	s := &SearchIndexer{backend: backend, index: "cms-revisions"}
	require.NoError(t, s.OnRevisionCreated(context.Background(), sampleRevision()))
	backend.AssertExpectations(t)
}

func TestSearchIndexer_EnsureIndex(t *testing.T) {
	backend := &mockSearch{}
	backend.On("CreateIndex", mock.Anything, "cms-revisions", revisionMapping).Return(nil).Once()

	s := &SearchIndexer{backend: backend, index: "cms-revisions"}
	require.NoError(t, s.EnsureIndex(context.Background()))
	backend.AssertExpectations(t)
}

func TestSearchIndexer_Search(t *testing.T) {
	backend := &mockSearch{}
	backend.On("Search", mock.Anything, "cms-revisions", mock.Anything, 0, 20).Return(&elasticsearch.SearchResponse{
		Total: 1,
		Results: []elasticsearch.SearchResult{{
			ID: "12",
			Source: map[string]interface{}{
				"subject_type": "page", "subject_id": float64(3),
				"action": "update", "version": "1.0.4", "description": "Pricing updated",
			},
			Highlight: map[string][]string{"description": {"<em>Pricing</em> updated"}},
		}},
	}, nil).Once()

	s := &SearchIndexer{backend: backend, index: "cms-revisions"}
	hits, total, err := s.Search(context.Background(), RevisionQuery{Text: "pricing", SubjectType: domain.SubjectPage, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, hits, 1)
	assert.Equal(t, RevisionHit{
		RevisionID: 12, Subject: "page:3", Action: "update", Version: "1.0.4",
		Description: "Pricing updated", Highlights: []string{"<em>Pricing</em> updated"},
	}, hits[0])
}

func TestSearchIndexer_SearchError(t *testing.T) {
	backend := &mockSearch{}
	backend.On("Search", mock.Anything, "cms-revisions", mock.Anything, 0, 5).Return(nil, errors.New("cluster red")).Once()

	s := &SearchIndexer{backend: backend, index: "cms-revisions"}
	_, _, err := s.Search(context.Background(), RevisionQuery{Limit: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster red")
}

func TestBuildRevisionQuery(t *testing.T) {
	q := buildRevisionQuery(RevisionQuery{Text: "  hero ", Action: domain.ActionPublish, ActorID: 4})
	boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})

	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	assert.Equal(t, "hero", must[0].(map[string]interface{})["multi_match"].(map[string]interface{})["query"])

	filter := boolQuery["filter"].([]interface{})
	assert.Equal(t, []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"action": "publish"}},
		map[string]interface{}{"term": map[string]interface{}{"actor_id": uint64(4)}},
	}, filter)

	empty := buildRevisionQuery(RevisionQuery{})
	assert.Empty(t, empty["query"].(map[string]interface{})["bool"])
}
