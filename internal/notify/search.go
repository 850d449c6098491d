package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/pkg/elasticsearch"
)

type searchBackend interface {
	IndexDocument(ctx context.Context, index, docID string, body interface{}) error
	Search(ctx context.Context, index string, query map[string]interface{}, from, size int) (*elasticsearch.SearchResponse, error)
	CreateIndex(ctx context.Context, index string, mapping map[string]interface{}) error
}

// revisionDocument is what the search index stores per revision. Snapshots
// stay out; they are served from the database.
type revisionDocument struct {
	RevisionID    uint64    `json:"revision_id"`
	SubjectType   string    `json:"subject_type"`
	SubjectID     uint64    `json:"subject_id"`
	Action        string    `json:"action"`
	Version       string    `json:"version"`
	Description   string    `json:"description"`
	ChangedFields []string  `json:"changed_fields"`
	ActorID       *uint64   `json:"actor_id,omitempty"`
	IsPublished   bool      `json:"is_published"`
	CreatedAt     time.Time `json:"created_at"`
}

var revisionMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"revision_id":    map[string]interface{}{"type": "long"},
			"subject_type":   map[string]interface{}{"type": "keyword"},
			"subject_id":     map[string]interface{}{"type": "long"},
			"action":         map[string]interface{}{"type": "keyword"},
			"version":        map[string]interface{}{"type": "keyword"},
			"description":    map[string]interface{}{"type": "text"},
			"changed_fields": map[string]interface{}{"type": "keyword"},
			"actor_id":       map[string]interface{}{"type": "long"},
			"is_published":   map[string]interface{}{"type": "boolean"},
			"created_at":     map[string]interface{}{"type": "date"},
		},
	},
}

// RevisionQuery filters a revision search
type RevisionQuery struct {
	Text        string
	SubjectType domain.SubjectType
	Action      domain.Action
	ActorID     uint64
	Limit       int
}

// RevisionHit is one search match
type RevisionHit struct {
	RevisionID  uint64   `json:"revision_id"`
	Subject     string   `json:"subject"`
	Action      string   `json:"action"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Highlights  []string `json:"highlights,omitempty"`
}

// SearchIndexer mirrors committed revisions into an Elasticsearch index so
// descriptions and changed fields can be searched across all subjects.
type SearchIndexer struct {
	backend searchBackend
	index   string
}

// NewSearchIndexer creates a SearchIndexer writing to index
func NewSearchIndexer(client *elasticsearch.Client, index string) *SearchIndexer {
	return &SearchIndexer{backend: client, index: index}
}

// EnsureIndex creates the index with its mapping when missing
func (s *SearchIndexer) EnsureIndex(ctx context.Context) error {
	return s.backend.CreateIndex(ctx, s.index, revisionMapping)
}

func (s *SearchIndexer) OnRevisionCreated(ctx context.Context, rev *domain.Revision) error {
	doc := revisionDocument{
		RevisionID:    rev.ID,
		SubjectType:   string(rev.SubjectType),
		SubjectID:     rev.SubjectID,
		Action:        string(rev.Action),
		Version:       rev.Version,
		Description:   rev.Description,
		ChangedFields: rev.Changes.Keys(),
		ActorID:       rev.ActorID,
		IsPublished:   rev.IsPublished,
		CreatedAt:     rev.CreatedAt,
	}
	return s.backend.IndexDocument(ctx, s.index, strconv.FormatUint(rev.ID, 10), doc)
}

// Search returns the newest revisions matching q
func (s *SearchIndexer) Search(ctx context.Context, q RevisionQuery) ([]RevisionHit, int64, error) {
	resp, err := s.backend.Search(ctx, s.index, buildRevisionQuery(q), 0, q.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("revision search: %w", err)
	}

	hits := make([]RevisionHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hit := RevisionHit{
			Action:      str(r.Source["action"]),
			Version:     str(r.Source["version"]),
			Description: str(r.Source["description"]),
			Highlights:  r.Highlight["description"],
		}
		hit.RevisionID, _ = strconv.ParseUint(r.ID, 10, 64)
		if id, ok := r.Source["subject_id"].(float64); ok {
			hit.Subject = fmt.Sprintf("%s:%d", str(r.Source["subject_type"]), uint64(id))
		}
		hits = append(hits, hit)
	}
	return hits, resp.Total, nil
}

func buildRevisionQuery(q RevisionQuery) map[string]interface{} {
	var must []interface{}
	if text := strings.TrimSpace(q.Text); text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"description^2", "changed_fields"},
			},
		})
	}

	var filter []interface{}
	term := func(field string, value interface{}) {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{field: value}})
	}
	if q.SubjectType != "" {
		term("subject_type", string(q.SubjectType))
	}
	if q.Action != "" {
		term("action", string(q.Action))
	}
	if q.ActorID != 0 {
		term("actor_id", q.ActorID)
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{"description": map[string]interface{}{}},
		},
	}
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
