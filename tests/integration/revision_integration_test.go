//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/internal/migration"
	"github.com/damoang/angple-cms/internal/notify"
	"github.com/damoang/angple-cms/internal/repository"
	"github.com/damoang/angple-cms/internal/revision"
	"github.com/damoang/angple-cms/internal/service"
	pkgcache "github.com/damoang/angple-cms/pkg/cache"
	"github.com/damoang/angple-cms/pkg/database"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	tcredpanda "github.com/testcontainers/testcontainers-go/modules/redpanda"
	"gorm.io/gorm"
)

// RevisionIntegrationSuite runs the revision engine against real Postgres,
// Redis and a Kafka-compatible broker.
type RevisionIntegrationSuite struct {
	suite.Suite
	ctx context.Context

	pg    *tcpostgres.PostgresContainer
	rdb   *tcredis.RedisContainer
	kafka *tcredpanda.Container

	db      *gorm.DB
	client  *redis.Client
	brokers []string
}

func TestRevisionIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RevisionIntegrationSuite))
}

func (s *RevisionIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.pg, err = tcpostgres.Run(s.ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("cms"),
		tcpostgres.WithUsername("cms"),
		tcpostgres.WithPassword("cms"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	dsn, err := s.pg.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = database.Open(database.Options{Driver: "postgres", DSN: dsn, MaxOpenConns: 16})
	s.Require().NoError(err)
	s.Require().NoError(migration.Run(s.db))

	s.rdb, err = tcredis.Run(s.ctx, "redis:7-alpine")
	s.Require().NoError(err)
	addr, err := s.rdb.ConnectionString(s.ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(addr)
	s.Require().NoError(err)
	s.client = redis.NewClient(opts)
	s.Require().NoError(s.client.Ping(s.ctx).Err())

	s.kafka, err = tcredpanda.Run(s.ctx, "docker.redpanda.com/redpandadata/redpanda:v23.3.3",
		tcredpanda.WithAutoCreateTopics(),
	)
	s.Require().NoError(err)
	broker, err := s.kafka.KafkaSeedBroker(s.ctx)
	s.Require().NoError(err)
	s.brokers = []string{broker}
}

func (s *RevisionIntegrationSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.db != nil {
		_ = database.Close(s.db)
	}
	if s.pg != nil {
		_ = testcontainers.TerminateContainer(s.pg)
	}
	if s.rdb != nil {
		_ = testcontainers.TerminateContainer(s.rdb)
	}
	if s.kafka != nil {
		_ = testcontainers.TerminateContainer(s.kafka)
	}
}

func (s *RevisionIntegrationSuite) newService(opts ...revision.Option) (*revision.Service, *service.ContentService) {
	revisions := revision.NewService(s.db, repository.NewRevisionRepository(s.db), opts...)
	return revisions, service.NewContentService(s.db, revision.DefaultRegistry(), revisions)
}

func (s *RevisionIntegrationSuite) createPage(content *service.ContentService, slug string) *domain.Page {
	entity, _, err := content.Create(s.ctx, domain.SubjectPage, service.ContentChange{
		Fields: domain.Snapshot{"slug": slug, "title": slug},
	})
	s.Require().NoError(err)
	return entity.(*domain.Page)
}

// Concurrent writers on one subject must end with distinct, gapless versions.
func (s *RevisionIntegrationSuite) TestConcurrentUpdatesGetDistinctVersions() {
	revisions, content := s.newService(revision.WithMaxRetries(20))
	page := s.createPage(content, fmt.Sprintf("race-%d", time.Now().UnixNano()))

	const writers = 6
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := &domain.Page{}
			if err := s.db.First(p, page.ID).Error; err != nil {
				errs <- err
				return
			}
			p.MarkClean()
			p.Template = fmt.Sprintf("t%d", i)
			if err := s.db.Save(p).Error; err != nil {
				errs <- err
				return
			}
			_, err := revisions.CreateRevision(s.ctx, p, domain.ActionUpdate)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	history, err := revisions.GetHistory(s.ctx, page.Subject(), 0, false)
	s.Require().NoError(err)
	s.Require().Len(history, writers+1)

	versions := make([]string, 0, len(history))
	for _, e := range history {
		versions = append(versions, e.Version)
	}
	sort.Strings(versions)
	s.Equal([]string{"1.0.0", "1.0.1", "1.0.2", "1.0.3", "1.0.4", "1.0.5", "1.0.6"}, versions)
}

// The unique (subject, version) index turns a duplicate into a ConflictError.
func (s *RevisionIntegrationSuite) TestDuplicateVersionIsConflict() {
	repo := repository.NewRevisionRepository(s.db)
	subject := domain.Subject{Type: domain.SubjectForm, ID: uint64(time.Now().UnixNano() % 1_000_000_000)}
	rev := func() *domain.Revision {
		return &domain.Revision{
			SubjectType: subject.Type, SubjectID: subject.ID,
			Action: domain.ActionCreate, Version: "1.0.0",
			Data: domain.Snapshot{}, Changes: domain.Snapshot{}, Metadata: domain.Metadata{},
			CreatedAt: time.Now(),
		}
	}
	s.Require().NoError(repo.Insert(s.ctx, rev()))
	err := repo.Insert(s.ctx, rev())
	s.ErrorIs(err, revision.ErrConflict)
}

func (s *RevisionIntegrationSuite) TestHistoryCacheInvalidatedOnWrite() {
	cacheService := pkgcache.NewService(s.client)
	revisions, content := s.newService(
		revision.WithHistoryCache(notify.NewHistoryCache(cacheService, time.Minute)),
		revision.WithEventSink(notify.NewFanout().Add("cache", notify.NewCacheInvalidator(cacheService))),
	)
	page := s.createPage(content, fmt.Sprintf("cached-%d", time.Now().UnixNano()))

	first, err := revisions.GetHistory(s.ctx, page.Subject(), 10, false)
	s.Require().NoError(err)
	s.Len(first, 1)

	exists, err := cacheService.Exists(s.ctx, pkgcache.HistoryKey(page.Subject().String(), 10))
	s.Require().NoError(err)
	s.True(exists)

	_, _, err = content.Update(s.ctx, page.Subject(), service.ContentChange{Fields: domain.Snapshot{"title": "changed"}})
	s.Require().NoError(err)

	exists, err = cacheService.Exists(s.ctx, pkgcache.HistoryKey(page.Subject().String(), 10))
	s.Require().NoError(err)
	s.False(exists, "write drops cached pages")

	second, err := revisions.GetHistory(s.ctx, page.Subject(), 10, false)
	s.Require().NoError(err)
	s.Len(second, 2)
}

func (s *RevisionIntegrationSuite) TestKafkaSinkPublishesCommittedRevisions() {
	topic := fmt.Sprintf("revision.created.%d", time.Now().UnixNano())
	sink := notify.NewKafkaSink(s.brokers, topic)
	defer func() { _ = sink.Close() }()

	_, content := s.newService(revision.WithEventSink(sink))
	page := s.createPage(content, fmt.Sprintf("kafka-%d", time.Now().UnixNano()))

	reader := kafka.NewReader(kafka.ReaderConfig{Brokers: s.brokers, Topic: topic, MinBytes: 1, MaxBytes: 1 << 20})
	defer func() { _ = reader.Close() }()

	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()
	msg, err := reader.ReadMessage(ctx)
	s.Require().NoError(err)

	s.Equal(page.Subject().String(), string(msg.Key))
	var event notify.RevisionEvent
	s.Require().NoError(json.Unmarshal(msg.Value, &event))
	s.Equal(notify.EventRevisionCreated, event.Type)
	s.Equal("1.0.0", event.Revision.Version)
	s.Equal(page.ID, event.Revision.SubjectID)
}
