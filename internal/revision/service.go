package revision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/pkg/database"
	"github.com/damoang/angple-cms/pkg/logger"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Metadata keys filled from the RequestContextProvider
const (
	MetaUserAgent     = "user_agent"
	MetaSourceAddress = "source_address"
	MetaSessionID     = "session_id"
)

const defaultMaxRetries = 3

// Store is the append-only revision log
type Store interface {
	Insert(ctx context.Context, rev *domain.Revision) error
	// Latest returns nil, nil when the subject has no revisions.
	Latest(ctx context.Context, subject domain.Subject) (*domain.Revision, error)
	// History is ordered newest first; limit <= 0 returns everything.
	History(ctx context.Context, subject domain.Subject, limit int) ([]*domain.Revision, error)
	Count(ctx context.Context, subject domain.Subject) (int64, error)
	FindByID(ctx context.Context, id uint64) (*domain.Revision, error)
	ListByActor(ctx context.Context, actorID uint64, limit int) ([]*domain.Revision, error)
}

// ActorResolver looks up display identities for actor ids
type ActorResolver interface {
	ResolveActors(ctx context.Context, ids []uint64) (map[uint64]*domain.Actor, error)
}

// HistoryCache caches history reads. Misses and failures are reported as ok=false.
type HistoryCache interface {
	GetHistory(ctx context.Context, subject domain.Subject, limit int) ([]*domain.Revision, bool)
	SetHistory(ctx context.Context, subject domain.Subject, limit int, revs []*domain.Revision)
	InvalidateHistory(ctx context.Context, subject domain.Subject)
}

// Service records, restores and compares revisions
type Service struct {
	db           *gorm.DB
	store        Store
	sink         EventSink
	requests     RequestContextProvider
	actors       ActorResolver
	cache        HistoryCache
	descriptions *Descriptions
	clock        func() time.Time
	maxRetries   int
	logger       *zerolog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithEventSink sets the sink notified after each committed revision
func WithEventSink(sink EventSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithRequestContext sets where actor and request metadata are read from
func WithRequestContext(p RequestContextProvider) Option {
	return func(s *Service) { s.requests = p }
}

// WithActorResolver enables actor display identities in GetHistory
func WithActorResolver(r ActorResolver) Option {
	return func(s *Service) { s.actors = r }
}

// WithHistoryCache caches GetHistory reads
func WithHistoryCache(c HistoryCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithDescriptions sets the default description renderer
func WithDescriptions(d *Descriptions) Option {
	return func(s *Service) { s.descriptions = d }
}

// WithClock overrides time.Now
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithMaxRetries sets how often a version conflict is retried when the
// service owns the transaction.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithLogger overrides the global logger
func WithLogger(l *zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a revision service writing through store on db
func NewService(db *gorm.DB, store Store, opts ...Option) *Service {
	s := &Service{
		db:         db,
		store:      store,
		sink:       nopSink{},
		clock:      time.Now,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOption customizes a single revision
type CreateOption func(*createOptions)

type createOptions struct {
	description *string
	metadata    domain.Metadata
	published   *bool
	actorID     *uint64
}

// WithDescription replaces the templated description
func WithDescription(d string) CreateOption {
	return func(o *createOptions) { o.description = &d }
}

// WithMetadata adds caller metadata. Request metadata keys win on collision.
func WithMetadata(m domain.Metadata) CreateOption {
	return func(o *createOptions) { o.metadata = m }
}

// Published sets the publish state explicitly
func Published(published bool) CreateOption {
	return func(o *createOptions) { o.published = &published }
}

// WithActor records id as the actor instead of the request's actor
func WithActor(id uint64) CreateOption {
	return func(o *createOptions) { o.actorID = &id }
}

func collect(opts []CreateOption) createOptions {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (s *Service) log() *zerolog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.GetLogger()
}

// RunInTx runs fn in a transaction carried by ctx. When ctx already holds a
// transaction fn joins it. Revisions created inside are delivered to the
// sink once the outermost transaction commits.
func (s *Service) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := database.TxFrom(ctx); ok {
		return fn(ctx)
	}

	p := &pending{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withPending(database.WithTx(ctx, tx), p))
	})
	if err != nil {
		return err
	}
	for _, rev := range p.revisions {
		s.notify(ctx, rev)
	}
	return nil
}

// withRetry retries fn on version conflicts. Inside a caller's transaction
// the conflict is returned since the transaction is already poisoned.
func (s *Service) withRetry(ctx context.Context, subject domain.Subject, fn func(ctx context.Context) error) error {
	if _, ok := database.TxFrom(ctx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err = s.RunInTx(ctx, fn)
		if !IsConflict(err) {
			return err
		}
		s.log().Warn().
			Str("subject", subject.String()).
			Int("attempt", attempt+1).
			Msg("revision version conflict, retrying")
	}
	return err
}

// CreateRevision snapshots entity and appends a revision for action. It
// joins the transaction in ctx so the revision commits or rolls back with
// the entity's own write.
func (s *Service) CreateRevision(ctx context.Context, entity Entity, action domain.Action, opts ...CreateOption) (*domain.Revision, error) {
	subject := entity.Subject()
	if err := validateRequest(subject, action); err != nil {
		return nil, err
	}
	o := collect(opts)

	var rev *domain.Revision
	err := s.withRetry(ctx, subject, func(ctx context.Context) error {
		r, err := s.record(ctx, entity, action, o)
		rev = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// CreateManualRevision is CreateRevision for explicit user actions. When the
// revision ends up published by this call, its data is applied back onto the
// entity and persisted in the same transaction.
func (s *Service) CreateManualRevision(ctx context.Context, entity Entity, action domain.Action, opts ...CreateOption) (*domain.Revision, error) {
	subject := entity.Subject()
	if err := validateRequest(subject, action); err != nil {
		return nil, err
	}
	o := collect(opts)

	var rev *domain.Revision
	err := s.withRetry(ctx, subject, func(ctx context.Context) error {
		r, err := s.recordManual(ctx, entity, action, o)
		rev = r
		return err
	})
	if err != nil {
		return nil, err
	}
	entity.MarkClean()
	return rev, nil
}

// RevertToRevision restores entity to target.data and appends a revert
// revision. The entity write and the revision insert share one transaction.
func (s *Service) RevertToRevision(ctx context.Context, entity Entity, target *domain.Revision) (bool, error) {
	subject := entity.Subject()
	if target == nil {
		return false, NewValidationError("target", "is required")
	}
	if err := validateRequest(subject, domain.ActionRevert); err != nil {
		return false, err
	}
	if target.Subject() != subject {
		return false, NewValidationError("target", fmt.Sprintf("belongs to %s, not %s", target.Subject(), subject))
	}

	o := createOptions{}
	desc := s.descriptions.Reverted(target.Version)
	o.description = &desc

	err := s.withRetry(ctx, subject, func(ctx context.Context) error {
		if err := s.ApplyRevisionToEntity(ctx, entity, target.Data); err != nil {
			return err
		}
		if err := s.persist(ctx, entity); err != nil {
			return err
		}
		_, err := s.recordManual(ctx, entity, domain.ActionRevert, o)
		return err
	})
	if err != nil {
		s.log().Error().Err(err).
			Str("subject", subject.String()).
			Str("target_version", target.Version).
			Msg("revert failed")
		return false, err
	}
	entity.MarkClean()
	return true, nil
}

// ApplyRevisionToEntity assigns data onto entity. Excluded fields are never
// written; flat values of translatable fields are stored under the entity's
// current locale. Columns the entity no longer has are skipped.
func (s *Service) ApplyRevisionToEntity(ctx context.Context, entity Entity, data domain.Snapshot) error {
	skip := toSet(entity.ExcludedFields())
	translatable := toSet(entity.TranslatableFields())

	for field, value := range data {
		if _, ok := skip[field]; ok {
			continue
		}
		if _, ok := translatable[field]; ok {
			value = localize(value, entity.CurrentLocale())
		}
		if err := entity.ApplyField(field, value); err != nil {
			if errors.Is(err, domain.ErrUnknownField) {
				s.log().Debug().Str("subject", entity.Subject().String()).Str("field", field).Msg("skipping unknown field")
				continue
			}
			return NewValidationError(field, err.Error())
		}
	}
	return nil
}

// localize wraps a legacy flat value as {locale: value}
func localize(value any, locale string) any {
	switch value.(type) {
	case nil, map[string]any, domain.Snapshot, map[string]string:
		return value
	default:
		return map[string]any{locale: value}
	}
}

// CompareRevisions returns the field changes going from a to b
func (s *Service) CompareRevisions(a, b *domain.Revision) domain.Diff {
	return Diff(a.Data, b.Data)
}

// GetHistory returns the subject's revisions newest first. limit <= 0 returns
// all of them. withActors resolves actor display identities when a resolver
// is configured.
func (s *Service) GetHistory(ctx context.Context, subject domain.Subject, limit int, withActors bool) ([]domain.HistoryEntry, error) {
	if !subject.Valid() {
		return nil, NewValidationError("subject", "type and id are required")
	}

	revs, hit := s.cachedHistory(ctx, subject, limit)
	if !hit {
		var err error
		revs, err = s.store.History(ctx, subject, limit)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.storeHistory(ctx, subject, limit, revs)
		}
	}

	entries := make([]domain.HistoryEntry, len(revs))
	for i, r := range revs {
		entries[i] = domain.HistoryEntry{Revision: r}
	}
	if !withActors || s.actors == nil {
		return entries, nil
	}

	ids := make([]uint64, 0, len(revs))
	seen := make(map[uint64]struct{})
	for _, r := range revs {
		if r.ActorID == nil {
			continue
		}
		if _, ok := seen[*r.ActorID]; !ok {
			seen[*r.ActorID] = struct{}{}
			ids = append(ids, *r.ActorID)
		}
	}
	if len(ids) == 0 {
		return entries, nil
	}

	actors, err := s.actors.ResolveActors(ctx, ids)
	if err != nil {
		// history is still useful without names
		s.log().Warn().Err(err).Str("subject", subject.String()).Msg("actor lookup failed")
		return entries, nil
	}
	for i := range entries {
		if id := entries[i].ActorID; id != nil {
			entries[i].Actor = actors[*id]
		}
	}
	return entries, nil
}

func (s *Service) cachedHistory(ctx context.Context, subject domain.Subject, limit int) ([]*domain.Revision, bool) {
	if s.cache == nil {
		return nil, false
	}
	if _, inTx := database.TxFrom(ctx); inTx {
		return nil, false
	}
	return s.cache.GetHistory(ctx, subject, limit)
}

// storeHistory writes a freshly read page to the cache. A revision committed
// between the read and the write has already fired its invalidation, so the
// page is checked against the current head and dropped if it is behind.
func (s *Service) storeHistory(ctx context.Context, subject domain.Subject, limit int, revs []*domain.Revision) {
	if _, inTx := database.TxFrom(ctx); inTx {
		return
	}
	s.cache.SetHistory(ctx, subject, limit, revs)

	latest, err := s.store.Latest(ctx, subject)
	if err == nil && headID(latest) == headOf(revs) {
		return
	}
	s.cache.InvalidateHistory(ctx, subject)
}

func headID(rev *domain.Revision) uint64 {
	if rev == nil {
		return 0
	}
	return rev.ID
}

func headOf(revs []*domain.Revision) uint64 {
	if len(revs) == 0 {
		return 0
	}
	return revs[0].ID
}

// FindByID returns one revision
func (s *Service) FindByID(ctx context.Context, id uint64) (*domain.Revision, error) {
	return s.store.FindByID(ctx, id)
}

// ActorActivity lists the newest revisions recorded by one actor across
// all subjects
func (s *Service) ActorActivity(ctx context.Context, actorID uint64, limit int) ([]*domain.Revision, error) {
	if actorID == 0 {
		return nil, NewValidationError("actor_id", "is required")
	}
	return s.store.ListByActor(ctx, actorID, limit)
}

// Count returns how many revisions subject has
func (s *Service) Count(ctx context.Context, subject domain.Subject) (int64, error) {
	if !subject.Valid() {
		return 0, NewValidationError("subject", "type and id are required")
	}
	return s.store.Count(ctx, subject)
}

// record builds and inserts one revision. ctx must carry the transaction.
func (s *Service) record(ctx context.Context, entity Entity, action domain.Action, o createOptions) (*domain.Revision, error) {
	subject := entity.Subject()

	latest, err := s.store.Latest(ctx, subject)
	if err != nil {
		return nil, err
	}

	exclude := entity.ExcludedFields()
	tracked := entity.TrackedFields()

	data := Filter(entity.CurrentFields(), exclude, tracked)
	changes := domain.Snapshot{}
	if action == domain.ActionUpdate || action == domain.ActionRevert {
		changes = Filter(entity.DirtyFields(), exclude, tracked)
	}

	var previous *string
	if latest != nil {
		previous = &latest.Version
	}

	now := s.clock()
	published, publishedAt := publishState(action, latest, o.published, now)

	description := s.descriptions.Default(action, subject.Type)
	if o.description != nil {
		description = *o.description
	}

	rev := &domain.Revision{
		SubjectType: subject.Type,
		SubjectID:   subject.ID,
		ActorID:     s.actorID(ctx, o),
		Action:      action,
		Version:     NextVersion(previous, action),
		Data:        data,
		Changes:     changes,
		Metadata:    s.metadata(ctx, o.metadata),
		Description: description,
		IsPublished: published,
		PublishedAt: publishedAt,
		CreatedAt:   now,
	}
	if err := s.store.Insert(ctx, rev); err != nil {
		return nil, err
	}

	if p, ok := pendingFrom(ctx); ok {
		p.revisions = append(p.revisions, rev)
	} else {
		// transaction opened by the caller outside RunInTx
		s.notify(ctx, rev)
	}
	return rev, nil
}

func (s *Service) recordManual(ctx context.Context, entity Entity, action domain.Action, o createOptions) (*domain.Revision, error) {
	rev, err := s.record(ctx, entity, action, o)
	if err != nil {
		return nil, err
	}

	requested := action == domain.ActionPublish
	if o.published != nil {
		requested = *o.published
	}
	if !requested {
		return rev, nil
	}

	if err := s.ApplyRevisionToEntity(ctx, entity, rev.Data); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, entity); err != nil {
		return nil, err
	}
	return rev, nil
}

// persist writes entity inside the transaction with auto revisions suppressed
func (s *Service) persist(ctx context.Context, entity Entity) error {
	tx, ok := database.TxFrom(ctx)
	if !ok {
		tx = s.db
	}
	if err := entity.Persist(WithoutAutoRevision(ctx), tx); err != nil {
		return &StorageError{Op: "persist " + entity.Subject().String(), Err: err}
	}
	return nil
}

// publishState derives is_published/published_at. An explicit choice wins;
// otherwise publish publishes, create starts as a draft and every other
// action keeps the latest revision's state.
func publishState(action domain.Action, latest *domain.Revision, explicit *bool, now time.Time) (bool, *time.Time) {
	if explicit != nil {
		if *explicit {
			return true, &now
		}
		return false, nil
	}
	switch action {
	case domain.ActionPublish:
		return true, &now
	case domain.ActionCreate:
		return false, nil
	}
	if latest != nil && latest.IsPublished {
		if latest.PublishedAt != nil {
			at := *latest.PublishedAt
			return true, &at
		}
		return true, &now
	}
	return false, nil
}

func (s *Service) actorID(ctx context.Context, o createOptions) *uint64 {
	if o.actorID != nil {
		return o.actorID
	}
	if s.requests == nil {
		return nil
	}
	return s.requests.ActorID(ctx)
}

func (s *Service) metadata(ctx context.Context, extra domain.Metadata) domain.Metadata {
	md := domain.Metadata{}
	for k, v := range extra {
		md[k] = v
	}

	var ua, addr, session *string
	if s.requests != nil {
		ua = s.requests.UserAgent(ctx)
		addr = s.requests.SourceAddress(ctx)
		session = s.requests.SessionID(ctx)
	}
	md[MetaUserAgent] = deref(ua)
	md[MetaSourceAddress] = deref(addr)
	md[MetaSessionID] = deref(session)
	return md
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// notify delivers rev to the sink. Sink errors and panics stay here.
func (s *Service) notify(ctx context.Context, rev *domain.Revision) {
	defer func() {
		if r := recover(); r != nil {
			s.log().Error().
				Interface("panic", r).
				Str("subject", rev.Subject().String()).
				Str("version", rev.Version).
				Msg("revision sink panicked")
		}
	}()
	if err := s.sink.OnRevisionCreated(ctx, rev); err != nil {
		s.log().Warn().Err(err).
			Str("subject", rev.Subject().String()).
			Str("version", rev.Version).
			Msg("revision sink failed")
	}
}

func validateRequest(subject domain.Subject, action domain.Action) error {
	if subject.Type == "" {
		return NewValidationError("subject_type", "is required")
	}
	if subject.ID == 0 {
		return NewValidationError("subject_id", "is required")
	}
	if action == "" {
		return NewValidationError("action", "is required")
	}
	return nil
}
