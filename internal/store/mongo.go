// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pdiddy/trl-engine/pkg/types"
)

// Collection names shared with the dashboard database.
const (
	collPatents       = "patents"
	collPublications  = "publications"
	collMarketReports = "marketreports"
	collTRLRecords    = "trlrecords"
)

// Mongo is the shared-database backend.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var _ Backend = (*Mongo)(nil)

// NewMongo connects to cfg.URI, pings the server within cfg.ConnectTimeout
// and ensures the history index exists.
func NewMongo(ctx context.Context, cfg types.StoreConfig, opts ...Option) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo store requires a connection uri")
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	o := buildOptions(opts)
	m := &Mongo{client: client, db: client.Database(cfg.Database), now: o.now}

	_, err = m.db.Collection(collTRLRecords).Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "technology", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating history index: %w", err)
	}

	return m, nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

// matchFilter selects documents from FromYear on whose fields contain the
// literal text, ignoring case.
func matchFilter(m Match, fields ...string) bson.M {
	pattern := bson.M{"$regex": regexp.QuoteMeta(m.Text), "$options": "i"}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: pattern})
	}
	return bson.M{
		"year": bson.M{"$gte": m.FromYear},
		"$or":  or,
	}
}

// technologyFilter matches a technology name exactly, ignoring case.
func technologyFilter(technology string) bson.M {
	if technology == "" {
		return bson.M{}
	}
	return bson.M{"technology": bson.M{
		"$regex":   "^" + regexp.QuoteMeta(technology) + "$",
		"$options": "i",
	}}
}

// latestPerTechnology keeps the newest record of each technology.
func latestPerTechnology() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$toLower", Value: "$technology"}}},
			{Key: "trl_score", Value: bson.D{{Key: "$first", Value: "$trl_score"}}},
		}}},
	}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", coll.Name(), err)
	}
	return out, nil
}

var byYear = options.Find().SetSort(bson.D{{Key: "year", Value: 1}})

// FindPatents returns patents matching m on title or abstract.
func (m *Mongo) FindPatents(ctx context.Context, q Match) ([]types.Patent, error) {
	return findAll[types.Patent](ctx, m.db.Collection(collPatents), matchFilter(q, "title", "abstract"), byYear)
}

// FindPublications returns publications matching m on title or abstract.
func (m *Mongo) FindPublications(ctx context.Context, q Match) ([]types.Publication, error) {
	return findAll[types.Publication](ctx, m.db.Collection(collPublications), matchFilter(q, "title", "abstract"), byYear)
}

// FindMarketReports returns market reports matching m on title or summary.
func (m *Mongo) FindMarketReports(ctx context.Context, q Match) ([]types.MarketReport, error) {
	return findAll[types.MarketReport](ctx, m.db.Collection(collMarketReports), matchFilter(q, "title", "summary"), byYear)
}

// upsertModels builds one upsert per item keyed on its id field.
func upsertModels[T any](items []T, key string, id func(T) string) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(items))
	for _, item := range items {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{key: id(item)}).
			SetUpdate(bson.M{"$set": item}).
			SetUpsert(true))
	}
	return models
}

// withIDs returns a copy of items with every empty id filled in. The
// caller's slice is left untouched.
func withIDs[T any](items []T, id func(*T) *string) []T {
	out := slices.Clone(items)
	for i := range out {
		p := id(&out[i])
		*p = recordID(*p)
	}
	return out
}

func (m *Mongo) bulkUpsert(ctx context.Context, coll string, models []mongo.WriteModel) (int, error) {
	if len(models) == 0 {
		return 0, nil
	}
	_, err := m.db.Collection(coll).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("upserting into %s: %w", coll, err)
	}
	return len(models), nil
}

// UpsertPatents inserts or replaces patents by id.
func (m *Mongo) UpsertPatents(ctx context.Context, patents []types.Patent) (int, error) {
	patents = withIDs(patents, func(x *types.Patent) *string { return &x.ID })
	return m.bulkUpsert(ctx, collPatents,
		upsertModels(patents, "id", func(p types.Patent) string { return p.ID }))
}

// UpsertPublications inserts or replaces publications by id.
func (m *Mongo) UpsertPublications(ctx context.Context, pubs []types.Publication) (int, error) {
	pubs = withIDs(pubs, func(x *types.Publication) *string { return &x.ID })
	return m.bulkUpsert(ctx, collPublications,
		upsertModels(pubs, "id", func(p types.Publication) string { return p.ID }))
}

// UpsertMarketReports inserts or replaces market reports by reportId.
func (m *Mongo) UpsertMarketReports(ctx context.Context, reports []types.MarketReport) (int, error) {
	reports = withIDs(reports, func(x *types.MarketReport) *string { return &x.ID })
	return m.bulkUpsert(ctx, collMarketReports,
		upsertModels(reports, "reportId", func(r types.MarketReport) string { return r.ID }))
}

// Record appends an assessment to the trlrecords collection.
func (m *Mongo) Record(ctx context.Context, a types.Assessment) (types.AssessmentRecord, error) {
	rec := types.AssessmentRecord{
		ID:         uuid.NewString(),
		Assessment: a,
		// BSON dates carry millisecond precision.
		CreatedAt: m.now().UTC().Truncate(time.Millisecond),
	}
	if _, err := m.db.Collection(collTRLRecords).InsertOne(ctx, rec); err != nil {
		return types.AssessmentRecord{}, fmt.Errorf("inserting assessment record: %w", err)
	}
	return rec, nil
}

// List returns history records newest first.
func (m *Mongo) List(ctx context.Context, q HistoryQuery) ([]types.AssessmentRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(historyLimit(q.Limit)))
	return findAll[types.AssessmentRecord](ctx, m.db.Collection(collTRLRecords), technologyFilter(q.Technology), opts)
}

// Distribution counts the latest assessment per technology by TRL bucket.
func (m *Mongo) Distribution(ctx context.Context) ([]types.BucketCount, error) {
	cursor, err := m.db.Collection(collTRLRecords).Aggregate(ctx, latestPerTechnology())
	if err != nil {
		return nil, fmt.Errorf("aggregating distribution: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		TRLScore float64 `bson:"trl_score"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding distribution: %w", err)
	}

	scores := make([]float64, len(rows))
	for i, r := range rows {
		scores[i] = r.TRLScore
	}
	return bucketCounts(scores), nil
}

// Progression returns the mean TRL score per year for technology.
func (m *Mongo) Progression(ctx context.Context, technology string) ([]types.YearScore, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	records, err := findAll[types.AssessmentRecord](ctx, m.db.Collection(collTRLRecords), technologyFilter(technology), opts)
	if err != nil {
		return nil, err
	}
	return yearlyMeans(records), nil
}
