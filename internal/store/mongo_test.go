// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pdiddy/trl-engine/pkg/types"
)

func TestMatchFilterQuotesText(t *testing.T) {
	f := matchFilter(Match{Text: "C++ (v2)", FromYear: 2020}, "title", "summary")

	assert.Equal(t, bson.M{"$gte": 2020}, f["year"])

	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)

	title := or[0].(bson.M)["title"].(bson.M)
	assert.Equal(t, "i", title["$options"])
	pattern := title["$regex"].(string)
	assert.Equal(t, `C\+\+ \(v2\)`, pattern)
	assert.Regexp(t, regexp.MustCompile("(?i)"+pattern), "modern c++ (V2) tooling")

	_, hasSummary := or[1].(bson.M)["summary"]
	assert.True(t, hasSummary)
}

func TestTechnologyFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, technologyFilter(""))

	f := technologyFilter("Solid.State")
	tech := f["technology"].(bson.M)
	assert.Equal(t, `^Solid\.State$`, tech["$regex"])
	assert.Equal(t, "i", tech["$options"])
}

func TestLatestPerTechnologyPipeline(t *testing.T) {
	p := latestPerTechnology()
	require.Len(t, p, 2)
	assert.Equal(t, "$sort", p[0][0].Key)
	assert.Equal(t, "$group", p[1][0].Key)
}

func TestUpsertModelsKeyedByID(t *testing.T) {
	models := upsertModels([]types.MarketReport{{ID: "R1"}, {ID: "R2"}}, "reportId",
		func(r types.MarketReport) string { return r.ID })
	require.Len(t, models, 2)

	m, ok := models[1].(*mongo.UpdateOneModel)
	require.True(t, ok)
	assert.Equal(t, bson.M{"reportId": "R2"}, m.Filter)
	require.NotNil(t, m.Upsert)
	assert.True(t, *m.Upsert)
}

func TestWithIDsLeavesCallerSliceAlone(t *testing.T) {
	in := []types.Patent{{ID: "P1", Title: "kept"}, {Title: "generated"}}

	out := withIDs(in, func(p *types.Patent) *string { return &p.ID })

	require.Len(t, out, 2)
	assert.Equal(t, "P1", out[0].ID)
	assert.NotEmpty(t, out[1].ID)
	assert.Equal(t, "generated", out[1].Title)
	assert.Empty(t, in[1].ID)
}

func TestNewMongoRequiresURI(t *testing.T) {
	_, err := NewMongo(context.Background(), types.StoreConfig{Driver: types.DriverMongo})
	assert.Error(t, err)
}

// TestMongoRoundTrip runs against a live server when TRL_ENGINE_TEST_MONGO_URI
// is set.
func TestMongoRoundTrip(t *testing.T) {
	uri := os.Getenv("TRL_ENGINE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TRL_ENGINE_TEST_MONGO_URI not set")
	}
	ctx := context.Background()

	db := "trl_test_" + time.Now().Format("20060102150405")
	m, err := NewMongo(ctx, types.StoreConfig{URI: uri, Database: db, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() {
		m.db.Drop(context.Background())
		m.Close()
	})

	_, err = m.UpsertPatents(ctx, []types.Patent{
		{ID: "P1", Title: "Hypersonic vehicle", Year: 2024},
		{ID: "P2", Title: "Battery", Year: 2024},
	})
	require.NoError(t, err)

	got, err := m.FindPatents(ctx, Match{Text: "HYPERSONIC", FromYear: 2020})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P1", got[0].ID)

	rec, err := m.Record(ctx, sampleAssessment("Hypersonic", 6))
	require.NoError(t, err)

	list, err := m.List(ctx, HistoryQuery{Technology: "hypersonic"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)

	dist, err := m.Distribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dist[2].Count)
}
