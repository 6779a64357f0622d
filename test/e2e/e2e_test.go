//go:build e2e

// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coach-matching/internal/catalog"
	"coach-matching/internal/common/config"
	"coach-matching/internal/common/database"
	"coach-matching/internal/common/logger"
	"coach-matching/internal/common/validation"
	"coach-matching/internal/geography"
	"coach-matching/internal/matching"
	"coach-matching/internal/models"
	"coach-matching/pkg/registry"

	rpc "coach-matching/internal/workers/catalog/refresh-provider-catalog"
	mp "coach-matching/internal/workers/matching/match-providers"
)

const e2eTable = "e2e_providers"

var zeebeClient zbc.Client

func TestMain(m *testing.M) {
	var err error

	gateway := os.Getenv("ZEEBE_ADDRESS")
	if gateway == "" {
		gateway = "localhost:26500"
	}
	zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         gateway,
		UsePlaintextConnection: true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect to Zeebe: %v", err))
	}

	code := m.Run()

	zeebeClient.Close()
	os.Exit(code)
}

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)

	// force local services
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	return cfg
}

func TestFullE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := loadConfig(t)
	log := logger.NewTestLogger(t)

	// 1. Connectivity
	_, err := zeebeClient.NewTopologyCommand().Send(ctx)
	require.NoError(t, err, "zeebe topology request failed")

	pg, err := database.NewPostgres(ctx, cfg.Database.Postgres)
	require.NoError(t, err, "postgres connection failed")
	defer pg.Close()

	rdb := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, rdb.Ping(ctx), "redis ping failed")
	defer rdb.Close()

	// 2. Catalog table
	seedProviders(t, pg.DB)

	// 3. Sources and cache
	regions := geography.Default()
	loader := catalog.NewLoader(regions, log)
	src, err := catalog.NewPostgresSource(pg.DB, e2eTable, loader)
	require.NoError(t, err)

	shared := catalog.NewRedisCache(rdb.Client, "e2e:catalog:providers", time.Minute)
	require.NoError(t, shared.Delete(ctx))
	cached := catalog.NewCachedSource(src, time.Minute, shared, log)

	cat, err := cached.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, cat.Stats.Rows)
	assert.Equal(t, 2, cat.Stats.Loaded)

	fromRedis, err := shared.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, fromRedis)
	assert.Equal(t, cat.Providers, fromRedis.Providers)

	// 4. Workers
	reg, err := registry.LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)
	validator, err := validation.NewSchemaValidator(reg)
	require.NoError(t, err)

	t.Run("match-providers", func(t *testing.T) {
		h := mp.NewHandler(mp.LoadConfig(), cached, matching.NewEngine(regions), validator, nil, log)
		output, err := h.Execute(ctx, &mp.Input{
			RequestID: "e2e",
			Preferences: models.PatientPreferences{
				AreaOfConcern:   []string{"Anxiety"},
				Location:        "NJ",
				TherapistGender: models.NoPreference,
				PaymentMethod:   "Aetna",
			},
		})
		require.NoError(t, err)
		require.Len(t, output.Matches, 2)
		assert.Equal(t, "Maya Chen", output.Matches[0].Name)
		assert.Equal(t, 1, output.Matches[0].Breakdown.Location)
	})

	t.Run("refresh-provider-catalog", func(t *testing.T) {
		h := rpc.NewHandler(rpc.LoadConfig(), cached, nil, log)
		output, err := h.Execute(ctx, &rpc.Input{Reason: "e2e"})
		require.NoError(t, err)
		assert.Equal(t, 2, output.Loaded)
		assert.Equal(t, 2, output.Dropped)
	})
}

func seedProviders(t *testing.T, db *sql.DB) {
	t.Helper()

	queries := []string{
		`DROP TABLE IF EXISTS ` + e2eTable,
		`CREATE TABLE ` + e2eTable + ` (
			id SERIAL PRIMARY KEY,
			first_name TEXT,
			last_name TEXT,
			areas_of_specialization TEXT,
			treatment_modality TEXT,
			location TEXT,
			gender_identity TEXT,
			ethnic_identity TEXT,
			religious_background TEXT,
			clients_able_to_take_on TEXT,
			language TEXT,
			bio TEXT,
			sexual_orientation TEXT,
			available_times TEXT,
			payment_methods TEXT
		)`,
		`INSERT INTO ` + e2eTable + ` (first_name, last_name, areas_of_specialization, location, gender_identity, clients_able_to_take_on, payment_methods)
		VALUES
			('Maya', 'Chen', 'Anxiety, Depression', 'NY', 'Female', '4', 'Aetna'),
			('Daniel', 'Okafor', 'Grief', 'CA', 'Male', '2', 'Cigna'),
			('Lucia', 'Ramirez', 'Anxiety', 'NJ', 'Female', '0', 'Aetna'),
			(NULL, 'Morgan', 'Anxiety', 'NJ', NULL, '3', 'Aetna')`,
	}
	for _, q := range queries {
		_, err := db.Exec(q)
		require.NoError(t, err, q)
	}
	t.Cleanup(func() { db.Exec(`DROP TABLE IF EXISTS ` + e2eTable) })
}

func BenchmarkEngine_Match(b *testing.B) {
	engine := matching.NewEngine(geography.Default())
	providers := make([]models.Provider, 0, 500)
	for i := 0; i < 500; i++ {
		providers = append(providers, models.Provider{
			Name:           fmt.Sprintf("Provider %d", i),
			Specialties:    []string{"Anxiety", "Depression", "Grief"},
			Modalities:     []string{"CBT"},
			Location:       []string{"New York"},
			Availability:   i%4 + 1,
			Languages:      []string{"English"},
			AvailableTimes: []string{"Weekday Mornings"},
			PaymentMethods: []string{"Aetna"},
		})
	}
	prefs := models.PatientPreferences{
		AreaOfConcern: []string{"anxiety"},
		Location:      "NJ",
		PaymentMethod: "Aetna",
		Availability:  []string{"weekday mornings"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Match(prefs, providers)
	}
}
