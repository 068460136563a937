package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"star-burger/internal/config"
	"star-burger/internal/database"
	"star-burger/internal/model"
	"star-burger/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
}

// SetupTestDB creates a PostgreSQL test container, connects through
// database.NewPool and applies the schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	pool, err := database.NewPool(ctx, dbConfig, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := repository.CreateSchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
	}
}

// Addresses used by the seed data. FakeGeocoder knows all but AddressNowhere.
const (
	AddressTverskaya = "Moscow, Tverskaya 1"
	AddressArbat     = "Moscow, Arbat 10"
	AddressLenina    = "Moscow, Lenina 5"
	AddressNowhere   = "Nowhere, 0"
)

// KnownCoordinates is what FakeGeocoder answers with.
var KnownCoordinates = map[string]model.Coordinates{
	AddressTverskaya: {Lon: 37.6173, Lat: 55.7558},
	AddressArbat:     {Lon: 37.6173, Lat: 55.7559},
	AddressLenina:    {Lon: 37.6373, Lat: 55.7558},
}

// SeedCatalogue inserts three products and three restaurants. Restaurants 1
// and 2 cook every product; restaurant 3 is out of product 3.
func SeedCatalogue(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	statements := []string{
		`INSERT INTO products (id, name, price) VALUES
			(1, 'Cheeseburger', 250.00),
			(2, 'Fries', 120.50),
			(3, 'Milkshake', 180.00)`,
		`INSERT INTO restaurants (id, name, address, contact_phone) VALUES
			(1, 'Star Burger Tverskaya', 'Moscow, Tverskaya 1', '+74950000001'),
			(2, 'Star Burger Lenina', 'Moscow, Lenina 5', '+74950000002'),
			(3, 'Star Burger Arbat', 'Moscow, Arbat 10', '+74950000003')`,
		`INSERT INTO restaurant_menu_items (restaurant_id, product_id, availability) VALUES
			(1, 1, true), (1, 2, true), (1, 3, true),
			(2, 1, true), (2, 2, true), (2, 3, true),
			(3, 1, true), (3, 2, true), (3, 3, false)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("failed to seed catalogue: %v", err)
		}
	}
}

// FakeGeocoder serves Yandex-shaped responses for KnownCoordinates and
// counts requests.
type FakeGeocoder struct {
	Server *httptest.Server
	calls  atomic.Int64
}

// NewFakeGeocoder starts a fake geocoder that is closed with the test.
func NewFakeGeocoder(t *testing.T) *FakeGeocoder {
	t.Helper()

	f := &FakeGeocoder{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)

		w.Header().Set("Content-Type", "application/json")
		coords, ok := KnownCoordinates[r.URL.Query().Get("geocode")]
		if !ok {
			fmt.Fprint(w, `{"response":{"GeoObjectCollection":{"featureMember":[]}}}`)
			return
		}
		fmt.Fprintf(w, `{"response":{"GeoObjectCollection":{"featureMember":[{"GeoObject":{"Point":{"pos":"%s"}}}]}}}`, coords)
	}))
	t.Cleanup(f.Server.Close)

	return f
}

// Calls returns how many requests the fake has served.
func (f *FakeGeocoder) Calls() int64 {
	return f.calls.Load()
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "restaurant_menu_items", "restaurants", "products", "addresses"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
