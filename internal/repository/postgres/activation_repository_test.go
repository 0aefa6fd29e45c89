package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/NikSneMC/prod-2025-promo-api/internal/model"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
)

func TestActivateCommonIsIdempotentPerUser(t *testing.T) {
	pool := startPostgresForTest(t)
	ctx := context.Background()

	promo := seedCommonPromo(t, pool, 10)
	user := seedUser(t, pool, "repeat@example.com")
	repo := NewActivationRepository(pool)

	first, err := repo.ActivateCommon(ctx, user.ID, promo.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("first activation: %v", err)
	}
	second, err := repo.ActivateCommon(ctx, user.ID, promo.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("second activation: %v", err)
	}
	if first != second {
		t.Fatalf("repeat activation must return the same code: %q vs %q", first, second)
	}

	if used := promoUsedCount(t, pool, promo.ID); used != 1 {
		t.Fatalf("expected used_count 1 after repeat activation, got %d", used)
	}
}

func TestActivateCommonNeverOversellsUnderConcurrency(t *testing.T) {
	pool := startPostgresForTest(t)
	ctx := context.Background()

	const capacity = 3
	const contenders = 10

	promo := seedCommonPromo(t, pool, capacity)
	repo := NewActivationRepository(pool)

	users := make([]*model.User, contenders)
	for i := range users {
		users[i] = seedUser(t, pool, fmt.Sprintf("common%d@example.com", i))
	}

	var wg sync.WaitGroup
	errCh := make(chan error, contenders)
	for _, user := range users {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			_, err := repo.ActivateCommon(ctx, userID, promo.ID, time.Now().UTC())
			errCh <- err
		}(user.ID)
	}
	wg.Wait()
	close(errCh)

	issued, exhausted := 0, 0
	for err := range errCh {
		switch {
		case err == nil:
			issued++
		case errors.Is(err, ErrCapacityExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected activation error: %v", err)
		}
	}

	if issued != capacity {
		t.Fatalf("expected exactly %d issued codes, got %d", capacity, issued)
	}
	if exhausted != contenders-capacity {
		t.Fatalf("expected %d exhausted contenders, got %d", contenders-capacity, exhausted)
	}
	if used := promoUsedCount(t, pool, promo.ID); used != capacity {
		t.Fatalf("expected used_count %d, got %d", capacity, used)
	}
	if promoIsActive(t, pool, promo.ID) {
		t.Fatal("promo must flip inactive once capacity is gone")
	}
}

func TestActivateUniqueClaimsEachCodeOnce(t *testing.T) {
	pool := startPostgresForTest(t)
	ctx := context.Background()

	codes := []string{"UNQ-1", "UNQ-2", "UNQ-3", "UNQ-4", "UNQ-5"}
	const contenders = 8

	promo := seedUniquePromo(t, pool, codes)
	repo := NewActivationRepository(pool)

	users := make([]*model.User, contenders)
	for i := range users {
		users[i] = seedUser(t, pool, fmt.Sprintf("unique%d@example.com", i))
	}

	var wg sync.WaitGroup
	type result struct {
		code string
		err  error
	}
	resCh := make(chan result, contenders)
	for _, user := range users {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			code, err := repo.ActivateUnique(ctx, userID, promo.ID, time.Now().UTC())
			resCh <- result{code: code, err: err}
		}(user.ID)
	}
	wg.Wait()
	close(resCh)

	seen := map[string]int{}
	exhausted := 0
	for res := range resCh {
		switch {
		case res.err == nil:
			seen[res.code]++
		case errors.Is(res.err, ErrCapacityExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected activation error: %v", res.err)
		}
	}

	if len(seen) != len(codes) {
		t.Fatalf("expected all %d pool codes claimed, got %d", len(codes), len(seen))
	}
	for code, count := range seen {
		if count != 1 {
			t.Fatalf("code %q issued %d times", code, count)
		}
	}
	if exhausted != contenders-len(codes) {
		t.Fatalf("expected %d exhausted contenders, got %d", contenders-len(codes), exhausted)
	}
}

func TestActivateUniqueRepeatReturnsBoundCode(t *testing.T) {
	pool := startPostgresForTest(t)
	ctx := context.Background()

	promo := seedUniquePromo(t, pool, []string{"ONLY-1", "ONLY-2"})
	user := seedUser(t, pool, "bound@example.com")
	repo := NewActivationRepository(pool)

	first, err := repo.ActivateUnique(ctx, user.ID, promo.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("first activation: %v", err)
	}
	second, err := repo.ActivateUnique(ctx, user.ID, promo.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("second activation: %v", err)
	}
	if first != second {
		t.Fatalf("repeat activation must return the bound code: %q vs %q", first, second)
	}
	if used := promoUsedCount(t, pool, promo.ID); used != 1 {
		t.Fatalf("expected used_count 1, got %d", used)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	pool := startPostgresForTest(t)
	ctx := context.Background()

	user := seedUser(t, pool, "history@example.com")
	repo := NewActivationRepository(pool)

	older := seedCommonPromo(t, pool, 5)
	newer := seedCommonPromo(t, pool, 5)

	base := time.Now().UTC().Add(-time.Hour)
	if _, err := repo.ActivateCommon(ctx, user.ID, older.ID, base); err != nil {
		t.Fatalf("activate older: %v", err)
	}
	if _, err := repo.ActivateCommon(ctx, user.ID, newer.ID, base.Add(time.Minute)); err != nil {
		t.Fatalf("activate newer: %v", err)
	}

	promos, total, err := repo.History(ctx, user.ID, repository.Pagination{Limit: 10})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if total != 2 || len(promos) != 2 {
		t.Fatalf("expected 2 history entries, got total=%d len=%d", total, len(promos))
	}
	if promos[0].ID != newer.ID || promos[1].ID != older.ID {
		t.Fatalf("history must be newest first: got %s, %s", promos[0].ID, promos[1].ID)
	}
}

// --- fixtures ---

func seedUser(t *testing.T, pool *pgxpool.Pool, email string) *model.User {
	t.Helper()

	user := &model.User{
		Name:         "Test",
		Surname:      "User",
		Email:        email,
		Age:          30,
		Country:      "fr",
		PasswordHash: "hash",
	}
	if err := NewUserRepository(pool).Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedCompany(t *testing.T, pool *pgxpool.Pool) *model.Company {
	t.Helper()

	company := &model.Company{
		Name:         "Acme Deals",
		Email:        fmt.Sprintf("company-%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
	}
	if err := NewCompanyRepository(pool).Create(context.Background(), company); err != nil {
		t.Fatalf("seed company: %v", err)
	}
	return company
}

func seedCommonPromo(t *testing.T, pool *pgxpool.Pool, maxCount int) *model.Promo {
	t.Helper()

	code := "SAVE10"
	promo := &model.Promo{
		CompanyID:   seedCompany(t, pool).ID,
		Description: "ten percent off everything",
		MaxCount:    maxCount,
		Mode:        model.PromoModeCommon,
		PromoCommon: &code,
		Active:      true,
	}
	if err := NewPromoRepository(pool).Create(context.Background(), promo); err != nil {
		t.Fatalf("seed common promo: %v", err)
	}
	return promo
}

func seedUniquePromo(t *testing.T, pool *pgxpool.Pool, codes []string) *model.Promo {
	t.Helper()

	promo := &model.Promo{
		CompanyID:   seedCompany(t, pool).ID,
		Description: "one-off codes for early birds",
		MaxCount:    len(codes),
		Mode:        model.PromoModeUnique,
		PromoUnique: codes,
		Active:      true,
	}
	if err := NewPromoRepository(pool).Create(context.Background(), promo); err != nil {
		t.Fatalf("seed unique promo: %v", err)
	}
	return promo
}

func promoUsedCount(t *testing.T, pool *pgxpool.Pool, promoID uuid.UUID) int {
	t.Helper()

	var used int
	if err := pool.QueryRow(context.Background(), `SELECT used_count FROM promos WHERE id = $1`, promoID).Scan(&used); err != nil {
		t.Fatalf("read used_count: %v", err)
	}
	return used
}

func promoIsActive(t *testing.T, pool *pgxpool.Pool, promoID uuid.UUID) bool {
	t.Helper()

	var active bool
	if err := pool.QueryRow(context.Background(), `SELECT active FROM promos WHERE id = $1`, promoID).Scan(&active); err != nil {
		t.Fatalf("read active: %v", err)
	}
	return active
}

// --- container harness ---

func startPostgresForTest(t *testing.T) *pgxpool.Pool {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "promo_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("skipping test because docker/testcontainers is unavailable: %v", err)
	}

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/promo_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	deadline := time.Now().Add(30 * time.Second)
	for {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("postgres did not become ready: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}

	applyAllMigrations(t, ctx, pool)
	return pool
}

func applyAllMigrations(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()

	migrationsDir := filepath.Join(findRepoRoot(t), "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		raw, err := os.ReadFile(filepath.Join(migrationsDir, file))
		if err != nil {
			t.Fatalf("read migration %s: %v", file, err)
		}
		if strings.TrimSpace(string(raw)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(raw)); err != nil {
			t.Fatalf("apply migration %s: %v", file, err)
		}
	}
}

func findRepoRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not locate repository root")
		}
		dir = parent
	}
}
