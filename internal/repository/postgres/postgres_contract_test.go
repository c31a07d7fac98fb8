package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/repository"
	"github.com/maxviazov/catalog-service/internal/repository/contract"
)

var (
	db     *sql.DB
	pool   *pgxpool.Pool
	skippy bool
)

func TestMain(m *testing.M) {
	if os.Getenv("CONTRACT_TESTS") != "1" {
		skippy = true
		os.Exit(m.Run())
	}

	dsn := buildDSNFromEnv()
	if dsn == "" {
		fmt.Println("[contract] DATABASE_URL or APP_POSTGRES_* env not set; skipping")
		skippy = true
		os.Exit(m.Run())
	}

	var err error
	db, err = sql.Open("pgx", dsn)
	if err != nil {
		fmt.Println("[contract] sql open error:", err)
		os.Exit(1)
	}
	if err := db.Ping(); err != nil {
		fmt.Println("[contract] db ping error:", err)
		os.Exit(1)
	}

	goose.SetBaseFS(repository.Migrations())
	if err := goose.SetDialect("postgres"); err != nil {
		fmt.Println("[contract] goose dialect error:", err)
		os.Exit(1)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		fmt.Println("[contract] goose up error:", err)
		os.Exit(1)
	}

	pool, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		fmt.Println("[contract] pgxpool new error:", err)
		os.Exit(1)
	}

	code := m.Run()
	pool.Close()
	db.Close()
	os.Exit(code)
}

func skipIfNeeded(t *testing.T) {
	if skippy {
		t.Skip("contract tests skipped; set CONTRACT_TESTS=1 and provide DB env")
	}
}

func buildDSNFromEnv() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	user := firstNonEmpty(os.Getenv("APP_POSTGRES_USER"), os.Getenv("POSTGRES_USER"))
	pass := firstNonEmpty(os.Getenv("APP_POSTGRES_PASSWORD"), os.Getenv("POSTGRES_PASSWORD"))
	host := firstNonEmpty(os.Getenv("APP_POSTGRES_HOST"), os.Getenv("POSTGRES_HOST"), "localhost")
	port := firstNonEmpty(os.Getenv("APP_POSTGRES_PORT"), os.Getenv("POSTGRES_PORT"), "5432")
	name := firstNonEmpty(os.Getenv("APP_POSTGRES_DB"), os.Getenv("POSTGRES_DB"))
	ssl := firstNonEmpty(os.Getenv("APP_POSTGRES_SSLMODE"), "disable")
	if user == "" || pass == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, name, ssl)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateAll(t *testing.T) {
	t.Helper()
	stmts := []string{
		"TRUNCATE TABLE user_roles, users, roles RESTART IDENTITY CASCADE",
		"TRUNCATE TABLE products, categories RESTART IDENTITY CASCADE",
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("truncate failed: %v", err)
		}
	}
}

func fresh(t *testing.T) func() {
	skipIfNeeded(t)
	truncateAll(t)
	return func() { truncateAll(t) }
}

func TestCategoryRepository_PostgresContract(t *testing.T) {
	contract.RunCategoryRepositoryContract(t, func(t *testing.T) (repository.CategoryRepository, func()) {
		cleanup := fresh(t)
		return NewCategoryRepository(pool), cleanup
	})
}

func TestProductRepository_PostgresContract(t *testing.T) {
	contract.RunProductRepositoryContract(t, func(t *testing.T) (repository.ProductRepository, repository.CategoryRepository, func()) {
		cleanup := fresh(t)
		return NewProductRepository(pool), NewCategoryRepository(pool), cleanup
	})
}

func TestUserRepository_PostgresContract(t *testing.T) {
	contract.RunUserRepositoryContract(t, func(t *testing.T) (repository.UserRepository, func()) {
		cleanup := fresh(t)
		return NewUserRepository(pool), cleanup
	})
}

func TestTxManager_PostgresContract(t *testing.T) {
	contract.RunTxManagerContract(t, func(t *testing.T) (repository.TxManager, repository.CategoryRepository, func()) {
		cleanup := fresh(t)
		return NewTxManager(pool), NewCategoryRepository(pool), cleanup
	})
}

func TestPinger_PostgresContract(t *testing.T) {
	contract.RunPingerContract(t, func(t *testing.T) (repository.Pinger, func()) {
		skipIfNeeded(t)
		return NewPinger(pool), func() {}
	})
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"beb":   "beb",
		"100%":  `100\%`,
		"a_b":   `a\_b`,
		`c:\x`:  `c:\\x`,
		"":      "",
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Fatalf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPgSource_WindowBounds(t *testing.T) {
	src := pgSource[int]{}
	got, err := src.Window(context.Background(), 0, 0)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("zero limit: expected empty page without a query, got %v %v", got, err)
	}

	skipIfNeeded(t)
	t.Cleanup(fresh(t))
	repo := NewCategoryRepository(pool)
	ctx := context.Background()
	for _, name := range []string{"Bebidas", "Lanches"} {
		if _, err := repo.Create(ctx, model.Category{Name: name}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	cats := pgSource[model.Category]{pool: pool, columns: categoryColumns, from: "categories", orderBy: "id", scan: scanCategory}
	items, err := cats.Window(ctx, -20, 10)
	if err != nil {
		t.Fatalf("negative offset: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Bebidas" {
		t.Fatalf("negative offset should start at the top, got %+v", items)
	}
}
