package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/repository"
)

const seedJSON = `{
  "categories": [
    {"id": 1, "name": "Bebidas", "image_url": "bebidas.jpg"},
    {"id": 2, "name": "Lanches", "image_url": "lanches.jpg"}
  ],
  "products": [
    {"id": 1, "name": "Coca-Cola", "description": "Refri", "price": 5.45, "image_url": "coca.jpg", "stock": 50, "registered_at": "2024-01-01T00:00:00Z", "category_id": 1}
  ],
  "users": [
    {"id": 4, "username": "admin", "email": "admin@example.com", "password_hash": "x", "roles": ["Admin"]}
  ]
}`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(seedJSON), 0o644))
	return path
}

func TestNew_LoadsSeedAndContinuesSequences(t *testing.T) {
	s, err := New(Options{SeedFile: writeSeed(t)})
	require.NoError(t, err)
	ctx := context.Background()

	cats := NewCategoryRepository(s)
	all, err := cats.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	c, err := cats.Create(ctx, model.Category{Name: "Sobremesas"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)

	users := NewUserRepository(s)
	u, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "x", u.PasswordHash)
	ok, err := users.RoleExists(ctx, "Admin")
	require.NoError(t, err)
	assert.True(t, ok, "roles referenced by seeded users are registered")

	nu, err := users.Create(ctx, model.User{Username: "new", Email: "new@example.com", PasswordHash: "y"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), nu.ID)
}

func TestNew_BadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := New(Options{SeedFile: path})
	require.Error(t, err)

	_, err = New(Options{SeedFile: filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)
}

func TestPersist_DataFileSurvivesRestart(t *testing.T) {
	seed := writeSeed(t)
	data := filepath.Join(t.TempDir(), "state", "catalog.json")
	ctx := context.Background()

	s, err := New(Options{SeedFile: seed, DataFile: data})
	require.NoError(t, err)
	_, err = NewCategoryRepository(s).Create(ctx, model.Category{Name: "Sobremesas"})
	require.NoError(t, err)

	u, err := NewUserRepository(s).GetByUsername(ctx, "admin")
	require.NoError(t, err)
	u.RefreshToken = "secret-refresh"
	_, err = NewUserRepository(s).Update(ctx, u)
	require.NoError(t, err)

	reopened, err := New(Options{SeedFile: seed, DataFile: data})
	require.NoError(t, err)
	all, err := NewCategoryRepository(reopened).List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3, "data file wins over the seed once it exists")

	again, err := NewUserRepository(reopened).GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "secret-refresh", again.RefreshToken)
	assert.Equal(t, "x", again.PasswordHash)

	entries, err := os.ReadDir(filepath.Dir(data))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestWithinTx_RollbackRestoresSnapshotAndSkipsPersist(t *testing.T) {
	data := filepath.Join(t.TempDir(), "catalog.json")
	s, err := New(Options{SeedFile: writeSeed(t), DataFile: data})
	require.NoError(t, err)
	ctx := context.Background()
	cats := NewCategoryRepository(s)
	prods := NewProductRepository(s)

	boom := errors.New("boom")
	err = NewTxManager(s).WithinTx(ctx, func(ctx context.Context) error {
		if _, err := cats.Create(ctx, model.Category{Name: "Temp"}); err != nil {
			return err
		}
		if _, err := prods.Delete(ctx, 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, _ := cats.List(ctx)
	assert.Len(t, all, 2)
	_, err = prods.GetByID(ctx, 1)
	require.NoError(t, err)
	_, err = os.Stat(data)
	assert.True(t, os.IsNotExist(err), "nothing is persisted for a rolled back unit")

	c, err := cats.Create(ctx, model.Category{Name: "After"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID, "sequence is restored too")
}

func TestPage_FilteredFromSeed(t *testing.T) {
	s, err := New(Options{SeedFile: writeSeed(t)})
	require.NoError(t, err)
	res, err := NewCategoryRepository(s).Page(context.Background(), repository.CategoryQuery{
		Name: "lan",
		Page: pagination.NewRequest(1, 10),
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Lanches", res.Items[0].Name)
	assert.Equal(t, 1, res.Metadata.TotalCount)
}

func TestConcurrentWrites(t *testing.T) {
	s := newStore(t)
	cats := NewCategoryRepository(s)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cats.Create(ctx, model.Category{Name: "C"})
		}()
	}
	wg.Wait()

	all, err := cats.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 50)
	seen := map[int64]bool{}
	for _, c := range all {
		assert.False(t, seen[c.ID], "ids are unique")
		seen[c.ID] = true
	}
}
