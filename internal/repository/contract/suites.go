// Package contract holds behaviour suites every storage driver must pass.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/maxviazov/catalog-service/internal/filter"
	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/repository"
)

type CategoryFactory func(t *testing.T) (repository.CategoryRepository, func())

type ProductFactory func(t *testing.T) (repo repository.ProductRepository, categories repository.CategoryRepository, cleanup func())

type UserFactory func(t *testing.T) (repository.UserRepository, func())

type TxFactory func(t *testing.T) (tx repository.TxManager, categories repository.CategoryRepository, cleanup func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

func RunCategoryRepositoryContract(t *testing.T, makeRepo CategoryFactory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, model.Category{Name: "Bebidas", ImageURL: "bebidas.jpg"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID <= 0 {
			t.Fatalf("expected generated id, got %d", created.ID)
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got != created {
			t.Fatalf("mismatch: %+v != %+v", got, created)
		}
		ok, err := repo.Exists(ctx, created.ID)
		if err != nil || !ok {
			t.Fatalf("expected exists, got %v %v", ok, err)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		if _, err := repo.GetByID(context.Background(), 999999); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		ok, err := repo.Exists(context.Background(), 999999)
		if err != nil || ok {
			t.Fatalf("expected missing, got %v %v", ok, err)
		}
	})

	t.Run("update", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		c, _ := repo.Create(ctx, model.Category{Name: "Lanches"})
		c.Name = "Sobremesas"
		updated, err := repo.Update(ctx, c)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Name != "Sobremesas" {
			t.Fatalf("update not applied: %+v", updated)
		}
		if _, err := repo.Update(ctx, model.Category{ID: 999999, Name: "Ghost"}); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete_returns_entity", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		c, _ := repo.Create(ctx, model.Category{Name: "Temporaria"})
		deleted, err := repo.Delete(ctx, c.ID)
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		if deleted != c {
			t.Fatalf("deleted entity mismatch: %+v", deleted)
		}
		if _, err := repo.GetByID(ctx, c.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if _, err := repo.Delete(ctx, c.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("page_pagination_total", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var ids []int64
		for i := 0; i < 7; i++ {
			c, err := repo.Create(ctx, model.Category{Name: fmt.Sprintf("C-%c", 'A'+i)})
			if err != nil {
				t.Fatalf("seed: %v", err)
			}
			ids = append(ids, c.ID)
		}
		res, err := repo.Page(ctx, repository.CategoryQuery{Page: pagination.NewRequest(1, 3)})
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		if len(res.Items) != 3 || res.Metadata.TotalCount != 7 || res.Metadata.TotalPages != 3 {
			t.Fatalf("unexpected page: len=%d meta=%+v", len(res.Items), res.Metadata)
		}
		if res.Items[0].ID != ids[0] || res.Items[2].ID != ids[2] {
			t.Fatalf("expected id order, got %+v", res.Items)
		}
		last, err := repo.Page(ctx, repository.CategoryQuery{Page: pagination.NewRequest(3, 3)})
		if err != nil {
			t.Fatalf("last page: %v", err)
		}
		if len(last.Items) != 1 || last.Items[0].ID != ids[6] || last.Metadata.HasNext || !last.Metadata.HasPrevious {
			t.Fatalf("unexpected last page: %+v", last)
		}
		beyond, err := repo.Page(ctx, repository.CategoryQuery{Page: pagination.NewRequest(9, 3)})
		if err != nil {
			t.Fatalf("beyond page: %v", err)
		}
		if beyond.Items == nil || len(beyond.Items) != 0 || beyond.Metadata.TotalCount != 7 {
			t.Fatalf("expected empty non-nil page, got %+v", beyond)
		}
	})

	t.Run("page_huge_number_is_empty", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			if _, err := repo.Create(ctx, model.Category{Name: fmt.Sprintf("C-%d", i)}); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		for _, page := range []int{184467440737095518, math.MaxInt} {
			res, err := repo.Page(ctx, repository.CategoryQuery{Page: pagination.NewRequest(page, 50)})
			if err != nil {
				t.Fatalf("page %d: %v", page, err)
			}
			if res.Items == nil || len(res.Items) != 0 || res.Metadata.TotalCount != 3 || res.Metadata.HasNext || res.Metadata.CurrentPage != page {
				t.Fatalf("page %d: expected empty page, got %+v", page, res)
			}
		}
	})

	t.Run("page_by_name_case_insensitive", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for _, n := range []string{"Bebidas", "Lanches", "Bebidas quentes", "Sobremesas"} {
			if _, err := repo.Create(ctx, model.Category{Name: n}); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		res, err := repo.Page(ctx, repository.CategoryQuery{Name: "BEB", Page: pagination.NewRequest(1, 10)})
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		if res.Metadata.TotalCount != 2 || len(res.Items) != 2 {
			t.Fatalf("expected 2 matches, got %+v", res)
		}
		if res.Items[0].Name != "Bebidas" || res.Items[1].Name != "Bebidas quentes" {
			t.Fatalf("unexpected order: %+v", res.Items)
		}
		none, err := repo.Page(ctx, repository.CategoryQuery{Name: "100%", Page: pagination.NewRequest(1, 10)})
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		if none.Metadata.TotalCount != 0 || len(none.Items) != 0 {
			t.Fatalf("wildcards must match literally, got %+v", none)
		}
	})

	t.Run("list_ordered", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a, _ := repo.Create(ctx, model.Category{Name: "Zeta"})
		b, _ := repo.Create(ctx, model.Category{Name: "Alfa"})
		all, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 2 || all[0].ID != a.ID || all[1].ID != b.ID {
			t.Fatalf("unexpected list: %+v", all)
		}
	})
}

func RunProductRepositoryContract(t *testing.T, makeRepo ProductFactory) {
	t.Helper()

	registered := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	seed := func(t *testing.T, repo repository.ProductRepository, categoryID int64, prices ...float64) []model.Product {
		t.Helper()
		var out []model.Product
		for i, price := range prices {
			p, err := repo.Create(context.Background(), model.Product{
				Name:         fmt.Sprintf("Produto %d", i),
				Description:  "desc",
				Price:        price,
				ImageURL:     "produto.jpg",
				Stock:        10,
				RegisteredAt: registered,
				CategoryID:   categoryID,
			})
			if err != nil {
				t.Fatalf("seed product: %v", err)
			}
			out = append(out, p)
		}
		return out
	}

	t.Run("create_and_get", func(t *testing.T) {
		repo, categories, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		c, _ := categories.Create(ctx, model.Category{Name: "Bebidas"})
		created := seed(t, repo, c.ID, 5.45)[0]
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Name != created.Name || got.Price != 5.45 || got.CategoryID != c.ID || !got.RegisteredAt.Equal(registered) {
			t.Fatalf("mismatch: %+v", got)
		}
	})

	t.Run("create_requires_category", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.Create(context.Background(), model.Product{Name: "Orfao", Price: 1, CategoryID: 999999})
		if !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("category_with_products_cannot_be_deleted", func(t *testing.T) {
		repo, categories, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		c, _ := categories.Create(ctx, model.Category{Name: "Lanches"})
		seed(t, repo, c.ID, 10)
		if _, err := categories.Delete(ctx, c.ID); !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("categories_with_products", func(t *testing.T) {
		repo, categories, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		bebidas, _ := categories.Create(ctx, model.Category{Name: "Bebidas"})
		vazia, _ := categories.Create(ctx, model.Category{Name: "Vazia"})
		lanches, _ := categories.Create(ctx, model.Category{Name: "Lanches"})
		b := seed(t, repo, bebidas.ID, 5, 7)
		l := seed(t, repo, lanches.ID, 12)

		out, err := categories.ListWithProducts(ctx)
		if err != nil {
			t.Fatalf("list with products: %v", err)
		}
		if len(out) != 3 || out[0].ID != bebidas.ID || out[1].ID != vazia.ID || out[2].ID != lanches.ID {
			t.Fatalf("unexpected categories: %+v", out)
		}
		if len(out[0].Products) != 2 || out[0].Products[0].ID != b[0].ID || out[0].Products[1].ID != b[1].ID {
			t.Fatalf("unexpected products for %s: %+v", bebidas.Name, out[0].Products)
		}
		if out[1].Products == nil || len(out[1].Products) != 0 {
			t.Fatalf("expected empty, non-nil products, got %#v", out[1].Products)
		}
		if len(out[2].Products) != 1 || out[2].Products[0].ID != l[0].ID || out[2].Products[0].CategoryID != lanches.ID {
			t.Fatalf("unexpected products for %s: %+v", lanches.Name, out[2].Products)
		}
	})

	t.Run("update_and_delete", func(t *testing.T) {
		repo, categories, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		c, _ := categories.Create(ctx, model.Category{Name: "Lanches"})
		p := seed(t, repo, c.ID, 10)[0]
		p.Stock = 3
		p.Price = 12.5
		updated, err := repo.Update(ctx, p)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Stock != 3 || updated.Price != 12.5 {
			t.Fatalf("update not applied: %+v", updated)
		}
		deleted, err := repo.Delete(ctx, p.ID)
		if err != nil || deleted.ID != p.ID {
			t.Fatalf("delete: %+v %v", deleted, err)
		}
		if _, err := repo.Delete(ctx, p.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := repo.Update(ctx, p); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("page_unfiltered_by_id", func(t *testing.T) {
		repo, categories, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		c, _ := categories.Create(ctx, model.Category{Name: "Bebidas"})
		ps := seed(t, repo, c.ID, 30, 10, 20, 40, 50)
		res, err := repo.Page(ctx, repository.ProductQuery{Page: pagination.NewRequest(2, 2)})
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		if res.Metadata.TotalCount != 5 || len(res.Items) != 2 || res.Items[0].ID != ps[2].ID || res.Items[1].ID != ps[3].ID {
			t.Fatalf("unexpected page: %+v", res)
		}
	})

	t.Run("page_by_price", func(t *testing.T) {
		repo, categories, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		c, _ := categories.Create(ctx, model.Category{Name: "Bebidas"})
		seed(t, repo, c.ID, 30, 10, 20, 40, 20, 50)

		price := 20.0
		cases := []struct {
			cmp    filter.Comparison
			prices []float64
		}{
			{filter.Greater, []float64{30, 40, 50}},
			{filter.Less, []float64{10}},
			{filter.Equal, []float64{20, 20}},
			{filter.None, []float64{30, 10, 20, 40, 20, 50}},
		}
		for _, tc := range cases {
			res, err := repo.Page(ctx, repository.ProductQuery{Price: &price, Comparison: tc.cmp, Page: pagination.NewRequest(1, 10)})
			if err != nil {
				t.Fatalf("%s: %v", tc.cmp, err)
			}
			if res.Metadata.TotalCount != len(tc.prices) || len(res.Items) != len(tc.prices) {
				t.Fatalf("%s: expected %d items, got %+v", tc.cmp, len(tc.prices), res.Metadata)
			}
			for i, p := range res.Items {
				if p.Price != tc.prices[i] {
					t.Fatalf("%s: position %d has price %v, want %v", tc.cmp, i, p.Price, tc.prices[i])
				}
			}
		}

		eq, _ := repo.Page(ctx, repository.ProductQuery{Price: &price, Comparison: filter.Equal, Page: pagination.NewRequest(1, 10)})
		if len(eq.Items) == 2 && eq.Items[0].ID >= eq.Items[1].ID {
			t.Fatalf("equal prices must be ordered by id: %+v", eq.Items)
		}
	})
}

func RunUserRepositoryContract(t *testing.T, makeRepo UserFactory) {
	t.Helper()

	t.Run("create_and_lookup", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if err := repo.CreateRole(ctx, "User"); err != nil {
			t.Fatalf("create role: %v", err)
		}
		u, err := repo.Create(ctx, model.User{Username: "ana", Email: "ana@example.com", PasswordHash: "h", Roles: []string{"User"}})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		byName, err := repo.GetByUsername(ctx, "ANA")
		if err != nil || byName.ID != u.ID || byName.PasswordHash != "h" || !byName.HasRole("User") {
			t.Fatalf("by username: %+v %v", byName, err)
		}
		byEmail, err := repo.GetByEmail(ctx, "Ana@Example.com")
		if err != nil || byEmail.ID != u.ID {
			t.Fatalf("by email: %+v %v", byEmail, err)
		}
		if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("duplicate_rejected", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := repo.Create(ctx, model.User{Username: "bob", Email: "bob@example.com", PasswordHash: "h"}); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := repo.Create(ctx, model.User{Username: "BOB", Email: "other@example.com", PasswordHash: "h"}); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists for username, got %v", err)
		}
		if _, err := repo.Create(ctx, model.User{Username: "robert", Email: "bob@example.com", PasswordHash: "h"}); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists for email, got %v", err)
		}
	})

	t.Run("roles", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		ok, err := repo.RoleExists(ctx, "Admin")
		if err != nil || ok {
			t.Fatalf("expected no role, got %v %v", ok, err)
		}
		if err := repo.CreateRole(ctx, "Admin"); err != nil {
			t.Fatalf("create role: %v", err)
		}
		if err := repo.CreateRole(ctx, "Admin"); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		ok, _ = repo.RoleExists(ctx, "Admin")
		if !ok {
			t.Fatalf("expected role to exist")
		}
		if _, err := repo.Create(ctx, model.User{Username: "eve", Email: "eve@example.com", PasswordHash: "h", Roles: []string{"Ghost"}}); !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict for unknown role, got %v", err)
		}
	})

	t.Run("update_roles_and_refresh_token", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		_ = repo.CreateRole(ctx, "Admin")
		_ = repo.CreateRole(ctx, "User")
		u, err := repo.Create(ctx, model.User{Username: "joao", Email: "joao@example.com", PasswordHash: "h", Roles: []string{"User"}})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		u.Roles = append(u.Roles, "Admin")
		u.RefreshToken = "rt"
		u.RefreshTokenExpiresAt = expires
		updated, err := repo.Update(ctx, u)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !updated.HasRole("Admin") || !updated.HasRole("User") || updated.RefreshToken != "rt" || !updated.RefreshTokenExpiresAt.Equal(expires) {
			t.Fatalf("update not applied: %+v", updated)
		}
		got, _ := repo.GetByUsername(ctx, "joao")
		if got.RefreshToken != "rt" || len(got.Roles) != 2 {
			t.Fatalf("update not persisted: %+v", got)
		}

		got.RefreshToken = ""
		got.RefreshTokenExpiresAt = time.Time{}
		revoked, err := repo.Update(ctx, got)
		if err != nil || revoked.RefreshToken != "" || !revoked.RefreshTokenExpiresAt.IsZero() {
			t.Fatalf("revoke: %+v %v", revoked, err)
		}
		if _, err := repo.Update(ctx, model.User{ID: 999999}); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func RunTxManagerContract(t *testing.T, makeTx TxFactory) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		tx, categories, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID int64
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := categories.Create(ctx, model.Category{Name: "TxCommit"})
			if err != nil {
				return err
			}
			createdID = out.ID
			return nil
		})
		if err != nil {
			t.Fatalf("WithinTx: %v", err)
		}
		if _, err := categories.GetByID(ctx, createdID); err != nil {
			t.Fatalf("expected committed row visible, got err=%v", err)
		}
	})

	t.Run("rollback_on_error", func(t *testing.T) {
		tx, categories, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID int64
		errMarker := errors.New("boom")
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := categories.Create(ctx, model.Category{Name: "TxRollback"})
			if err != nil {
				return err
			}
			createdID = out.ID
			return errMarker
		})
		if !errors.Is(err, errMarker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := categories.GetByID(ctx, createdID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after rollback, got %v", err)
		}
	})

	t.Run("read_tx_rejects_writes", func(t *testing.T) {
		tx, categories, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		err := tx.WithinReadTx(ctx, func(ctx context.Context) error {
			_, err := categories.Create(ctx, model.Category{Name: "Nope"})
			return err
		})
		if !errors.Is(err, repository.ErrReadOnly) {
			t.Fatalf("expected ErrReadOnly, got %v", err)
		}
		all, err := categories.List(ctx)
		if err != nil || len(all) != 0 {
			t.Fatalf("expected no rows, got %+v %v", all, err)
		}
	})

	t.Run("read_tx_allows_reads", func(t *testing.T) {
		tx, categories, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		c, _ := categories.Create(ctx, model.Category{Name: "Visible"})
		err := tx.WithinReadTx(ctx, func(ctx context.Context) error {
			res, err := categories.Page(ctx, repository.CategoryQuery{Page: pagination.NewRequest(1, 10)})
			if err != nil {
				return err
			}
			if len(res.Items) != 1 || res.Items[0].ID != c.ID {
				return fmt.Errorf("unexpected page %+v", res)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithinReadTx: %v", err)
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
}
