package memory

import (
	"context"
	"sort"

	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/repository"
)

type userRepository struct{ store *Store }

func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

func copyUser(u model.User) model.User {
	u.Roles = append([]string{}, u.Roles...)
	sort.Strings(u.Roles)
	return u
}

func (st *state) findUser(match func(model.User) bool) (model.User, bool) {
	for _, u := range st.users {
		if match(u) {
			return u, true
		}
	}
	return model.User{}, false
}

func (st *state) checkRoles(roles []string) error {
	for _, r := range roles {
		if _, ok := st.roles[r]; !ok {
			return repository.ErrConflict
		}
	}
	return nil
}

func (r *userRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	err := r.store.write(ctx, func(st *state) error {
		name, email := normalizeKey(u.Username), normalizeKey(u.Email)
		if _, dup := st.findUser(func(x model.User) bool {
			return normalizeKey(x.Username) == name || normalizeKey(x.Email) == email
		}); dup {
			return repository.ErrAlreadyExists
		}
		if err := st.checkRoles(u.Roles); err != nil {
			return err
		}
		st.nextID.user++
		u.ID = st.nextID.user
		u = copyUser(u)
		st.users[u.ID] = u
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return copyUser(u), nil
}

func (r *userRepository) get(ctx context.Context, match func(model.User) bool) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	var (
		u  model.User
		ok bool
	)
	r.store.read(func(st *state) { u, ok = st.findUser(match) })
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	key := normalizeKey(username)
	return r.get(ctx, func(u model.User) bool { return normalizeKey(u.Username) == key })
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	key := normalizeKey(email)
	return r.get(ctx, func(u model.User) bool { return normalizeKey(u.Email) == key })
}

// Update stores roles and refresh-token state; identity fields keep their stored values.
func (r *userRepository) Update(ctx context.Context, u model.User) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	var out model.User
	err := r.store.write(ctx, func(st *state) error {
		cur, ok := st.users[u.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if err := st.checkRoles(u.Roles); err != nil {
			return err
		}
		cur.Roles = dedupe(u.Roles)
		cur.RefreshToken = u.RefreshToken
		cur.RefreshTokenExpiresAt = u.RefreshTokenExpiresAt
		cur = copyUser(cur)
		st.users[cur.ID] = cur
		out = cur
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return copyUser(out), nil
}

func (r *userRepository) RoleExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	r.store.read(func(st *state) { _, ok = st.roles[name] })
	return ok, nil
}

func (r *userRepository) CreateRole(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.roles[name]; ok {
			return repository.ErrAlreadyExists
		}
		st.roles[name] = struct{}{}
		return nil
	})
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

var _ repository.UserRepository = (*userRepository)(nil)
