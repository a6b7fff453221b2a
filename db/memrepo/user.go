package memrepo

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/user"
)

type UserRepo struct {
	*Store
}

func (r *UserRepo) Create(ctx context.Context, u *user.User, options ...core.UpdateOptions) error {
	return r.write(updateTx(options), func(d *state) error {
		for _, existing := range d.users {
			if existing.Username == u.Username {
				return errors.WithMessagef(ErrDuplicateKey, "username %s", u.Username)
			}
		}
		d.userSeq++
		u.ID = d.userSeq
		d.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepo) Get(ctx context.Context, username string, options ...core.QueryOptions) (u user.User, err error) {
	err = r.read(queryTx(options), func(d *state) error {
		for _, existing := range d.users {
			if existing.Username == username {
				u = existing
				return nil
			}
		}
		return errors.WithStack(core.ErrNotFound)
	})
	return u, err
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64, options ...core.QueryOptions) (u user.User, err error) {
	err = r.read(queryTx(options), func(d *state) error {
		var ok bool
		u, ok = d.users[id]
		if !ok {
			return errors.WithStack(core.ErrNotFound)
		}
		return nil
	})
	return u, err
}

func (r *UserRepo) Delete(ctx context.Context, username string, options ...core.UpdateOptions) error {
	return r.write(updateTx(options), func(d *state) error {
		for id, existing := range d.users {
			if existing.Username == username {
				delete(d.users, id)
				return nil
			}
		}
		return errors.WithStack(core.ErrNotFound)
	})
}
