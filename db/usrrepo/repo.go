package usrrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/user"
	"github.com/sksmith/room-reservation/db"

	lru "github.com/hashicorp/golang-lru"
)

type dbRepo struct {
	conn core.Conn
	c    *lru.Cache
}

func NewPostgresRepo(conn core.Conn, cacheSize int) user.Repository {
	l, err := lru.New(cacheSize)
	if err != nil {
		log.Warn().Err(err).Int("size", cacheSize).Msg("unable to configure cache")
	}
	return &dbRepo{
		conn: conn,
		c:    l,
	}
}

const selectUser = `SELECT id, username, password, is_admin, email, phone, created_at FROM users `

func (r *dbRepo) Create(ctx context.Context, u *user.User, txs ...core.UpdateOptions) error {
	m := db.StartMetric("CreateUser")
	tx := db.GetUpdateOptions(r.conn, txs...)

	err := tx.QueryRow(ctx, `
		INSERT INTO users (username, password, is_admin, email, phone, created_at)
		           VALUES ($1, $2, $3, $4, $5, $6) RETURNING id;`,
		u.Username, u.HashedPassword, u.IsAdmin, u.Email, u.Phone, u.Created).Scan(&u.ID)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	r.cache(*u)
	return nil
}

func (r *dbRepo) Get(ctx context.Context, username string, txs ...core.QueryOptions) (user.User, error) {
	if u, ok := r.getcache(usernameKey(username)); ok {
		return u, nil
	}
	return r.get(ctx, "GetUser", `WHERE username = $1 `, username, txs...)
}

func (r *dbRepo) GetByID(ctx context.Context, id uint64, txs ...core.QueryOptions) (user.User, error) {
	if u, ok := r.getcache(idKey(id)); ok {
		return u, nil
	}
	return r.get(ctx, "GetUserByID", `WHERE id = $1 `, id, txs...)
}

func (r *dbRepo) get(ctx context.Context, metric, where string, arg interface{}, txs ...core.QueryOptions) (user.User, error) {
	m := db.StartMetric(metric)
	tx, forUpdate := db.GetQueryOptions(r.conn, txs...)

	query := selectUser + where + forUpdate

	log.Debug().Str("query", query).Interface("arg", arg).Msg("getting user")

	u := user.User{}
	err := tx.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.HashedPassword, &u.IsAdmin, &u.Email, &u.Phone, &u.Created)
	m.Complete(err)
	if err != nil {
		if err == pgx.ErrNoRows {
			return user.User{}, errors.WithStack(core.ErrNotFound)
		}
		return user.User{}, errors.WithStack(err)
	}

	r.cache(u)
	return u, nil
}

func (r *dbRepo) Delete(ctx context.Context, username string, txs ...core.UpdateOptions) error {
	m := db.StartMetric("DeleteUser")
	tx := db.GetUpdateOptions(r.conn, txs...)

	u, err := r.Get(ctx, username)
	if err != nil {
		m.Complete(err)
		return err
	}

	_, err = tx.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}

	r.uncache(u)
	return nil
}

func usernameKey(username string) string {
	return "u:" + username
}

func idKey(id uint64) string {
	return fmt.Sprintf("i:%d", id)
}

func (r *dbRepo) cache(u user.User) {
	if r.c == nil {
		return
	}
	r.c.Add(usernameKey(u.Username), u)
	r.c.Add(idKey(u.ID), u)
}

func (r *dbRepo) uncache(u user.User) {
	if r.c == nil {
		return
	}
	r.c.Remove(usernameKey(u.Username))
	r.c.Remove(idKey(u.ID))
}

func (r *dbRepo) getcache(key string) (user.User, bool) {
	if r.c == nil {
		return user.User{}, false
	}

	v, ok := r.c.Get(key)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
