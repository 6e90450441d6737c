package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	activation "github.com/goliatone/go-activation"
	"github.com/uptrace/bun"
)

type mngr struct {
	db    *bun.DB
	users activation.Users
}

func NewRepositoryManager(db *bun.DB) activation.RepositoryManager {
	return &mngr{
		db:    db,
		users: activation.NewUsersRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() activation.Users {
	return m.users
}
