package activation

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager gives access to the repositories and transaction scope
// the flows run against.
type RepositoryManager interface {
	Users() Users
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Validate() error
	MustValidate()
}

// Users is the repository surface for user records.
type Users interface {
	repository.Repository[*User]

	FindByEmail(ctx context.Context, email string, fullness Fullness) (*User, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string, fullness Fullness) (*User, error)

	Insert(ctx context.Context, record *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ AccountStore                 = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// NewUsersRepository builds the bun-backed Users repository.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) FindByEmail(ctx context.Context, email string, fullness Fullness) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email, fullness)
}

// FindByEmailTx looks up a user by lowercased email. ModifiedRecord fullness
// omits the password hash from the selected columns so the record can cross
// trust boundaries as-is.
func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string, fullness Fullness) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	if fullness == ModifiedRecord {
		q.ExcludeColumn("password_hash")
	}

	err := q.
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": NormalizeEmail(email),
				})
		}
		return nil, err
	}

	return record, nil
}

// Insert is the criteria-free insert the flows use.
func (a *users) Insert(ctx context.Context, record *User) (*User, error) {
	return a.Create(ctx, record)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

// CreateTx inserts a user record. Email uniqueness is enforced by the store
// constraint; a concurrent insert for the same email fails here rather than
// being coordinated in process.
func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		if id, err := hashid.NewUUID(record.Email); err == nil {
			record.ID = id
		} else {
			record.ID = uuid.New()
		}
	}
}
