// Package admin answers whether a user holds an administrative role and
// manages those role grants.
//
// Decisions are made only from the user id the caller has already
// authenticated and the stored admin record. Nothing supplied by the client
// (cookies, headers, form fields) is consulted.
package admin

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/storage"
	"github.com/MrEthical07/authcore/storage/userstore"
)

// ErrUserNotFound is returned by AddAdmin and RemoveAdmin for unknown users.
var ErrUserNotFound = errors.New("admin: user not found")

// Status is the result of an admin lookup. Role is empty when IsAdmin is false.
type Status struct {
	IsAdmin bool `json:"is_admin"`
	Role    Role `json:"role"`
}

// DB is the storage the gate needs: plain queries plus transactions.
type DB interface {
	storage.DBTX
	storage.TxBeginner
}

// Gate is the admin authorization gate.
type Gate struct {
	db DB
}

// NewGate returns a Gate backed by db.
func NewGate(db DB) *Gate {
	return &Gate{db: db}
}

// IsAdmin looks up the admin record of userID.
func (g *Gate) IsAdmin(ctx context.Context, userID int64) (Status, error) {
	role, err := userstore.New(g.db).AdminRole(ctx, userID)
	if errors.Is(err, userstore.ErrNotFound) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return Status{IsAdmin: true, Role: ParseRole(role)}, nil
}

// AddAdmin grants role to userID, replacing any previous grant. Unknown role
// names are granted as RoleEditor. The granted role is returned.
func (g *Gate) AddAdmin(ctx context.Context, userID int64, role string) (Role, error) {
	granted := ParseRole(role)

	err := storage.WithTx(ctx, g.db, nil, func(ctx context.Context, tx storage.DBTX) error {
		users := userstore.New(tx)
		exists, err := users.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
		return users.UpsertAdmin(ctx, userID, granted.String())
	})
	if err != nil {
		return "", err
	}
	return granted, nil
}

// RemoveAdmin revokes any admin grant of userID. Revoking from a user without
// a grant succeeds.
func (g *Gate) RemoveAdmin(ctx context.Context, userID int64) error {
	return storage.WithTx(ctx, g.db, nil, func(ctx context.Context, tx storage.DBTX) error {
		users := userstore.New(tx)
		exists, err := users.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
		return users.DeleteAdmin(ctx, userID)
	})
}
