package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LeJamon/goXRPLrwa/internal/store"
)

// GetRoleBinding returns the binding of role or store.ErrNotFound.
func (s *DB) GetRoleBinding(ctx context.Context, role store.Role) (*store.RoleBinding, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var b store.RoleBinding
	q := db.Rebind(`SELECT role, address, seed, created_at FROM role_bindings WHERE role = ?`)
	if err := db.GetContext(ctx, &b, q, string(role)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role binding %s: %w", role, err)
	}
	return &b, nil
}

// SaveRoleBinding inserts the binding unless the role is already bound, then
// returns whichever binding won.
func (s *DB) SaveRoleBinding(ctx context.Context, binding store.RoleBinding) (store.RoleBinding, bool, error) {
	if !binding.Role.Valid() {
		return store.RoleBinding{}, false, store.ErrUnknownRole
	}
	db, err := s.conn()
	if err != nil {
		return store.RoleBinding{}, false, err
	}
	if binding.CreatedAt.IsZero() {
		binding.CreatedAt = time.Now().UTC()
	}

	q := db.Rebind(`INSERT INTO role_bindings (role, address, seed, created_at)
		VALUES (?, ?, ?, ?) ON CONFLICT (role) DO NOTHING`)
	res, err := db.ExecContext(ctx, q, string(binding.Role), binding.Address, binding.Seed, binding.CreatedAt)
	if err != nil && !isUniqueViolation(err) {
		return store.RoleBinding{}, false, fmt.Errorf("failed to save role binding %s: %w", binding.Role, err)
	}
	created := false
	if err == nil {
		n, _ := res.RowsAffected()
		created = n == 1
	}

	stored, err := s.GetRoleBinding(ctx, binding.Role)
	if err != nil {
		return store.RoleBinding{}, false, err
	}
	return *stored, created, nil
}
