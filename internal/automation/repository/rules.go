package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrRuleNotFound = errors.New("automation rule not found")

// Rule is a row of the automations table. Active is the operator-facing
// toggle; the evaluator skips inactive rules entirely.
type Rule struct {
	ID          uuid.UUID
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *Repository) ListRules(ctx context.Context) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, active, created_at, updated_at
		FROM automations ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]Rule, 0)
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.Description, &rule.Active, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ActiveRules returns the name -> active map the evaluator gates on. Rules
// missing from the table are treated as inactive.
func (r *Repository) ActiveRules(ctx context.Context) (map[string]bool, error) {
	rules, err := r.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(rules))
	for _, rule := range rules {
		active[rule.Name] = rule.Active
	}
	return active, nil
}

// SetRuleActive flips a rule's toggle, conditioned on the caller's last
// observed state so two concurrent operators cannot silently overwrite each
// other. Returns the updated rule, or ErrRuleNotFound when the name is
// unknown or the expected state no longer holds.
func (r *Repository) SetRuleActive(ctx context.Context, name string, expected, active bool) (Rule, error) {
	var rule Rule
	err := r.pool.QueryRow(ctx, `
		UPDATE automations
		SET active = $3, updated_at = now()
		WHERE name = $1 AND active = $2
		RETURNING id, name, description, active, created_at, updated_at
	`, name, expected, active).Scan(&rule.ID, &rule.Name, &rule.Description, &rule.Active, &rule.CreatedAt, &rule.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, ErrRuleNotFound
	}
	if err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// SeedRule inserts a rule if absent. Existing rows keep their active toggle;
// only the description refreshes, so seeding never undoes operator changes.
func (r *Repository) SeedRule(ctx context.Context, name, description string, active bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO automations (name, description, active)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, updated_at = now()
	`, name, description, active)
	return err
}
