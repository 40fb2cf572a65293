package sdk

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed guard_model.conf
var guardModelContent string

// Guard answers whether an identity may open a page. Pages enforce it on their
// own; hiding a menu entry is not access control.
type Guard struct {
	enforcer casbin.IEnforcer
}

// NewGuard builds a guard whose policy is the role navigation table. Entries
// of the anonymous menu are open to every role.
func NewGuard() (*Guard, error) {
	m, err := model.NewModelFromString(guardModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse guard model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create guard enforcer: %w", err)
	}

	var rules [][]string
	for role, keys := range roleNavigation {
		for _, key := range keys {
			rules = append(rules, []string{string(role), string(key)})
		}
	}
	if _, err := enforcer.AddPolicies(rules); err != nil {
		return nil, fmt.Errorf("load guard policies: %w", err)
	}

	return &Guard{enforcer: enforcer}, nil
}

// Authorize returns nil when identity may open page, ErrUnauthenticated when
// an anonymous visitor requests a restricted page, and ErrUnauthorized when an
// authenticated user lacks the role.
func (g *Guard) Authorize(identity *Identity, page NavKey) error {
	if _, ok := navEntries[page]; !ok {
		return fmt.Errorf("%w: unknown page %q", ErrClient, page)
	}

	role := RoleOf(identity)
	ok, err := g.enforcer.Enforce(string(role), string(page))
	if err != nil {
		return fmt.Errorf("evaluate guard: %w", err)
	}
	if ok {
		return nil
	}
	if role == RoleAnonymous {
		return fmt.Errorf("%w: log in to open %s", ErrUnauthenticated, page)
	}
	return fmt.Errorf("%w: role %s may not open %s", ErrUnauthorized, role, page)
}

// Allowed lists every page identity may open, in a stable order: the role's
// own menu first, then the remaining public pages.
func (g *Guard) Allowed(identity *Identity) []NavKey {
	seen := map[NavKey]bool{}
	var out []NavKey
	for _, role := range []Role{RoleOf(identity), RoleAnonymous} {
		for _, key := range roleNavigation[role] {
			if seen[key] {
				continue
			}
			if g.Authorize(identity, key) == nil {
				seen[key] = true
				out = append(out, key)
			}
		}
	}
	return out
}
