package auth

import (
	"context"
	"fmt"
	"slices"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Wildcard matches any principal or action in a Rule.
const Wildcard = "*"

// Rule grants a principal a set of actions. Either side may be Wildcard.
type Rule struct {
	Principal string
	Actions   []Action
}

// PolicyAuthorizer grants actions per principal through a casbin enforcer.
// Rules can be added at runtime; the enforcer is safe for concurrent use.
type PolicyAuthorizer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicyAuthorizer creates an authorizer from rules. A principal with no
// matching rule is denied everything.
func NewPolicyAuthorizer(rules ...Rule) (*PolicyAuthorizer, error) {
	m := model.NewModel()
	m.AddDef("r", "r", "sub, act")
	m.AddDef("p", "p", "sub, act")
	m.AddDef("e", "e", "some(where (p.eft == allow))")
	m.AddDef("m", "m", `(p.sub == "*" || r.sub == p.sub) && (p.act == "*" || r.act == p.act)`)

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create policy enforcer: %w", err)
	}

	a := &PolicyAuthorizer{enforcer: enforcer}
	for _, r := range rules {
		if err := a.Grant(r.Principal, r.Actions...); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Grant allows principal to perform actions.
func (a *PolicyAuthorizer) Grant(principal string, actions ...Action) error {
	if principal == "" {
		return fmt.Errorf("policy rule: empty principal")
	}
	if len(actions) == 0 {
		return fmt.Errorf("policy rule for %q: no actions", principal)
	}
	for _, act := range actions {
		if act != Wildcard && !isKnownAction(act) {
			return fmt.Errorf("policy rule for %q: unknown action %q", principal, act)
		}
		if _, err := a.enforcer.AddPolicy(principal, string(act)); err != nil {
			return fmt.Errorf("policy rule for %q: %w", principal, err)
		}
	}
	return nil
}

// Revoke removes a previously granted action and reports whether it was
// present.
func (a *PolicyAuthorizer) Revoke(principal string, action Action) (bool, error) {
	return a.enforcer.RemovePolicy(principal, string(action))
}

// Authorize implements Authorizer.
func (a *PolicyAuthorizer) Authorize(_ context.Context, principal string, action Action) error {
	ok, err := a.enforcer.Enforce(principal, string(action))
	if err != nil {
		return fmt.Errorf("evaluate policy: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: principal %q may not %s", ErrUnauthorized, principal, action)
	}
	return nil
}

// Actions lists every upload action.
func Actions() []Action {
	return []Action{ActionBegin, ActionAppend, ActionRemove, ActionConsolidate, ActionFinalize, ActionAbort}
}

func isKnownAction(a Action) bool {
	return slices.Contains(Actions(), a)
}

var _ Authorizer = (*PolicyAuthorizer)(nil)
