package admin

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

const policyQuery = "data.codebrick.admin.allow"

// defaultRegoPolicy allows any authenticated admin session to read the admin endpoints.
const defaultRegoPolicy = `package codebrick.admin

default allow := false

allow if {
	input.session.authenticated
	input.session.admin
	input.session.subject != ""
}
`

// Input is the document the policy is evaluated against.
type Input struct {
	Authenticated bool
	Admin         bool
	Subject       string
	Method        string
	Path          string
}

func (in Input) document() map[string]interface{} {
	return map[string]interface{}{
		"session": map[string]interface{}{
			"authenticated": in.Authenticated,
			"admin":         in.Admin,
			"subject":       in.Subject,
		},
		"request": map[string]interface{}{
			"method": in.Method,
			"path":   in.Path,
		},
	}
}

// Policy evaluates the admin access rule with an embedded OPA Rego module.
type Policy struct {
	query rego.PreparedEvalQuery
}

// NewPolicy compiles module (defaultRegoPolicy when empty).
func NewPolicy(ctx context.Context, module string) (*Policy, error) {
	if module == "" {
		module = defaultRegoPolicy
	}
	pq, err := rego.New(
		rego.Query(policyQuery),
		rego.Module("admin.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin: compile policy: %w", err)
	}
	return &Policy{query: pq}, nil
}

// Allow reports whether the policy allows in. Errors mean the decision could not be made;
// callers deny.
func (p *Policy) Allow(ctx context.Context, in Input) (bool, error) {
	rs, err := p.query.Eval(ctx, rego.EvalInput(in.document()))
	if err != nil {
		return false, fmt.Errorf("admin: eval policy: %w", err)
	}
	return rs.Allowed(), nil
}

// HealthCheck verifies the compiled policy evaluates and denies an anonymous request.
func (p *Policy) HealthCheck(ctx context.Context) error {
	allowed, err := p.Allow(ctx, Input{Method: "GET", Path: "/admin/data"})
	if err != nil {
		return err
	}
	if allowed {
		return fmt.Errorf("admin: policy allows anonymous access")
	}
	return nil
}
