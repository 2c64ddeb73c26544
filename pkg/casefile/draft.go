package casefile

import (
	"context"
	"fmt"
)

// DraftGenerator produces the analysis output for a completed case. It is an
// opaque collaborator: implementations are assumed synchronous and free of
// side effects; the lifecycle decides when to invoke it and records elapsed
// time itself.
type DraftGenerator interface {
	Generate(ctx context.Context, c *Case) (*Draft, error)
}

// DraftGeneratorFunc adapts a function to the DraftGenerator interface.
type DraftGeneratorFunc func(ctx context.Context, c *Case) (*Draft, error)

func (f DraftGeneratorFunc) Generate(ctx context.Context, c *Case) (*Draft, error) {
	return f(ctx, c)
}

// denialCategories the stub rotates through deterministically per case.
var denialCategories = []string{
	"medical_necessity",
	"prior_authorization",
	"coding_error",
	"timely_filing",
}

// StubGenerator is the built-in deterministic generator used until a real
// analysis backend is plugged in. Output depends only on the case ID.
type StubGenerator struct{}

func (StubGenerator) Generate(ctx context.Context, c *Case) (*Draft, error) {
	category := denialCategories[int(c.ID[0])%len(denialCategories)]
	return &Draft{
		DenialSummary: fmt.Sprintf("The claim was denied citing %s.", category),
		Category:      category,
		DraftText: fmt.Sprintf(
			"To whom it may concern,\n\nWe are writing to appeal the denial of case %s. "+
				"Based on our review, the stated reason (%s) does not hold against the submitted documentation. "+
				"We respectfully request reconsideration.\n",
			c.ID, category),
	}, nil
}
