package tube

import "context"

// strategy is one way of reaching a goal, try reports whether it got there.
type strategy struct {
	name string
	try  func(ctx context.Context) bool
}

// firstSuccess tries strategies in order and stops at the first success.
func firstSuccess(ctx context.Context, strategies ...strategy) (string, bool) {
	for _, s := range strategies {
		if ctx.Err() != nil {
			return "", false
		}

		if s.try(ctx) {
			return s.name, true
		}
	}

	return "", false
}
