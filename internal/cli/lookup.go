package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/embedlib/embedlib/internal/deps"
	"github.com/embedlib/embedlib/internal/resolver"
)

// lookupID turns "id=N", a bare number or a library name into a registry id.
func lookupID(ctx context.Context, svc *services, arg string) (int, error) {
	if id, ok := deps.ParseID(arg); ok {
		return id, nil
	}
	if id, err := strconv.Atoi(strings.TrimSpace(arg)); err == nil && id > 0 {
		return id, nil
	}
	res, err := svc.resolver.Resolve(ctx, deps.Filter{Name: arg}, resolver.Options{Silent: true})
	if err != nil {
		return 0, err
	}
	return res.Library.ID, nil
}
