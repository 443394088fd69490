package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ulule/limiter/v3"
	limiterhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limits requests per client IP using an in-memory store.
// rate uses the limiter format, e.g. "300-M". An empty rate disables limiting
// and returns a nil middleware.
func RateLimit(rate string) (func(http.Handler) http.Handler, error) {
	if strings.TrimSpace(rate) == "" {
		return nil, nil
	}

	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("parsing rate %q: %w", rate, err)
	}

	mw := limiterhttp.NewMiddleware(limiter.New(memory.NewStore(), r))

	return mw.Handler, nil
}
