package middleware

// contextKey keeps middleware context values from colliding with other
// packages' keys.
type contextKey string
