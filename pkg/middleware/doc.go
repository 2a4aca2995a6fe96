// Package middleware provides HTTP middleware for request context and rate limiting.
//
// # Overview
//
// This package implements request processing middleware including request ID
// propagation, structured request logging, panic recovery, and rate limiting
// (in-memory and Redis-backed) keyed by client IP.
//
// # Middleware Components
//
// RequestIDMiddleware: Assigns a UUID to every request
//
//	router.Use(middleware.RequestIDMiddleware)
//
// LoggingMiddleware: Structured access logging
//
//	router.Use(middleware.LoggingMiddleware(logger))
//
// RecoveryMiddleware: Converts handler panics into 500 responses
//
//	router.Use(middleware.RecoveryMiddleware(logger))
//
// RateLimitMiddleware: In-memory token bucket rate limiting
//
//	limiter := middleware.NewRateLimitMiddleware(nil)
//	router.Use(limiter.Handler)
//
// DistributedRateLimitMiddleware: Redis-backed rate limiting shared across instances
//
//	limiter := middleware.NewDistributedRateLimitMiddleware(redisClient, nil)
//	router.Use(limiter.Handler)
//
// Rate limiting exists to protect the ingestion fan-out: a misbehaving
// edge server retry loop must not be able to saturate the stores.
//
// # Related Packages
//
//   - pkg/observability: Logger and request ID context helpers
package middleware
