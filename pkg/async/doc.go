// Package async provides safe concurrent execution primitives for background tasks.
//
// # Overview
//
// This package handles goroutine lifecycle management with panic recovery, timeout
// enforcement, and context cancellation.
//
// # Key Functions
//
// SafeGo: Execute function in goroutine with safety features
//
//	async.SafeGo(ctx, 30*time.Second, "retention cleanup", func(ctx context.Context) error {
//		// Task code with automatic panic recovery and timeout
//		_, err := janitor.Cleanup(ctx, days)
//		return err
//	})
//
// # Use Cases
//
// Background retention cleanup triggered over HTTP, cache warming
package async
