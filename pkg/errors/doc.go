// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// The provisioning run classifies failures with three codes:
//
//   - ErrCodeTransport: the Grafana endpoint was unreachable after retries
//   - ErrCodeProvisioning: the service account or token stage failed; the run aborts
//   - ErrCodeRegistration: the data source or dashboard stage failed; the run continues
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeProvisioning,
//	    "failed to create service account",
//	    cause,
//	    map[string]any{
//	        "status": resp.StatusCode,
//	        "body":   string(resp.Body),
//	    },
//	)
package errors
