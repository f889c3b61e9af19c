// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api defines the contracts shared by the poll registry and the
// platform wait backends: the portable readiness event mask, the
// backend-facing poll record, the WaitBackend and HandleWaiter interfaces,
// dispatch outcomes, and the library's error surface.
package api
