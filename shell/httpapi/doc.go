// Package httpapi exposes the loan lifecycle over HTTP.
//
// Borrowers and admins authenticate with HS256 bearer tokens; the cron endpoints use a shared
// bearer secret instead. Responses separate success and idempotent outcomes (2xx), business
// refusals (404, 409, 422 with an error code), authorization failures (401, 403) and
// infrastructure failures (500).
package httpapi
