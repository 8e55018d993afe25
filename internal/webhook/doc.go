// Package webhook accepts income statement attachments over HTTP and hands
// them to background processing before answering the caller.
//
// # Security Model
//
// - Mailgun signatures are HMAC-SHA256 over timestamp+token, compared in
// constant time
// - An unset signing key rejects every request (fail closed)
// - Timestamps older than the replay window are rejected
// - A verified token is accepted once per replay window
// - Body size limits are enforced before the form is parsed
// - Request logging never includes attachment contents or secrets
//
// # Request Flow (POST /webhook/mailgun)
//
//  1. Body capped at the configured size (413 if exceeded)
//  2. Form parsed; token, timestamp and signature extracted
//  3. Signature verified (401 on failure, nothing read)
//  4. Token claimed in the replay guard (200 "duplicate" on repeat)
//  5. First CSV part among attachment-1..N selected (400 if none)
//  6. Attachment bytes read fully into memory (500 on read failure)
//  7. Job handed to the scheduler without waiting (503 if the pool is full)
//  8. 200 returned with filename, size_bytes, batch_id and timestamp
//
// POST /ingest-income-statement runs steps 1, 2 and 6-8 on form field "file"
// and is meant for manual testing.
package webhook
