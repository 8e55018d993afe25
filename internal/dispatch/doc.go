// Package dispatch delivers parsed income statements to the downstream
// ingestion endpoint.
//
// A Batch wraps one report.Report with its batch id, source tag and report
// type. Sender serializes it as JSON and makes exactly one POST with a bearer
// token. There is no retry: any transport error, timeout or non-2xx response
// comes back as a *DeliveryError for the caller to record.
//
// Wire shape:
//
//	{batch_id, source, report_type, metadata, categories, monthly_data, totals}
package dispatch
