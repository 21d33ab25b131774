// Package metadata describes edition metadata: the schema of typed fields,
// the ordered maps that carry raw and prepared values, and the Processor that
// turns raw CSV rows into canonical entries with a mint ID.
//
// Preparation is local and deterministic. File fields are content addressed
// on disk during Prepare (a raw CIDv1 over the whole file), so the mint ID
// never depends on a remote service. Uploading those files to a pinning
// service is a separate Process step that callers run only for editions that
// do not exist on the ledger yet; the CIDs it reports replace the content IDs
// in the metadata sent to the ledger.
package metadata
