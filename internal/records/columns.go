package records

// Reserved column names. The leading underscore keeps them disjoint from
// schema fields, which may not start with one.
const (
	ColumnID              = "_id"
	ColumnEditionID       = "_edition_id"
	ColumnEditionLimit    = "_edition_limit"
	ColumnTransactionID   = "_transaction_id"
	ColumnSerialNumber    = "_serial_number"
	ColumnClaimKey        = "_claim_key"
	ColumnPartialClaimKey = "_partial_claim_key"
)

// ReservedOutputColumns lists the identity columns leading every output row.
var ReservedOutputColumns = []string{
	ColumnID,
	ColumnEditionID,
	ColumnEditionLimit,
	ColumnTransactionID,
	ColumnSerialNumber,
	ColumnClaimKey,
}

// SecretColumns is the full header of the temporary secrets table.
var SecretColumns = []string{ColumnEditionID, ColumnPartialClaimKey}

// OutputColumns returns the output header for the given metadata fields.
func OutputColumns(fields []string) []string {
	cols := make([]string, 0, len(ReservedOutputColumns)+len(fields))
	cols = append(cols, ReservedOutputColumns...)
	return append(cols, fields...)
}
