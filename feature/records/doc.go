// Package records serves reconciled records back over HTTP.
//
// A lookup names the entity and every field of its natural key:
//
//	GET /records/voting?surveyorId=S1&publisher=example.com
//
// The stored document is overlaid on the entity's empty template, so fields
// an older writer never set still appear with their defaults. Decimal128
// amounts are rendered as decimal text and BSON timestamps as RFC3339.
package records
