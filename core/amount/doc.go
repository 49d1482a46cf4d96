// Package amount normalizes monetary values expressed in probi, the atomic
// unit of the ledger's altcurrency.
//
// Incoming amounts arrive as strings, JSON numbers or native Go numbers. They
// are parsed with shopspring/decimal, checked to be non-negative, and converted
// to a BSON Decimal128 for storage. No step goes through binary floating
// point on the string and json.Number paths, and values that Decimal128
// cannot hold exactly are rejected instead of rounded.
//
// # Usage
//
//	probi, err := amount.Normalize(payload["probi"])
//	if errors.Is(err, amount.ErrInvalidAmount) {
//	    // reject the event
//	}
//
// Grant records keep probi as text for compatibility with older readers;
// Text validates the value the same way and returns it unchanged.
package amount
