// Package models holds the response shapes returned by the Token Management
// API.
//
// Most payloads are passed around as Record, a plain JSON object. Only the
// two well-known shapes have dedicated types: Token and AuthResponse. Both
// are snapshots: they copy the record they are built from, and every
// accessor returns (value, ok) with ok == false when the key is missing,
// null, or cannot be coerced.
//
//	tok := models.NewToken(rec)
//	if num, ok := tok.TokenNumber(); ok {
//	    fmt.Println("now serving", num)
//	}
package models
