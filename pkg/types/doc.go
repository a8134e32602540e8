// Package types contains the JSON contracts shared by the appraise daemon and
// its clients. Monetary values are encoded as bare JSON numbers backed by exact
// decimals, see Amount.
package types
