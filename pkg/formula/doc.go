// Package formula is the runtime library of the formula language.
//
// Numbers are github.com/shopspring/decimal values so that arithmetic is
// exact in base ten (0.1 + 0.2 is 0.3). Operators form a closed set (Op);
// named functions live in a Registry that is built once at process start
// and may be cloned and extended by hosts.
//
// Three outcomes are possible for a call:
//   - a value;
//   - a soft error, reported as the empty string "" (wrong arity, division
//     by zero and similar invalid-but-expected inputs);
//   - a hard error returned as a Go error (*ArgError, *DateError).
//
// Unresolved names evaluate to NaN, which arithmetic propagates and the
// aggregate functions skip.
package formula
