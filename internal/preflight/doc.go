// Package preflight provides readiness checks for the filesystem paths and
// the external metadata tool mediasort depends on.
//
// These checks run in two contexts:
//   - organize and sweep call RunAll before scanning. Any failure aborts the
//     run before a single file is touched.
//   - The CLI "mediasort status" command prints every Result so operators
//     can see what is missing.
package preflight
