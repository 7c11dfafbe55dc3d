// Package naming turns a resolved capture instant into a destination path.
//
// FileName and Layout.Directory are pure; Reserve claims a name on disk
// with exclusive creation, appending _2, _3, ... until a free name is
// found, so concurrent workers never overwrite each other.
package naming
