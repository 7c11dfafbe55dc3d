// Package category maps file extensions to coarse media categories and the
// destination folder names used for them.
package category
