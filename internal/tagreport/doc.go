// Package tagreport inventories the metadata tags present across a tree of
// media files, grouped by metadata section, and renders the inventory as
// text or CSV.
package tagreport
