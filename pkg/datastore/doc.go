// Package datastore persists the install record: the {source, target} pair
// of the last top-level installation, which update and debug replay.
package datastore
