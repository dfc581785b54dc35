// Package corpus loads job, company and location records from a
// storage.RecordSource and normalizes them into an immutable Snapshot.
//
// Normalization never fails on a single record: missing titles, employers and
// IDs get fallbacks, unparseable numbers become zero, and every repair is
// counted in LoadStats.Malformed. Only an unreadable collection fails a load,
// with core.ErrDataUnavailable.
//
// Manager holds the current Snapshot behind an atomic pointer. Loads are
// shared between concurrent callers, and Invalidate forces the next caller to
// reload from the source.
package corpus
