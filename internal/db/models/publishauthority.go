package models

// PublishAuthority model definition. One record per publisher identity,
// managed externally; the server only reads these.
type PublishAuthority struct {
	Username  string   `db:"username"`
	KeyDigest string   `db:"key_digest"` // base64-encoded SHA-256 digest
	Authority []string `db:"authority"`  // permitted path prefixes, in order
}
