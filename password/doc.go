// Package password provides the argon2id credential hasher used by the
// engine. Hashes are stored in PHC string format, so parameters travel with
// the hash and can be upgraded transparently on login.
package password
