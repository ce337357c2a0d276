// Package sink provides compressed-file Writer implementations for
// the tablespace byte streams the Base-backup Pipeline writes under
// an archive's fsentry directory, matching the
// descriptor.CompressType values a BackupProfile may request.
//
// The build-tag-gated zstd registration (zstd_enable.go) mirrors
// broker/codecs/zstandard_enable.go: a package-level var holds the
// constructor, which zstd_enable.go sets in every build that lacks the
// "nozstd" build tag; building with "nozstd" leaves the "unsupported"
// stub in place and drops the cgo dependency entirely.
package sink
