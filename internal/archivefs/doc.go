// Package archivefs lays out an archive's on-disk directory tree
// behind an afero.Fs, so catalog and pipeline tests can run against
// afero.NewMemMapFs() instead of touching the real disk — the same
// isolation broker/fragment/store_fs.go gets for free from Gazette's
// own fragment store abstraction, generalized here to a filesystem
// interface since archivefs has no remote-store backends to speak of.
//
// Layout, per archive directory:
//
//	<directory>/.pgarchive              marker file
//	<directory>/<label>-<timestamp>/    one directory per basebackup
//	<directory>/wal/                    WAL segment directory
package archivefs
