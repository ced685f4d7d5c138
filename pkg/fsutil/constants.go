package fsutil

// File and directory permission constants used across the published tree and
// the service home directory.
const (
	FileModeDefault = 0o644 // -rw-r--r--: published artifacts and metadata
	FileModeSecure  = 0o600 // -rw-------: secret keyring material
	FileModeExec    = 0o755 // -rwxr-xr-x

	DirModeDefault = 0o755 // drwxr-xr-x: published directories
	DirModeSecure  = 0o750 // drwxr-x---: incoming and rejected
	DirModePrivate = 0o700 // drwx------: gpg home
)
