package cert

// File name constants for the persisted credential artifacts. The desktop
// writes CACertFileName and ClientCertFileName into the credential
// directory out-of-band during bootstrap; the agent writes the other two.
const (
	// CSRFileName is the certificate signing request written during bootstrap.
	CSRFileName = "app.csr"

	// CACertFileName is the root-of-trust certificate issued by the desktop.
	CACertFileName = "lensCA.crt"

	// ClientCertFileName is the signed client certificate.
	ClientCertFileName = "device.crt"

	// PrivateKeyFileName is the agent's private key.
	PrivateKeyFileName = "privateKey.pem"
)

// Store provides access to the persisted credential set.
// Implemented by FileStore.
type Store interface {
	// Dir returns the absolute path of the credential directory.
	Dir() string

	// Path returns the absolute path of a named credential file.
	Path(name string) string

	// Read returns the contents of a named credential file. A missing
	// or unreadable file yields an empty slice; absence is an expected
	// state during bootstrap, not an error.
	Read(name string) []byte

	// IsUsable reports whether all three credential artifacts (CA
	// certificate, client certificate, private key) are present and
	// non-empty.
	IsUsable() bool

	// EnsureDir creates the credential directory with owner-only
	// permissions if it does not exist. It fails when the path exists
	// but is not a directory.
	EnsureDir() error
}
