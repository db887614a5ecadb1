package cert

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSigningRequest(t *testing.T) {
	dir := t.TempDir()
	csrPath := filepath.Join(dir, CSRFileName)
	keyPath := filepath.Join(dir, PrivateKeyFileName)

	require.NoError(t, GenerateSigningRequest("com.example.mail", csrPath, keyPath))

	// The CSR parses and carries the identity as common name.
	csrPEM, err := os.ReadFile(csrPath)
	require.NoError(t, err)
	block, _ := pem.Decode(csrPEM)
	require.NotNil(t, block)
	require.Equal(t, "CERTIFICATE REQUEST", block.Type)

	csr, err := x509.ParseCertificateRequest(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, "com.example.mail", csr.Subject.CommonName)
	assert.NoError(t, csr.CheckSignature())

	// The private key parses and is readable only by its owner.
	keyPEM, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	block, _ = pem.Decode(keyPEM)
	require.NotNil(t, block)
	require.Equal(t, "PRIVATE KEY", block.Type)

	_, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestGenerateSigningRequest_BadPath(t *testing.T) {
	dir := t.TempDir()
	err := GenerateSigningRequest("com.example.mail",
		filepath.Join(dir, "missing", CSRFileName),
		filepath.Join(dir, "missing", PrivateKeyFileName))
	assert.Error(t, err)
}
