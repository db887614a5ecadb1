package cert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"os"
)

// Generator produces a fresh key pair and certificate signing request,
// writing both to disk. Implemented by GenerateSigningRequest; tests
// substitute their own.
type Generator func(identity, csrPath, keyPath string) error

// GenerateSigningRequest generates an ECDSA P-256 key pair and a CSR
// whose subject common name is the given application identity. The CSR
// is written PEM-encoded to csrPath and the private key, PKCS#8
// PEM-encoded, to keyPath with owner-only permissions.
func GenerateSigningRequest(identity, csrPath, keyPath string) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}

	csrTemplate := x509.CertificateRequest{
		Subject: pkix.Name{
			CommonName: identity,
		},
		SignatureAlgorithm: x509.ECDSAWithSHA256,
	}

	csrDER, err := x509.CreateCertificateRequest(rand.Reader, &csrTemplate, privateKey)
	if err != nil {
		return fmt.Errorf("failed to create signing request: %w", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	csrPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: csrDER})
	if err := os.WriteFile(csrPath, csrPEM, 0o600); err != nil {
		return fmt.Errorf("failed to write signing request: %w", err)
	}

	return nil
}
