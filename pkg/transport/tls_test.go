package transport

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

// testCredentials is PEM material mimicking what the desktop writes into
// the credential directory after a certificate exchange.
type testCredentials struct {
	caCertPEM     []byte
	clientCertPEM []byte
	clientKeyPEM  []byte
}

// generateTestCredentials creates a CA and a client certificate signed
// by it.
func generateTestCredentials(t *testing.T) testCredentials {
	t.Helper()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate CA key: %v", err)
	}

	caTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName: "Lens Desktop CA",
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		IsCA:                  true,
		BasicConstraintsValid: true,
	}

	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("failed to create CA certificate: %v", err)
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		t.Fatalf("failed to parse CA certificate: %v", err)
	}

	clientKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate client key: %v", err)
	}

	clientTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject: pkix.Name{
			CommonName: "test-device",
		},
		NotBefore:   time.Now(),
		NotAfter:    time.Now().Add(24 * time.Hour),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	clientDER, err := x509.CreateCertificate(rand.Reader, clientTemplate, caCert, &clientKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("failed to create client certificate: %v", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(clientKey)
	if err != nil {
		t.Fatalf("failed to marshal client key: %v", err)
	}

	return testCredentials{
		caCertPEM:     pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: caDER}),
		clientCertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: clientDER}),
		clientKeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
	}
}

func TestNewTrustedTLSConfig(t *testing.T) {
	creds := generateTestCredentials(t)

	tlsConfig, err := NewTrustedTLSConfig(&TrustedTLSConfig{
		CACert:     creds.caCertPEM,
		ClientCert: creds.clientCertPEM,
		PrivateKey: creds.clientKeyPEM,
	})
	if err != nil {
		t.Fatalf("NewTrustedTLSConfig failed: %v", err)
	}

	if tlsConfig.MinVersion != tls.VersionTLS13 {
		t.Errorf("MinVersion = %d, want TLS 1.3 (%d)", tlsConfig.MinVersion, tls.VersionTLS13)
	}
	if tlsConfig.MaxVersion != tls.VersionTLS13 {
		t.Errorf("MaxVersion = %d, want TLS 1.3 (%d)", tlsConfig.MaxVersion, tls.VersionTLS13)
	}
	if len(tlsConfig.NextProtos) != 1 || tlsConfig.NextProtos[0] != "lens/1" {
		t.Errorf("NextProtos = %v, want [lens/1]", tlsConfig.NextProtos)
	}
	if len(tlsConfig.Certificates) != 1 {
		t.Errorf("Certificates = %d, want 1", len(tlsConfig.Certificates))
	}
	if !tlsConfig.SessionTicketsDisabled {
		t.Error("session tickets should be disabled")
	}
	if tlsConfig.VerifyPeerCertificate == nil {
		t.Error("expected custom peer verification callback")
	}
}

func TestNewTrustedTLSConfigMissingMaterial(t *testing.T) {
	creds := generateTestCredentials(t)

	tests := []struct {
		name string
		cfg  *TrustedTLSConfig
	}{
		{name: "nil config", cfg: nil},
		{
			name: "missing CA",
			cfg: &TrustedTLSConfig{
				ClientCert: creds.clientCertPEM,
				PrivateKey: creds.clientKeyPEM,
			},
		},
		{
			name: "missing client cert",
			cfg: &TrustedTLSConfig{
				CACert:     creds.caCertPEM,
				PrivateKey: creds.clientKeyPEM,
			},
		},
		{
			name: "missing private key",
			cfg: &TrustedTLSConfig{
				CACert:     creds.caCertPEM,
				ClientCert: creds.clientCertPEM,
			},
		},
		{
			name: "garbage CA",
			cfg: &TrustedTLSConfig{
				CACert:     []byte("not a certificate"),
				ClientCert: creds.clientCertPEM,
				PrivateKey: creds.clientKeyPEM,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTrustedTLSConfig(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewTrustedTLSConfigMismatchedKey(t *testing.T) {
	creds := generateTestCredentials(t)
	other := generateTestCredentials(t)

	_, err := NewTrustedTLSConfig(&TrustedTLSConfig{
		CACert:     creds.caCertPEM,
		ClientCert: creds.clientCertPEM,
		PrivateKey: other.clientKeyPEM,
	})
	if err == nil {
		t.Error("expected error for mismatched key pair")
	}
}

func TestVerifyConnectionChecks(t *testing.T) {
	good := tls.ConnectionState{
		Version:            tls.VersionTLS13,
		NegotiatedProtocol: "lens/1",
	}
	if err := VerifyConnection(good); err != nil {
		t.Errorf("VerifyConnection failed for valid state: %v", err)
	}

	oldVersion := good
	oldVersion.Version = tls.VersionTLS12
	if err := VerifyConnection(oldVersion); err == nil {
		t.Error("expected error for TLS 1.2")
	}

	wrongALPN := good
	wrongALPN.NegotiatedProtocol = "http/1.1"
	if err := VerifyConnection(wrongALPN); err == nil {
		t.Error("expected error for wrong ALPN protocol")
	}

	futureMajor := good
	futureMajor.NegotiatedProtocol = "lens/2"
	if err := VerifyConnection(futureMajor); err == nil {
		t.Error("expected error for incompatible major version")
	}
}
