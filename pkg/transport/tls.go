package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/lens-devtools/lens-go/pkg/version"
)

// TrustedTLSConfig holds the credentials needed for a trusted connection
// to the desktop. All fields are PEM-encoded material as read from the
// credential store.
type TrustedTLSConfig struct {
	// CACert is the desktop CA certificate that signed the client cert.
	CACert []byte

	// ClientCert is the device's client certificate.
	ClientCert []byte

	// PrivateKey is the private key matching ClientCert.
	PrivateKey []byte

	// ServerName is used for SNI only. Peer verification is done against
	// the CA chain rather than hostname, since the desktop is addressed
	// by IP.
	ServerName string
}

// NewTrustedTLSConfig creates a TLS configuration for a device connecting
// to the desktop over the secure port. The desktop presents a certificate
// signed by its own CA; the device presents the client certificate issued
// during the exchange.
//
// Hostname verification is skipped because the desktop is identified by
// address, not DNS name. Verification checks the certificate chain against
// the desktop CA instead.
func NewTrustedTLSConfig(cfg *TrustedTLSConfig) (*tls.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("TrustedTLSConfig is required")
	}
	if len(cfg.ClientCert) == 0 || len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("client certificate and private key are required")
	}
	if len(cfg.CACert) == 0 {
		return nil, fmt.Errorf("CA certificate is required for peer verification")
	}

	clientCert, err := tls.X509KeyPair(cfg.ClientCert, cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}

	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(cfg.CACert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	// Custom verification: chain against the desktop CA, no hostname check
	verifyPeer := func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("no certificates presented")
		}

		cert, err := x509.ParseCertificate(rawCerts[0])
		if err != nil {
			return fmt.Errorf("failed to parse certificate: %w", err)
		}

		intermediates := x509.NewCertPool()
		for _, rawCert := range rawCerts[1:] {
			intermediateCert, err := x509.ParseCertificate(rawCert)
			if err != nil {
				continue
			}
			intermediates.AddCert(intermediateCert)
		}

		opts := x509.VerifyOptions{
			Roots:         caPool,
			Intermediates: intermediates,
			CurrentTime:   time.Now(),
			KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		}
		if _, err := cert.Verify(opts); err != nil {
			return fmt.Errorf("certificate chain verification failed: %w", err)
		}

		return nil
	}

	return &tls.Config{
		// TLS 1.3 only - no fallback
		MinVersion: tls.VersionTLS13,
		MaxVersion: tls.VersionTLS13,

		// Certificate for this device
		Certificates: []tls.Certificate{clientCert},

		// CA pool for verifying the desktop certificate
		RootCAs: caPool,

		// SNI only; verification happens in verifyPeer
		ServerName: cfg.ServerName,

		// ALPN protocols for supported major versions
		NextProtos: version.SupportedALPNProtocols(),

		// Curve preferences for key exchange
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},

		// Session tickets disabled (no resumption)
		SessionTicketsDisabled: true,

		// InsecureSkipVerify skips Go's built-in hostname verification;
		// verifyPeer handles chain verification against the desktop CA
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: verifyPeer,
	}, nil
}

// VerifyTLS13 checks that a TLS connection is using TLS 1.3.
func VerifyTLS13(state tls.ConnectionState) error {
	if state.Version != tls.VersionTLS13 {
		return fmt.Errorf("TLS version %x is not TLS 1.3 (0x0304)", state.Version)
	}
	return nil
}

// VerifyALPN checks that the negotiated ALPN protocol names a compatible
// protocol version.
func VerifyALPN(state tls.ConnectionState) error {
	major, err := version.MajorFromALPN(state.NegotiatedProtocol)
	if err != nil {
		return err
	}

	current, _ := version.Parse(version.Current)
	if !current.Compatible(version.ProtocolVersion{Major: major}) {
		return fmt.Errorf("ALPN protocol %q is not compatible with version %s", state.NegotiatedProtocol, version.Current)
	}
	return nil
}

// VerifyConnection performs standard Lens connection verification.
func VerifyConnection(state tls.ConnectionState) error {
	if err := VerifyTLS13(state); err != nil {
		return err
	}
	if err := VerifyALPN(state); err != nil {
		return err
	}
	return nil
}
