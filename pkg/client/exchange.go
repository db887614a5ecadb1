package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lens-devtools/lens-go/pkg/cert"
	"github.com/lens-devtools/lens-go/pkg/log"
	"github.com/lens-devtools/lens-go/pkg/transport"
	"github.com/lens-devtools/lens-go/pkg/wire"
)

// runBootstrap dials the insecure port and runs the certificate
// exchange. The connection is always torn down afterwards; success is
// discovered by the next trusted attempt finding usable credentials.
// Loop-affine.
func (c *Client) runBootstrap() {
	step := c.steps.Start("bootstrap")

	setup, err := json.Marshal(wire.InsecureSetup{
		OS:     c.config.Identity.OS,
		Device: c.config.Identity.Device,
		App:    c.config.Identity.App,
	})
	if err != nil {
		c.attemptFailed(step, "setup payload", err)
		return
	}

	ev := c.newAttempt(false)
	conn, err := c.dialer.Dial(context.Background(), transport.DialConfig{
		Address:           c.addr(c.config.InsecurePort),
		Setup:             setup,
		KeepAliveInterval: c.keepAliveInterval(),
		Events:            ev,
		Diagnostics:       c.diag,
	})
	if err != nil {
		c.active = nil
		c.attemptFailed(step, "bootstrap connect", err)
		return
	}
	c.conn = conn

	if err := c.exchangeCertificates(conn); err != nil {
		c.failures++
		c.logger.Warn("certificate exchange failed", "error", err, "failures", c.failures)
		c.diag.Log(log.NewError(c.id, "certificate exchange", err.Error(), false))
		step.Fail(err.Error())
		// Teardown; the disconnect handler schedules the retry
		_ = conn.Disconnect()
		return
	}

	c.logger.Info("certificate exchange complete")
	step.Complete()

	// Reconnect trusted with the freshly written credentials
	_ = conn.Disconnect()
}

// exchangeCertificates generates a CSR and asks the desktop to sign it.
// The desktop writes the signed certificate and its CA certificate into
// the credential directory out-of-band; the response acknowledges
// receipt only. Older desktops reject the request with the unsupported
// sentinel, in which case the same payload is resent fire-and-forget
// with no way to confirm delivery. Loop-affine.
func (c *Client) exchangeCertificates(conn transport.Conn) error {
	step := c.steps.Start("ensure credential directory")
	if err := c.store.EnsureDir(); err != nil {
		step.Fail(err.Error())
		return fmt.Errorf("failed to prepare credential directory: %w", err)
	}
	step.Complete()

	step = c.steps.Start("generate signing request")
	err := c.generateCSR(
		c.config.Identity.App,
		c.store.Path(cert.CSRFileName),
		c.store.Path(cert.PrivateKeyFileName),
	)
	if err != nil {
		step.Fail(err.Error())
		return fmt.Errorf("failed to generate signing request: %w", err)
	}

	csr := c.store.Read(cert.CSRFileName)
	if len(csr) == 0 {
		step.Fail("signing request missing after generation")
		return fmt.Errorf("signing request missing after generation")
	}
	step.Complete()

	payload, err := json.Marshal(wire.NewSignCertificateRequest(string(csr), c.store.Dir()))
	if err != nil {
		return fmt.Errorf("failed to encode signing request: %w", err)
	}

	step = c.steps.Start("certificate exchange")
	ctx, cancel := context.WithTimeout(context.Background(), DefaultExchangeTimeout)
	defer cancel()

	_, err = conn.RequestResponse(ctx, payload)
	if err == nil {
		step.Complete()
		return nil
	}

	var remote *transport.RemoteError
	if errors.As(err, &remote) && wire.IsUnsupportedMethod(remote.Payload) {
		// Legacy desktop: resend fire-and-forget. No confirmation
		// exists; the next trusted attempt discovers whether it worked.
		c.logger.Info("desktop lacks certificate exchange support, using legacy path")
		if sendErr := conn.FireAndForget(payload); sendErr != nil {
			step.Fail(sendErr.Error())
			return fmt.Errorf("legacy exchange send failed: %w", sendErr)
		}
		step.Complete()
		return nil
	}

	step.Fail(err.Error())
	return fmt.Errorf("signing request rejected: %w", err)
}
