package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TemporalTLS builds the mTLS config for the provisioning workflow
// client. With no keypair configured it returns nil, nil and the
// connection stays plaintext, which is the local development setup.
func (c *Config) TemporalTLS() (*tls.Config, error) {
	if c.TemporalTLSCert == "" && c.TemporalTLSKey == "" {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(c.TemporalTLSCert, c.TemporalTLSKey)
	if err != nil {
		return nil, fmt.Errorf("load temporal client keypair: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		ServerName:   c.TemporalTLSServerName,
	}

	if c.TemporalTLSCACert != "" {
		caPEM, err := os.ReadFile(c.TemporalTLSCACert)
		if err != nil {
			return nil, fmt.Errorf("read temporal CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("parse temporal CA certificate %s: no certificates found", c.TemporalTLSCACert)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}
