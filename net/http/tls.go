package http

import (
	"crypto/tls"
	"crypto/x509"

	"github.com/pkg/errors"
)

// RecommendedCiphers contains the list of secure cipher suites recommended
// for general use.
var RecommendedCiphers = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// RecommendedCurves contains the list of elliptic curves recommended
// for general use.
var RecommendedCurves = []tls.CurveID{tls.X25519, tls.CurveP256}

// TLS defines available settings when enabling secure TLS communications.
type TLS struct {
	// Cert is the server's PEM-encoded certificate.
	Cert []byte

	// PrivateKey is the server's PEM-encoded private key.
	PrivateKey []byte

	// CustomCAs contains additional PEM-encoded CA certificates to trust.
	CustomCAs [][]byte

	// IncludeSystemCAs adds the host's trusted CA pool on top of any
	// custom CAs provided.
	IncludeSystemCAs bool

	// SupportedCiphers restricts the cipher suites offered by the server.
	SupportedCiphers []uint16

	// PreferredCurves restricts the elliptic curves offered by the server.
	PreferredCurves []tls.CurveID

	// MinVersion is the minimum TLS version accepted; TLS 1.2 when not set.
	MinVersion uint16
}

// Expand returns a TLS configuration instance based on the provided
// settings.
func (t TLS) Expand() (*tls.Config, error) {
	// Load key/pair
	cert, err := tls.X509KeyPair(t.Cert, t.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load key pair")
	}

	// Prepare cert pool
	var cp *x509.CertPool
	if t.IncludeSystemCAs {
		cp, err = x509.SystemCertPool()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load system CAs")
		}
	} else {
		cp = x509.NewCertPool()
	}

	// Append custom CA certs
	if len(t.CustomCAs) > 0 {
		for _, c := range t.CustomCAs {
			if !cp.AppendCertsFromPEM(c) {
				return nil, errors.New("failed to append provided CA certificates")
			}
		}
	}

	// Setup ciphers and curves
	ciphers := t.SupportedCiphers
	if len(ciphers) == 0 {
		ciphers = RecommendedCiphers
	}
	curves := t.PreferredCurves
	if len(curves) == 0 {
		curves = RecommendedCurves
	}
	minVersion := t.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}

	// Base TLS configuration
	return &tls.Config{
		Certificates:             []tls.Certificate{cert},
		CipherSuites:             ciphers,
		CurvePreferences:         curves,
		RootCAs:                  cp,
		PreferServerCipherSuites: true,
		MinVersion:               minVersion,
	}, nil
}
