package auth

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
)

// Authenticator is the server side of the encryption handshake: it
// owns the RSA key pair offered in the encryption request and decrypts
// what the client sends back. Used to stand in for a real server when
// testing the handshake.
type Authenticator interface {
	// PublicKey returns the public key encoded in ASN.1 DER form.
	PublicKey() []byte
	// Verify verifies the "verify token" sent by the joining client.
	Verify(encryptedVerifyToken, actualVerifyToken []byte) (equal bool, err error)
	// DecryptSharedSecret decrypts the shared secret sent by the client.
	DecryptSharedSecret(encrypted []byte) (decrypted []byte, err error)
	// GenerateServerID generates the digest the client reports to the
	// session server before enabling encryption.
	GenerateServerID(decryptedSharedSecret []byte) (serverID string, err error)
}

// DefaultPrivateKeyBits is the default bit size of a generated private key.
const DefaultPrivateKeyBits = 1024

// NewAuthenticator returns an Authenticator with the given private
// key, generating one when nil.
func NewAuthenticator(private *rsa.PrivateKey) (Authenticator, error) {
	var err error
	if private == nil {
		private, err = rsa.GenerateKey(rand.Reader, DefaultPrivateKeyBits)
		if err != nil {
			return nil, fmt.Errorf("error generate private key: %v", err)
		}
	}

	public, err := x509.MarshalPKIXPublicKey(private.Public())
	if err != nil {
		return nil, fmt.Errorf("error form public key to PKIX, ASN.1 DER: %v", err)
	}

	private.Precompute()

	return &authenticator{
		private: private,
		public:  public,
	}, nil
}

type authenticator struct {
	private *rsa.PrivateKey
	public  []byte // ASN.1 DER form encoded
}

var _ Authenticator = (*authenticator)(nil)

func (a *authenticator) PublicKey() []byte {
	return a.public
}

func (a *authenticator) Verify(encryptedVerifyToken, actualVerifyToken []byte) (bool, error) {
	decryptedVerifyToken, err := rsa.DecryptPKCS1v15(rand.Reader, a.private, encryptedVerifyToken)
	if err != nil {
		return false, fmt.Errorf("error decrypt verify token: %v", err)
	}
	return bytes.Equal(decryptedVerifyToken, actualVerifyToken), nil
}

func (a *authenticator) DecryptSharedSecret(encrypted []byte) (decrypted []byte, err error) {
	return rsa.DecryptPKCS1v15(rand.Reader, a.private, encrypted)
}

func (a *authenticator) GenerateServerID(decryptedSharedSecret []byte) (string, error) {
	return ServerHash("", decryptedSharedSecret, a.public), nil
}
