package manta

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"github.com/tarput-io/tarput/internal/filex"
)

// Signer produces http-signature authorization headers: the request's
// date header signed with the account's RSA key, identified by
// /{account}/keys/{md5-fingerprint}.
type Signer struct {
	keyID string
	key   *rsa.PrivateKey
}

// NewSigner builds a signer from an already-parsed RSA key.
func NewSigner(account string, key *rsa.PrivateKey) (*Signer, error) {
	pub, err := ssh.NewPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("compute key fingerprint: %w", err)
	}
	fp := ssh.FingerprintLegacyMD5(pub)
	return &Signer{
		keyID: fmt.Sprintf("/%s/keys/%s", account, fp),
		key:   key,
	}, nil
}

// LoadSigner reads an OpenSSH private key file ("~" expands to the home
// directory) and builds a signer for account. Encrypted keys trigger the
// prompt callback for the passphrase; pass nil to refuse encrypted keys.
func LoadSigner(account, keyFile string, prompt func(msg string) ([]byte, error)) (*Signer, error) {
	path, err := filex.ExpandHome(keyFile)
	if err != nil {
		return nil, err
	}

	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", path, err)
	}

	raw, err := ssh.ParseRawPrivateKey(pemBytes)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		if prompt == nil {
			return nil, fmt.Errorf("key %s is encrypted and no passphrase prompt is available", path)
		}
		pass, perr := prompt(fmt.Sprintf("Enter passphrase for %s: ", path))
		if perr != nil {
			return nil, fmt.Errorf("read passphrase: %w", perr)
		}
		raw, err = ssh.ParseRawPrivateKeyWithPassphrase(pemBytes, pass)
	}
	if err != nil {
		return nil, fmt.Errorf("parse key %s: %w", path, err)
	}

	key, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key %s: only RSA keys are supported for request signing, got %T", path, raw)
	}

	return NewSigner(account, key)
}

// KeyID returns the signer's key identifier.
func (s *Signer) KeyID() string { return s.keyID }

// SignRequest stamps req with a date header and the matching
// http-signature authorization header.
func (s *Signer) SignRequest(req *http.Request) error {
	date := time.Now().UTC().Format(http.TimeFormat)
	req.Header.Set("Date", date)

	digest := sha256.Sum256([]byte("date: " + date))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf(
		"Signature keyId=%q,algorithm=%q,headers=%q,signature=%q",
		s.keyID, "rsa-sha256", "date", base64.StdEncoding.EncodeToString(sig)))
	return nil
}

// TerminalPrompt reads a secret from the controlling terminal without
// echoing it. Suitable as the prompt callback for LoadSigner.
func TerminalPrompt(msg string) ([]byte, error) {
	fmt.Fprint(os.Stderr, msg)
	defer fmt.Fprintln(os.Stderr)
	return term.ReadPassword(int(os.Stdin.Fd()))
}
