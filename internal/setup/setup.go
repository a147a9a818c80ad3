// Package setup initializes a fresh installation: it creates the database,
// the first (admin) account and, optionally, a self-signed TLS pair.
package setup

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	"traveldiary/internal/db"
	"traveldiary/internal/validate"
)

// EnvPassword supplies a password to setup and reset-password without a prompt.
const EnvPassword = "TRAVELDIARY_PASSWORD"

var ErrAlreadyInitialized = errors.New("already initialized: users exist")

type Options struct {
	DBPath     string
	UploadsDir string

	AdminUsername string
	AdminEmail    string
	// AdminPassword skips the prompt when set.
	AdminPassword string
	PasswordEnv   bool

	// TLSDir, when set, receives tls.crt and tls.key unless both exist.
	TLSDir string
}

// Result reports what setup produced.
type Result struct {
	Admin    *db.User
	CertPath string
	KeyPath  string
}

func Run(ctx context.Context, opt Options) (*Result, error) {
	if opt.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	if err := validate.Username(opt.AdminUsername); err != nil {
		return nil, fmt.Errorf("admin username: %w", err)
	}
	if !strings.Contains(opt.AdminEmail, "@") {
		return nil, errors.New("admin email is invalid")
	}
	if err := os.MkdirAll(filepath.Dir(opt.DBPath), 0o700); err != nil {
		return nil, err
	}
	if opt.UploadsDir != "" {
		if err := os.MkdirAll(opt.UploadsDir, 0o750); err != nil {
			return nil, err
		}
	}

	d, err := db.Open(ctx, opt.DBPath)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	_ = os.Chmod(opt.DBPath, 0o600)

	n, err := d.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrAlreadyInitialized
	}

	pass, err := resolvePassword("Set admin password", opt.AdminPassword, opt.PasswordEnv)
	if err != nil {
		return nil, err
	}
	admin := &db.User{Username: opt.AdminUsername, Email: opt.AdminEmail, IsAdmin: true}
	if err := admin.SetPassword(pass); err != nil {
		return nil, err
	}
	if err := d.CreateUser(ctx, admin); err != nil {
		return nil, err
	}

	res := &Result{Admin: admin}
	if opt.TLSDir != "" {
		res.CertPath = filepath.Join(opt.TLSDir, "tls.crt")
		res.KeyPath = filepath.Join(opt.TLSDir, "tls.key")
		if err := ensureTLSCert(res.CertPath, res.KeyPath); err != nil {
			return nil, fmt.Errorf("tls: %w", err)
		}
	}
	return res, nil
}

func resolvePassword(label, flagValue string, fromEnv bool) (string, error) {
	if flagValue != "" && fromEnv {
		return "", errors.New("choose one of --password or --password-env")
	}
	if fromEnv {
		v := strings.TrimSpace(os.Getenv(EnvPassword))
		if v == "" {
			return "", errors.New(EnvPassword + " is empty")
		}
		return v, nil
	}
	if flagValue != "" {
		v := strings.TrimSpace(flagValue)
		if v == "" {
			return "", errors.New("password is empty")
		}
		return v, nil
	}
	return promptPassword(label, os.Stdin, os.Stderr)
}

func promptPassword(label string, in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		for {
			fmt.Fprintf(out, "%s: ", label)
			p1b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			if err != nil {
				return "", err
			}
			fmt.Fprint(out, "Confirm password: ")
			p2b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			if err != nil {
				return "", err
			}
			p, msg := checkPair(string(p1b), string(p2b))
			if msg != "" {
				fmt.Fprintln(out, msg)
				continue
			}
			return p, nil
		}
	}
	return readPasswordPair(label, bufio.NewReader(in), out)
}

// readPasswordPair is the non-interactive fallback (e.g. piped input).
// Echo suppression isn't possible.
func readPasswordPair(label string, r *bufio.Reader, out io.Writer) (string, error) {
	for {
		fmt.Fprintf(out, "%s: ", label)
		p1, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		fmt.Fprint(out, "Confirm password: ")
		p2, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		p, msg := checkPair(p1, p2)
		if msg != "" {
			fmt.Fprintln(out, msg)
			continue
		}
		return p, nil
	}
}

func checkPair(a, b string) (string, string) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" {
		return "", "password cannot be empty"
	}
	if a != b {
		return "", "passwords do not match"
	}
	return a, ""
}

func ensureTLSCert(certPath, keyPath string) error {
	if fileExists(certPath) && fileExists(keyPath) {
		_, err := tls.LoadX509KeyPair(certPath, keyPath)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(certPath), 0o700); err != nil {
		return err
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return err
	}

	tmpl := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "traveldiary"},
		NotBefore:             time.Now().Add(-5 * time.Minute),
		NotAfter:              time.Now().Add(825 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
	}

	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, pub, priv)
	if err != nil {
		return err
	}
	if err := os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		return err
	}

	b, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return err
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: b}), 0o600); err != nil {
		return err
	}

	_, err = tls.LoadX509KeyPair(certPath, keyPath)
	return err
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
