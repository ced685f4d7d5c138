package signing

import (
	"bytes"
	"context"
	"crypto"
	"os"
	"path/filepath"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/execute"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
)

// PassphrasePrompt is the only prompt rpm --addsign may show.
const PassphrasePrompt = "Enter pass phrase:"

// DefaultRPMSignTimeout bounds the rpm --addsign dialogue.
const DefaultRPMSignTimeout = 120 * time.Second

// Signer signs packages and repository metadata with the keyring's key.
type Signer struct {
	keyring    *Keyring
	runner     execute.Runner
	rpmTimeout time.Duration
}

// NewSigner creates a signer. A zero rpmTimeout selects DefaultRPMSignTimeout.
func NewSigner(keyring *Keyring, runner execute.Runner, rpmTimeout time.Duration) *Signer {
	if rpmTimeout <= 0 {
		rpmTimeout = DefaultRPMSignTimeout
	}
	return &Signer{keyring: keyring, runner: runner, rpmTimeout: rpmTimeout}
}

// PublicKeyPath is the armored public key served next to signed metadata.
func (s *Signer) PublicKeyPath() string {
	return s.keyring.PublicKeyPath()
}

// SignRPM embeds a signature into the RPM at path. rpm rewrites the file in
// place, so the signing runs on a working copy that replaces the original
// only on success.
func (s *Signer) SignRPM(ctx context.Context, path string) error {
	work := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".signing")
	if err := fsutil.Copy(path, work); err != nil {
		return errutils.Wrapf(err, "failed to prepare %s for signing", path)
	}

	err := s.runner.Interact(ctx, execute.Command{
		Name: "rpm",
		Args: []string{"--addsign", work},
		Dir:  filepath.Dir(path),
	}, []execute.Exchange{{Prompt: PassphrasePrompt, Reply: ""}}, s.rpmTimeout)
	if err != nil {
		_ = fsutil.RemoveIfExists(work)
		return errutils.Wrapf(err, "failed to sign %s", filepath.Base(path))
	}

	if err := os.Rename(work, path); err != nil {
		_ = fsutil.RemoveIfExists(work)
		return err
	}
	logger.Debug("Signed rpm", logger.Fields{"file": filepath.Base(path)})
	return nil
}

// SignDEB embeds a builder signature into the Debian package at path.
func (s *Signer) SignDEB(ctx context.Context, path string) error {
	if _, err := s.runner.Run(ctx, execute.Command{
		Name: "dpkg-sig",
		Args: []string{"--sign", "builder", path},
		Dir:  filepath.Dir(path),
	}); err != nil {
		return errutils.Wrapf(err, "failed to sign %s", filepath.Base(path))
	}
	logger.Debug("Signed deb", logger.Fields{"file": filepath.Base(path)})
	return nil
}

// signatureConfig pins the signature time to the modification time of the
// signed file, never earlier than the key itself.
func (s *Signer) signatureConfig(entity *openpgp.Entity, src string, hash crypto.Hash) (*packet.Config, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	at := info.ModTime().UTC().Truncate(time.Second)
	if created := entity.PrimaryKey.CreationTime; at.Before(created) {
		at = created
	}
	return &packet.Config{
		DefaultHash: hash,
		Time:        func() time.Time { return at },
	}, nil
}

// DetachSign writes an armored detached signature of src to dest.
func (s *Signer) DetachSign(src, dest string, hash crypto.Hash) error {
	entity, err := s.keyring.Entity()
	if err != nil {
		return err
	}
	if err := fsutil.RemoveIfExists(dest); err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	cfg, err := s.signatureConfig(entity, src, hash)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&out, entity, bytes.NewReader(data), cfg); err != nil {
		return errutils.Wrapf(err, "failed to sign %s", filepath.Base(src))
	}
	return fsutil.WriteFileAtomic(dest, out.Bytes(), fsutil.FileModeDefault)
}

// ClearSign writes src wrapped in a cleartext signature to dest.
func (s *Signer) ClearSign(src, dest string, hash crypto.Hash) error {
	entity, err := s.keyring.Entity()
	if err != nil {
		return err
	}
	if err := fsutil.RemoveIfExists(dest); err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	cfg, err := s.signatureConfig(entity, src, hash)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	w, err := clearsign.Encode(&out, entity.PrivateKey, cfg)
	if err != nil {
		return errutils.Wrapf(err, "failed to sign %s", filepath.Base(src))
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(dest, out.Bytes(), fsutil.FileModeDefault)
}
