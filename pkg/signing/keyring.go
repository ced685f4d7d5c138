// Package signing owns the repository signing key and everything signed with
// it: RPM and Debian packages, YUM repomd.xml and APT Release files.
//
// The key moves through three states. NoKey until Ensure runs; KeyGenerated
// once a fresh key has been written to the home directory; KeyImported once
// it is known to gpg and the RPM database. A home directory that already
// holds every key marker goes straight to KeyImported.
package signing

import (
	"bytes"
	"context"
	"crypto"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/execute"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
	"github.com/glorpus-work/apprepo/pkg/platform"
)

// KeyState is the lifecycle state of the repository key.
type KeyState int

const (
	NoKey KeyState = iota
	KeyGenerated
	KeyImported
)

func (s KeyState) String() string {
	switch s {
	case NoKey:
		return "no-key"
	case KeyGenerated:
		return "generated"
	case KeyImported:
		return "imported"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Files kept in the home directory.
const (
	SecretKeyFile = "secring.asc"
	PublicKeyFile = "gpg.key"
	GnupgDir      = ".gnupg"
	RPMMacrosFile = ".rpmmacros"
)

// Supported key algorithms.
const (
	AlgorithmRSA     = "rsa"
	AlgorithmEd25519 = "ed25519"
)

// KeyConfig is the identity and shape of a generated key.
type KeyConfig struct {
	Name      string
	Comment   string
	Email     string
	Algorithm string
	Bits      int
}

const rpmMacrosTemplate = `%%_signature gpg
%%_gpg_name %s
%%_gpg_path %s
%%__gpg_sign_cmd %%{__gpg} \
    gpg --batch --no-verbose --no-armor --pinentry-mode loopback \
    --passphrase-fd 3 --no-secmem-warning -u "%%{_gpg_name}" \
    -sbo %%{__signature_filename} %%{__plaintext_filename}
`

const (
	defaultRNGScript   = "/etc/init.d/rng-tools"
	defaultRNGDefaults = "/etc/default/rng-tools"
)

// Keyring manages the key material below a home directory.
type Keyring struct {
	home       string
	cfg        KeyConfig
	runner     execute.Runner
	fixEntropy bool

	rngScript   string
	rngDefaults string
	geteuid     func() int

	mu     sync.RWMutex
	state  KeyState
	entity *openpgp.Entity
}

// NewKeyring creates a keyring rooted at home. Nothing is read until Ensure
// or Load is called.
func NewKeyring(home string, cfg KeyConfig, runner execute.Runner, fixEntropy bool) *Keyring {
	return &Keyring{
		home:        home,
		cfg:         cfg,
		runner:      runner,
		fixEntropy:  fixEntropy,
		rngScript:   defaultRNGScript,
		rngDefaults: defaultRNGDefaults,
		geteuid:     os.Geteuid,
	}
}

func (k *Keyring) SecretKeyPath() string { return filepath.Join(k.home, SecretKeyFile) }
func (k *Keyring) PublicKeyPath() string { return filepath.Join(k.home, PublicKeyFile) }
func (k *Keyring) GnupgHome() string     { return filepath.Join(k.home, GnupgDir) }
func (k *Keyring) RPMMacrosPath() string { return filepath.Join(k.home, RPMMacrosFile) }

// State returns the current key state.
func (k *Keyring) State() KeyState {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.state
}

// Entity returns the loaded signing entity.
func (k *Keyring) Entity() (*openpgp.Entity, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.entity == nil {
		return nil, errutils.ErrKeyMissing
	}
	return k.entity, nil
}

func (k *Keyring) complete() bool {
	return fsutil.IsRegularFile(k.SecretKeyPath()) &&
		fsutil.IsRegularFile(k.PublicKeyPath()) &&
		fsutil.IsDir(k.GnupgHome()) &&
		fsutil.IsRegularFile(k.RPMMacrosPath())
}

// Ensure makes a usable key available. It reports fresh=true when a new key
// was generated, in which case every existing package must be re-signed.
func (k *Keyring) Ensure(ctx context.Context) (fresh bool, err error) {
	if k.complete() {
		if err := k.Load(); err != nil {
			return false, err
		}
		k.setState(KeyImported)
		logger.Debug("Using existing signing key", logger.Fields{"home": k.home})
		return false, nil
	}

	if k.fixEntropy {
		k.FixEntropy(ctx)
	}

	logger.Info("Generating repository signing key", logger.Fields{"algorithm": k.cfg.Algorithm, "home": k.home})
	if err := k.generate(); err != nil {
		return false, err
	}
	if err := k.Load(); err != nil {
		return false, err
	}
	k.setState(KeyGenerated)

	if err := k.importKey(ctx); err != nil {
		return true, err
	}
	k.setState(KeyImported)
	logger.Success("Signing key ready", logger.Fields{"fingerprint": k.Fingerprint()})
	return true, nil
}

func (k *Keyring) setState(s KeyState) {
	k.mu.Lock()
	k.state = s
	k.mu.Unlock()
}

func (k *Keyring) packetConfig() (*packet.Config, error) {
	now := time.Now().Truncate(time.Second)
	cfg := &packet.Config{
		DefaultHash: crypto.SHA256,
		Time:        func() time.Time { return now },
	}
	switch strings.ToLower(k.cfg.Algorithm) {
	case "", AlgorithmRSA:
		cfg.Algorithm = packet.PubKeyAlgoRSA
		cfg.RSABits = k.cfg.Bits
		if cfg.RSABits == 0 {
			cfg.RSABits = 4096
		}
	case AlgorithmEd25519:
		cfg.Algorithm = packet.PubKeyAlgoEdDSA
		cfg.Curve = packet.Curve25519
	default:
		return nil, errutils.ErrInvalidKeyAlgorithmWithDetails(k.cfg.Algorithm)
	}
	return cfg, nil
}

func (k *Keyring) generate() error {
	cfg, err := k.packetConfig()
	if err != nil {
		return err
	}
	entity, err := openpgp.NewEntity(k.cfg.Name, k.cfg.Comment, k.cfg.Email, cfg)
	if err != nil {
		return errutils.Wrap(err, "failed to generate signing key")
	}

	var secret bytes.Buffer
	w, err := armor.Encode(&secret, openpgp.PrivateKeyType, nil)
	if err != nil {
		return err
	}
	if err := entity.SerializePrivate(w, cfg); err != nil {
		return errutils.Wrap(err, "failed to serialize private key")
	}
	if err := w.Close(); err != nil {
		return err
	}

	var public bytes.Buffer
	w, err = armor.Encode(&public, openpgp.PublicKeyType, nil)
	if err != nil {
		return err
	}
	if err := entity.Serialize(w); err != nil {
		return errutils.Wrap(err, "failed to serialize public key")
	}
	if err := w.Close(); err != nil {
		return err
	}

	if err := fsutil.EnsureDirPerm(k.home, fsutil.DirModeSecure); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(k.SecretKeyPath(), secret.Bytes(), fsutil.FileModeSecure); err != nil {
		return errutils.Wrap(err, "failed to write secret key")
	}
	if err := fsutil.WriteFileAtomic(k.PublicKeyPath(), public.Bytes(), fsutil.FileModeDefault); err != nil {
		return errutils.Wrap(err, "failed to write public key")
	}
	return nil
}

// Load reads the armored secret key from the home directory.
func (k *Keyring) Load() error {
	f, err := os.Open(k.SecretKeyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return errutils.ErrKeyMissing
		}
		return err
	}
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return errutils.Wrapf(err, "failed to read %s", k.SecretKeyPath())
	}
	if len(entities) == 0 || entities[0].PrivateKey == nil {
		return errutils.ErrKeyMissing
	}

	k.mu.Lock()
	k.entity = entities[0]
	k.mu.Unlock()
	return nil
}

// Fingerprint returns the hex fingerprint of the loaded key, or "".
func (k *Keyring) Fingerprint() string {
	entity, err := k.Entity()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%X", entity.PrimaryKey.Fingerprint)
}

// importKey hands the key to gpg and rpm, which sign packages on their own.
func (k *Keyring) importKey(ctx context.Context) error {
	if err := fsutil.EnsureDirPerm(k.GnupgHome(), fsutil.DirModePrivate); err != nil {
		return err
	}
	if _, err := k.runner.Run(ctx, execute.Command{
		Name: "gpg",
		Args: []string{"--batch", "--homedir", k.GnupgHome(), "--import", k.SecretKeyPath()},
	}); err != nil {
		return errutils.Wrap(err, "failed to import key into gpg")
	}

	macros := fmt.Sprintf(rpmMacrosTemplate, k.cfg.Name, k.GnupgHome())
	if err := fsutil.WriteFileAtomic(k.RPMMacrosPath(), []byte(macros), fsutil.FileModeDefault); err != nil {
		return errutils.Wrap(err, "failed to write rpm macros")
	}

	if _, err := k.runner.Run(ctx, execute.Command{
		Name: "rpm",
		Args: []string{"--import", k.PublicKeyPath()},
	}); err != nil {
		return errutils.Wrap(err, "failed to import key into the rpm database")
	}
	return nil
}

// Publish places the public key at dest, replacing an older copy.
func (k *Keyring) Publish(dest string) (string, error) {
	return fsutil.PlaceOrOverride(k.PublicKeyPath(), dest)
}

// FixEntropy points rng-tools at /dev/urandom so key generation does not
// stall on idle machines. It only runs as root and every step may fail.
func (k *Keyring) FixEntropy(ctx context.Context) {
	if k.geteuid() != 0 || !fsutil.Exists(k.rngScript) {
		return
	}
	logger.Info("Feeding rng-tools from /dev/urandom")
	_, _ = k.runner.Run(ctx, execute.Command{Name: k.rngScript, Args: []string{"stop"}, AllowFailure: true})

	f, err := os.OpenFile(k.rngDefaults, os.O_APPEND|os.O_CREATE|os.O_WRONLY, fsutil.FileModeDefault)
	if err != nil {
		logger.Warn("Could not update rng-tools defaults", logger.Fields{"error": err.Error()})
	} else {
		_, _ = f.WriteString("HRNGDEVICE=/dev/urandom\n")
		_ = f.Close()
	}

	_, _ = k.runner.Run(ctx, execute.Command{Name: k.rngScript, Args: []string{"start"}, AllowFailure: true})
}

// DigestFor returns the hash used to sign the Release file of an APT codename.
func DigestFor(codename string) crypto.Hash {
	return platform.ReleaseDigest(codename)
}
