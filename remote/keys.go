package remote

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pkg/sftp"

	"github.com/wormgate/wormgate/errors"
)

// KeyInstaller pushes a local public key onto a remote account
type KeyInstaller interface {
	// InstallAuthorizedKey appends the public key at publicKeyPath to the
	// account's authorized_keys, creating ~/.ssh as needed. Installing an
	// already-present key is a no-op.
	InstallAuthorizedKey(ctx context.Context, user, host string, port int, publicKeyPath string) error
}

const (
	sshDir             = ".ssh"
	authorizedKeysPath = ".ssh/authorized_keys"
)

// InstallAuthorizedKey implements KeyInstaller over SFTP
func (e *SSHExecutor) InstallAuthorizedKey(ctx context.Context, user, host string, port int, publicKeyPath string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrTransport, "key installation cancelled")
	}

	keyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfiguration,
			fmt.Sprintf("failed to read public key %s", publicKeyPath))
	}
	pubKey := strings.TrimSpace(string(keyData))
	if pubKey == "" {
		return errors.New(errors.ErrConfiguration,
			fmt.Sprintf("public key %s is empty", publicKeyPath))
	}

	client, err := e.dial(user, host, port)
	if err != nil {
		return err
	}
	defer client.Close()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return errors.Wrap(err, errors.ErrTransport,
			fmt.Sprintf("sftp client creation on %s failed", host))
	}
	defer sftpClient.Close()

	if err := sftpClient.MkdirAll(sshDir); err != nil {
		if _, statErr := sftpClient.Stat(sshDir); statErr != nil {
			return errors.Wrap(err, errors.ErrTransport,
				fmt.Sprintf("failed to create %s on %s", sshDir, host))
		}
	}
	if err := sftpClient.Chmod(sshDir, 0o700); err != nil {
		return errors.Wrap(err, errors.ErrTransport,
			fmt.Sprintf("failed to chmod %s on %s", sshDir, host))
	}

	if existing, err := readRemoteFile(sftpClient, authorizedKeysPath); err == nil {
		if strings.Contains(existing, pubKey) {
			log.Printf("[REMOTE %s] key already authorized for %s", host, user)
			return nil
		}
	}

	f, err := sftpClient.OpenFile(authorizedKeysPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND)
	if err != nil {
		return errors.Wrap(err, errors.ErrTransport,
			fmt.Sprintf("failed to open %s on %s", authorizedKeysPath, host))
	}
	if _, err := f.Write([]byte(pubKey + "\n")); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrTransport,
			fmt.Sprintf("failed to append key to %s on %s", authorizedKeysPath, host))
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrTransport,
			fmt.Sprintf("failed to close %s on %s", authorizedKeysPath, host))
	}

	if err := sftpClient.Chmod(authorizedKeysPath, 0o600); err != nil {
		return errors.Wrap(err, errors.ErrTransport,
			fmt.Sprintf("failed to chmod %s on %s", authorizedKeysPath, host))
	}

	log.Printf("[REMOTE %s] authorized key installed for %s", host, user)
	return nil
}

// readRemoteFile slurps a remote file's contents
func readRemoteFile(client *sftp.Client, path string) (string, error) {
	f, err := client.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
