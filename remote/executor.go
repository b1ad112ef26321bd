// Package remote executes shell command blocks on freshly provisioned hosts
// over SSH. Host keys are accepted silently and never persisted: the targets
// are ephemeral machines that did not exist a minute earlier, so there is no
// prior key to verify against.
package remote

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/wormgate/wormgate/errors"
)

// Runner executes a command block on a remote host
type Runner interface {
	// Execute streams the script to a remote shell at user@host:port and
	// waits for it to finish. All-or-nothing: any session failure or
	// non-zero remote exit is an error.
	Execute(ctx context.Context, user, host string, port int, script string) error
}

// SSHExecutor implements Runner over golang.org/x/crypto/ssh with
// public-key authentication.
type SSHExecutor struct {
	keyPath     string
	dialTimeout time.Duration
}

// Option configures an SSHExecutor
type Option func(*SSHExecutor)

// WithDialTimeout overrides the TCP dial timeout
func WithDialTimeout(d time.Duration) Option {
	return func(e *SSHExecutor) {
		e.dialTimeout = d
	}
}

// NewSSHExecutor creates an executor authenticating with the given private key
func NewSSHExecutor(keyPath string, opts ...Option) *SSHExecutor {
	e := &SSHExecutor{
		keyPath:     keyPath,
		dialTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// clientConfig builds the SSH client configuration for a login
func (e *SSHExecutor) clientConfig(user string) (*ssh.ClientConfig, error) {
	key, err := os.ReadFile(e.keyPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfiguration,
			fmt.Sprintf("failed to read private key %s", e.keyPath))
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfiguration,
			fmt.Sprintf("failed to parse private key %s", e.keyPath))
	}

	return &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		// Trust-on-first-use: the host was created moments ago.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         e.dialTimeout,
	}, nil
}

// dial opens an SSH connection to user@host:port
func (e *SSHExecutor) dial(user, host string, port int) (*ssh.Client, error) {
	cfg, err := e.clientConfig(user)
	if err != nil {
		return nil, err
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTransport,
			fmt.Sprintf("ssh dial %s@%s failed", user, addr))
	}
	return client, nil
}

// Execute implements Runner.Execute
func (e *SSHExecutor) Execute(ctx context.Context, user, host string, port int, script string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrTransport, "remote execution cancelled")
	}

	client, err := e.dial(user, host, port)
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return errors.Wrap(err, errors.ErrTransport,
			fmt.Sprintf("failed to open session on %s", host))
	}
	defer session.Close()

	tag := fmt.Sprintf("[REMOTE %s]", host)
	session.Stdin = strings.NewReader(script)
	session.Stdout = newLogWriter(tag)
	session.Stderr = newLogWriter(tag)

	log.Printf("%s running command block as %s", tag, user)
	if err := session.Run("/bin/sh -e"); err != nil {
		if _, ok := err.(*ssh.ExitError); ok {
			return errors.Wrap(err, errors.ErrRemoteExec,
				fmt.Sprintf("remote shell on %s exited non-zero", host))
		}
		return errors.Wrap(err, errors.ErrTransport,
			fmt.Sprintf("session on %s failed", host))
	}
	return nil
}

// logWriter forwards remote output line by line to the process log
type logWriter struct {
	tag string
	buf strings.Builder
}

func newLogWriter(tag string) *logWriter {
	return &logWriter{tag: tag}
}

// Write implements io.Writer
func (w *logWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		s := w.buf.String()
		idx := strings.IndexByte(s, '\n')
		if idx < 0 {
			break
		}
		log.Printf("%s %s", w.tag, s[:idx])
		w.buf.Reset()
		w.buf.WriteString(s[idx+1:])
	}
	return len(p), nil
}
