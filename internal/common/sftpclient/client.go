// Package sftpclient opens read-only SFTP sessions for pulling catalog exports.
package sftpclient

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"coach-matching/internal/common/config"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultTimeout = 20 * time.Second

// Client is an open SSH connection with an SFTP session on top.
type Client struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

// Dial connects to cfg.Addr(). Cancelling ctx abandons the dial.
func Dial(ctx context.Context, cfg config.SFTPConfig) (*Client, error) {
	sshCfg, err := clientConfig(cfg)
	if err != nil {
		return nil, err
	}

	type dialRes struct {
		client *ssh.Client
		err    error
	}
	ch := make(chan dialRes, 1)
	go func() {
		c, err := ssh.Dial("tcp", cfg.Addr(), sshCfg)
		ch <- dialRes{client: c, err: err}
	}()

	var sshClient *ssh.Client
	select {
	case <-ctx.Done():
		// the dial goroutine may still succeed; close what it returns
		go func() {
			if r := <-ch; r.client != nil {
				r.client.Close()
			}
		}()
		return nil, fmt.Errorf("sftp: dial canceled: %w", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("sftp: dial error: %w", r.err)
		}
		sshClient = r.client
	}

	sftpCli, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sftp: new client: %w", err)
	}
	return &Client{ssh: sshClient, sftp: sftpCli}, nil
}

// Open opens a remote file for reading.
func (c *Client) Open(path string) (io.ReadCloser, error) {
	f, err := c.sftp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sftp: open %s: %w", path, err)
	}
	return f, nil
}

func (c *Client) Close() error {
	sftpErr := c.sftp.Close()
	if err := c.ssh.Close(); err != nil {
		return err
	}
	return sftpErr
}

func clientConfig(cfg config.SFTPConfig) (*ssh.ClientConfig, error) {
	if cfg.Host == "" || cfg.User == "" {
		return nil, fmt.Errorf("sftp: host and user are required")
	}

	var auth []ssh.AuthMethod
	if cfg.PrivateKeyPath != "" {
		pem, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("sftp: read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("sftp: parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("sftp: no password or private key configured")
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsPath != "" {
		cb, err := knownhosts.New(cfg.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("sftp: load known_hosts: %w", err)
		}
		hostKey = cb
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Millisecond
	}

	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	}, nil
}
