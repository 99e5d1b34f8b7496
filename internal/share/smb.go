// Package share uploads staged recordings onto the SMB file share.
package share

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strings"

	"github.com/hirochachacha/go-smb2"
)

type Config struct {
	// Address is host or host:port; port 445 is assumed when absent.
	Address   string
	ShareName string
	Username  string
	Password  string
	Domain    string
}

// Client dials a fresh SMB session per upload; there is no persistent
// connection pool, matching the one-job-at-a-time queue discipline.
type Client struct {
	cfg Config
}

func New(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Upload copies localPath to remotePath (forward-slash separated, relative to
// the share root), creating intermediate directories as needed.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string) error {
	addr := c.cfg.Address
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "445")
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	smbDialer := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     c.cfg.Username,
			Password: c.cfg.Password,
			Domain:   c.cfg.Domain,
		},
	}
	session, err := smbDialer.DialContext(ctx, conn)
	if err != nil {
		return fmt.Errorf("smb session: %w", err)
	}
	defer func() { _ = session.Logoff() }()

	fs, err := session.Mount(c.cfg.ShareName)
	if err != nil {
		return fmt.Errorf("mount share %s: %w", c.cfg.ShareName, err)
	}
	defer func() { _ = fs.Umount() }()
	fs = fs.WithContext(ctx)

	remote := strings.ReplaceAll(remotePath, "/", `\`)
	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := fs.MkdirAll(strings.ReplaceAll(dir, "/", `\`), 0o755); err != nil {
			return fmt.Errorf("create remote directory %s: %w", dir, err)
		}
	}

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := fs.Create(remote)
	if err != nil {
		return fmt.Errorf("create remote file %s: %w", remotePath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("write remote file %s: %w", remotePath, err)
	}
	return dst.Close()
}
