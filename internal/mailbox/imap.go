package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// IMAPConfig holds the IMAP server settings.
type IMAPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	// TLS selects implicit TLS; otherwise STARTTLS is used unless Insecure is set.
	TLS      bool
	Insecure bool
}

// NewIMAPDialer creates a Dialer for cfg.
func NewIMAPDialer(cfg IMAPConfig) *IMAPDialer {
	return &IMAPDialer{cfg: cfg}
}

// IMAPDialer opens IMAP sessions with go-imap.
type IMAPDialer struct {
	cfg IMAPConfig
}

// Dial connects and logs in. ctx bounds connection setup only; the
// caller must Close the returned session.
func (d *IMAPDialer) Dial(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(d.cfg.Host, d.cfg.Port)
	tlsConfig := &tls.Config{ServerName: d.cfg.Host}

	client, err := d.connect(ctx, addr, tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(d.cfg.Username, d.cfg.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("IMAP login as %s failed: %w", d.cfg.Username, err)
	}

	return &imapSession{client: client}, nil
}

func (d *IMAPDialer) connect(ctx context.Context, addr string, tlsConfig *tls.Config) (*imapclient.Client, error) {
	if d.cfg.TLS {
		dialer := &tls.Dialer{Config: tlsConfig}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return imapclient.New(conn, nil), nil
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if d.cfg.Insecure {
		return imapclient.New(conn, nil), nil
	}

	// NewStartTLS closes conn when the upgrade fails
	return imapclient.NewStartTLS(conn, &imapclient.Options{TLSConfig: tlsConfig})
}

type imapSession struct {
	client *imapclient.Client
}

func (s *imapSession) Select(mailbox string, readOnly bool) error {
	_, err := s.client.Select(mailbox, &imap.SelectOptions{ReadOnly: readOnly}).Wait()
	return err
}

func (s *imapSession) SearchUnseen() ([]uint32, error) {
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}

	data, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, err
	}

	uids := data.AllUIDs()
	ids := make([]uint32, 0, len(uids))
	for _, uid := range uids {
		ids = append(ids, uint32(uid))
	}

	return ids, nil
}

func (s *imapSession) Fetch(ids []uint32) (map[uint32][]byte, error) {
	uids := make([]imap.UID, 0, len(ids))
	for _, id := range ids {
		uids = append(uids, imap.UID(id))
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	bufs, err := s.client.Fetch(imap.UIDSetNum(uids...), fetchOpts).Collect()
	if err != nil {
		return nil, err
	}

	out := make(map[uint32][]byte, len(bufs))
	for _, buf := range bufs {
		out[uint32(buf.UID)] = buf.FindBodySection(bodySection)
	}

	return out, nil
}

func (s *imapSession) Append(mailbox string, raw []byte, flags []string) error {
	imapFlags := make([]imap.Flag, 0, len(flags))
	for _, f := range flags {
		imapFlags = append(imapFlags, imap.Flag(f))
	}

	cmd := s.client.Append(mailbox, int64(len(raw)), &imap.AppendOptions{
		Flags: imapFlags,
		Time:  time.Now(),
	})
	if _, err := cmd.Write(raw); err != nil {
		_ = cmd.Close()
		return fmt.Errorf("cmd.Write failed: %w", err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("cmd.Close failed: %w", err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("cmd.Wait failed: %w", err)
	}

	return nil
}

func (s *imapSession) Close() error {
	if err := s.client.Logout().Wait(); err != nil {
		_ = s.client.Close()
		return fmt.Errorf("client.Logout failed: %w", err)
	}

	return s.client.Close()
}
