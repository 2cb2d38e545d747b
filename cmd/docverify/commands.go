package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"docverify/internal/client"
	"docverify/internal/fingerprint"
	"docverify/internal/services"
)

// readPassword is swapped out in tests.
var readPassword = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }

var errUsage = errors.New("invalid usage")

type cli struct {
	server    string
	tokenFile string
	stdout    io.Writer
	stderr    io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{stdout: stdout, stderr: stderr}
	fs := flag.NewFlagSet("docverify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	fs.StringVar(&c.server, "server", envOr("DOCVERIFY_SERVER", "http://localhost:8080"), "API base URL")
	fs.StringVar(&c.tokenFile, "token-file", envOr("DOCVERIFY_TOKEN_FILE", defaultTokenFile()), "where the session token is kept")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return errUsage
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "fingerprint":
		return c.fingerprint(rest)
	case "login":
		return c.login(ctx, rest)
	case "upload":
		return c.upload(ctx, rest)
	case "verify":
		return c.verify(ctx, rest)
	case "documents":
		return c.documents(ctx)
	case "logs":
		return c.logs(ctx)
	case "delete":
		return c.delete(ctx, rest)
	default:
		usage(stderr)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".docverify-token"
	}
	return filepath.Join(dir, "docverify", "token")
}

func (c *cli) api() *client.Client {
	tok := os.Getenv("DOCVERIFY_TOKEN")
	if tok == "" {
		if b, err := os.ReadFile(c.tokenFile); err == nil {
			tok = strings.TrimSpace(string(b))
		}
	}
	return client.New(c.server, tok)
}

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: expected %s", errUsage, what)
	}
	return args[0], nil
}

func (c *cli) fingerprint(args []string) error {
	path, err := oneArg(args, "FILE")
	if err != nil {
		return err
	}
	d, err := fingerprint.FromFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s  %s\n", d, path)
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fmt.Fprint(c.stderr, "Email: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return err
		}
		*email = strings.TrimSpace(line)
	}
	fmt.Fprint(c.stderr, "Password: ")
	pw, err := readPassword()
	fmt.Fprintln(c.stderr)
	if err != nil {
		return err
	}

	id, tok, err := c.api().Login(ctx, *email, string(pw))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.tokenFile), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(c.tokenFile, []byte(tok+"\n"), 0o600); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "signed in as %s (%s)\n", id.Email, id.Role)
	return nil
}

func (c *cli) upload(ctx context.Context, args []string) error {
	path, err := oneArg(args, "FILE")
	if err != nil {
		return err
	}
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	d, err := fingerprint.FromFile(path)
	if err != nil {
		return err
	}
	doc, err := c.api().Upload(ctx, services.UploadInput{
		Name: filepath.Base(path),
		Size: st.Size(),
		Type: mime.TypeByExtension(filepath.Ext(path)),
		Hash: d,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "uploaded %s\nid    %s\nhash  %s\n", doc.Name, doc.ID, doc.Hash)
	return nil
}

func (c *cli) verify(ctx context.Context, args []string) error {
	path, err := oneArg(args, "FILE")
	if err != nil {
		return err
	}
	d, err := fingerprint.FromFile(path)
	if err != nil {
		return err
	}
	out, err := c.api().Verify(ctx, services.VerifyInput{Hash: d, DocumentName: filepath.Base(path)})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, out.Message)
	if out.Document != nil {
		fmt.Fprintf(c.stdout, "matches %s (%s), uploaded %s\n", out.Document.Name, out.Document.ID, out.Document.UploadedAt.Format("2006-01-02 15:04"))
	}
	if !out.Verified {
		return errors.New("not verified")
	}
	return nil
}

func (c *cli) documents(ctx context.Context) error {
	docs, err := c.api().Documents(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tUPLOADED\tHASH")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", d.ID, d.Name, d.Size, d.UploadedAt.Format("2006-01-02 15:04"), d.Hash)
	}
	return tw.Flush()
}

func (c *cli) logs(ctx context.Context) error {
	entries, err := c.api().AuditLogs(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tSTATUS\tUSER\tDOCUMENT")
	for _, e := range entries {
		user := "-"
		if e.User != nil {
			user = e.User.Email
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.Status, user, e.DocumentName)
	}
	return tw.Flush()
}

func (c *cli) delete(ctx context.Context, args []string) error {
	id, err := oneArg(args, "ID")
	if err != nil {
		return err
	}
	if err := c.api().Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "deleted %s\n", id)
	return nil
}
