package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/docreview/internal/auth"
	"github.com/felixgeelhaar/docreview/internal/errors"
	"github.com/felixgeelhaar/docreview/internal/session"
	"github.com/felixgeelhaar/docreview/internal/tui"
)

func newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication credentials",
		Long: `Manage your session with the document review service.

The access token and your cached profile are kept in the credential store
(~/.docreview/credentials.json by default, see 'docreview config').

Examples:
  docreview auth login --email rita@example.com
  docreview auth status
  docreview auth logout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	authCmd.AddCommand(newAuthLoginCmd(), newAuthLogoutCmd(), newAuthStatusCmd(), newAuthRegisterCmd())
	return authCmd
}

func newAuthLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Long: `Log in and load your profile.

Missing credentials are prompted for when running in a terminal. In scripts
pass --email and pipe the password with --password-stdin.

Examples:
  docreview auth login
  docreview auth login --email rita@example.com
  echo "$PASSWORD" | docreview auth login --email rita@example.com --password-stdin`,
		Args: cobra.NoArgs,
		RunE: runAuthLogin,
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password (prefer --password-stdin)")
	cmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	return cmd
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	fromStdin, _ := cmd.Flags().GetBool("password-stdin")

	if fromStdin {
		if password, err = readSecret(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	creds := tui.Credentials{Email: email, Password: password}
	if creds.Email == "" || creds.Password == "" {
		if !interactive() {
			return requiredFlagError("--email and --password-stdin", "docreview auth login --email <email> --password-stdin")
		}
		if creds, err = tui.PromptForCredentials(creds); err != nil {
			return err
		}
	}

	a, err := newApp(cmd.Context(), cc, nil)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	if err := a.loader.Login(cmd.Context(), creds.Email, creds.Password); err != nil {
		return a.fail("auth", err)
	}

	out := cmd.OutOrStdout()
	snap := a.session.Snapshot()
	if !snap.Loaded {
		// The token is kept; 'auth status' retries the profile.
		printWarning(out, "Logged in, but your profile could not be loaded. Run 'docreview auth status' to retry.")
		return nil
	}
	printSuccess(out, "Logged in as %s (%s)", snap.User.Email, snap.User.Role)
	return nil
}

// readSecret reads the first line of r.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read password from stdin", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cc, nil)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			out := cmd.OutOrStdout()
			authenticated := a.session.IsAuthenticated()
			if u, ok := a.session.CachedProfile(); ok && authenticated {
				fmt.Fprintf(out, "Logging out: %s\n", u.Email)
			}

			// Leftover profile entries are removed even without a token.
			a.loader.Logout()

			if !authenticated {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			printSuccess(out, "Logged out.")
			return nil
		},
	}
}

// statusReport is the output of 'auth status'.
type statusReport struct {
	Authenticated bool                 `json:"authenticated"`
	ProfileLoaded bool                 `json:"profileLoaded"`
	User          *session.UserProfile `json:"user,omitempty"`
	Cached        bool                 `json:"cached,omitempty"`
	ProfileError  string               `json:"profileError,omitempty"`
	Token         *tokenReport         `json:"token,omitempty"`
}

type tokenReport struct {
	Subject   string     `json:"subject,omitempty"`
	Email     string     `json:"email,omitempty"`
	Role      string     `json:"role,omitempty"`
	IssuedAt  *time.Time `json:"issuedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Expired   bool       `json:"expired"`
	Opaque    bool       `json:"opaque,omitempty"`
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Long: `Show who is logged in.

The profile is fetched from the service. When that fails the token is kept
and the profile cached at the last login is shown instead, marked as cached.
Token claims are decoded for display only; they are not verified.`,
		Args: cobra.NoArgs,
		RunE: runAuthStatus,
	}
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cc, nil)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	report := statusReport{}
	if token, ok := a.session.Token(); ok {
		report.Authenticated = true
		report.Token = inspectToken(token, time.Now())

		if err := a.loader.Restore(cmd.Context()); err != nil {
			report.ProfileError = strings.SplitN(err.Error(), "\n", 2)[0]
			_ = a.fail("auth", err)
		}
	}

	snap := a.session.Snapshot()
	report.ProfileLoaded = snap.Loaded
	report.User = snap.User
	if report.Authenticated && report.User == nil {
		if u, ok := a.session.CachedProfile(); ok {
			report.User = &u
			report.Cached = true
		}
	}

	out := cmd.OutOrStdout()
	if cc.JSON() {
		return printJSON(out, report)
	}
	printStatus(out, report)
	return nil
}

func inspectToken(token string, now time.Time) *tokenReport {
	info, err := auth.InspectToken(token)
	if err != nil {
		return &tokenReport{Opaque: true}
	}
	r := &tokenReport{
		Subject: info.Subject,
		Email:   info.Email,
		Role:    info.Role,
		Expired: info.Expired(now),
	}
	if !info.IssuedAt.IsZero() {
		r.IssuedAt = &info.IssuedAt
	}
	if !info.ExpiresAt.IsZero() {
		r.ExpiresAt = &info.ExpiresAt
	}
	return r
}

func printStatus(w io.Writer, r statusReport) {
	if !r.Authenticated {
		fmt.Fprintln(w, "Not logged in.")
		fmt.Fprintln(w, mutedStyle.Render("Run 'docreview auth login' to log in."))
		return
	}

	switch {
	case r.User != nil && !r.Cached:
		printSuccess(w, "Logged in as %s (%s)", r.User.Email, r.User.Role)
		fmt.Fprintf(w, "  Name: %s\n  ID:   %s\n", r.User.FullName, r.User.ID)
	case r.User != nil:
		printWarning(w, "Logged in; profile could not be refreshed")
		fmt.Fprintf(w, "  Cached profile: %s (%s)\n", r.User.Email, r.User.Role)
	default:
		printWarning(w, "Logged in; profile not loaded")
	}
	if r.ProfileError != "" {
		fmt.Fprintf(w, "  Error: %s\n", r.ProfileError)
	}

	if r.Token == nil {
		return
	}
	if r.Token.Opaque {
		fmt.Fprintln(w, "  Token: opaque")
		return
	}
	if r.Token.ExpiresAt != nil {
		state := "valid"
		if r.Token.Expired {
			state = warnStyle.Render("expired")
		}
		fmt.Fprintf(w, "  Token: %s until %s\n", state, r.Token.ExpiresAt.Local().Format(time.RFC1123))
	}
}

func newAuthRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create a new account. Registering does not log you in.

Examples:
  docreview auth register
  docreview auth register --email bob@example.com --name "Bob" --role USER --password-stdin`,
		Args: cobra.NoArgs,
		RunE: runAuthRegister,
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("name", "", "full name")
	cmd.Flags().String("role", "", "USER or REVIEWER (default USER)")
	cmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	return cmd
}

func runAuthRegister(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	roleFlag, _ := cmd.Flags().GetString("role")
	fromStdin, _ := cmd.Flags().GetBool("password-stdin")

	req := auth.RegisterRequest{Email: email, FullName: name}
	if roleFlag != "" {
		role, ok := session.ParseRole(roleFlag)
		if !ok {
			return invalidValueError("--role", roleFlag, "USER, REVIEWER")
		}
		req.Role = role
	}
	if fromStdin {
		if req.Password, err = readSecret(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	if req.Email == "" || req.FullName == "" || req.Password == "" {
		if !interactive() {
			return requiredFlagError("--email, --name and --password-stdin", "docreview auth register --email <email> --name <name> --password-stdin")
		}
		if req, err = tui.PromptForRegistration(req); err != nil {
			return err
		}
	}

	a, err := newApp(cmd.Context(), cc, nil)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	user, err := a.loader.Register(cmd.Context(), req)
	if err != nil {
		return a.fail("auth", err)
	}

	out := cmd.OutOrStdout()
	if cc.JSON() {
		return printJSON(out, user)
	}
	printSuccess(out, "Registered %s (%s)", user.Email, user.Role)
	fmt.Fprintln(out, mutedStyle.Render("Run 'docreview auth login' to log in."))
	return nil
}
