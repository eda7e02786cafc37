package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"viewledger/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API tokens",
	Long: `Manage stored metrics API tokens securely.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - VIEWLEDGER_API_TOKEN environment variable (read-only fallback)`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store an API token securely",
	Long: `Store a metrics API token in the system keychain or encrypted file.

The token is read from the terminal without echo. If no profile name
is given, the token is stored under the "default" profile.`,
	Example: `  # Store the default token
  viewledger auth login

  # Store a token under a named profile
  viewledger auth login staging`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove a stored token",
	Args:  cobra.MaximumNArgs(1),
	Run:   runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored tokens",
	Long:  `List stored token profiles with the token values masked.`,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func profileArg(args []string) string {
	if len(args) == 1 {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultProfile
}

func runLogin(cmd *cobra.Command, args []string) {
	profile := profileArg(args)

	fmt.Printf("API token for profile %q: ", profile)
	tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		// Not a terminal; fall back to a plain line read.
		reader := bufio.NewReader(os.Stdin)
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			fmt.Fprintln(os.Stderr, "Failed to read token:", readErr)
			os.Exit(1)
		}
		tokenBytes = []byte(strings.TrimSpace(line))
	}

	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		fmt.Fprintln(os.Stderr, "No token entered")
		os.Exit(1)
	}

	mgr, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to open token store:", err)
		os.Exit(1)
	}

	if err := mgr.Store(&auth.Credential{Profile: profile, Token: token}); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to store token:", err)
		os.Exit(1)
	}

	fmt.Printf("Token stored for profile %q\n", profile)
}

func runLogout(cmd *cobra.Command, args []string) {
	profile := profileArg(args)

	mgr, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to open token store:", err)
		os.Exit(1)
	}

	if err := mgr.Delete(profile); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to remove token:", err)
		os.Exit(1)
	}

	fmt.Printf("Token removed for profile %q\n", profile)
}

func runStatus(cmd *cobra.Command, args []string) {
	mgr, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to open token store:", err)
		os.Exit(1)
	}

	creds, err := mgr.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to list tokens:", err)
		os.Exit(1)
	}

	if len(creds) == 0 {
		fmt.Println("No tokens stored. Run 'viewledger auth login' or set VIEWLEDGER_API_TOKEN.")
		return
	}

	for _, cred := range creds {
		fmt.Printf("  %-12s %s  (modified %s)\n",
			cred.Profile, auth.MaskToken(cred.Token), cred.LastModified.Format("2006-01-02 15:04"))
	}
}
